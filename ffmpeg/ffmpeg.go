// Package ffmpeg decodes any source supported by the ffmpeg binary.
package ffmpeg

import (
	"bytes"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/signal"
)

// DefaultPath is looked up in PATH.
const DefaultPath = "ffmpeg"

// Decoder runs ffmpeg to convert sources into raw 16-bit PCM.
type Decoder struct {
	// Path of ffmpeg binary.
	Path string
	// Format of decoded data, bit depth is ignored.
	Format signal.Format
}

// New returns decoder which outputs the format.
func New(path string, format signal.Format) *Decoder {
	if path == "" {
		path = DefaultPath
	}
	if format.SampleRate <= 0 || format.NumChannels <= 0 {
		format = signal.DefaultFormat
	}
	return &Decoder{
		Path:   path,
		Format: format,
	}
}

// Available returns true if ffmpeg binary can be found.
func (d *Decoder) Available() bool {
	_, err := exec.LookPath(d.Path)
	return err == nil
}

// Decode implements asset.Decoder.
func (d *Decoder) Decode(path string) (*asset.Asset, error) {
	cmd := exec.Command(d.Path, d.args(path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, asset.Errorf(path, "ffmpeg: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	data := signal.Int16sFromBytes(stdout.Bytes())
	if len(data) == 0 {
		return nil, asset.Errorf(path, "ffmpeg: no audio decoded")
	}
	return asset.New(data[:len(data)-len(data)%d.Format.NumChannels], d.Format.SampleRate, d.Format.NumChannels), nil
}

func (d *Decoder) args(path string) []string {
	return []string{
		"-v", "error",
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(d.Format.SampleRate),
		"-ac", strconv.Itoa(d.Format.NumChannels),
		"pipe:1",
	}
}
