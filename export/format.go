package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pipelined/timeline/signal"
)

// ErrUnsupportedFormat is returned when export is requested in a format
// outside of the supported set or without a registered encoder.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Format of exported file.
type Format int

const (
	// WAV is uncompressed PCM.
	WAV Format = iota + 1
	// FLAC is lossless compression.
	FLAC
	// MP3 is lossy compression.
	MP3
	// OGG is Opus in Ogg container.
	OGG
)

// Formats lists all supported formats.
var Formats = []Format{WAV, FLAC, MP3, OGG}

func (f Format) String() string {
	switch f {
	case WAV:
		return "wav"
	case FLAC:
		return "flac"
	case MP3:
		return "mp3"
	case OGG:
		return "ogg"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Ext returns file extension of the format, dot included.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat returns format by its name or extension.
func ParseFormat(name string) (Format, error) {
	name = strings.TrimPrefix(strings.ToLower(name), ".")
	for _, f := range Formats {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// FormatOf returns format of the path by its extension.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Encoder writes interleaved 16-bit samples into a file.
type Encoder interface {
	Encode(path string, data []int16, format signal.Format, bitRate int) error
}

// EncoderFunc allows to use ordinary functions as encoders.
type EncoderFunc func(path string, data []int16, format signal.Format, bitRate int) error

// Encode calls f.
func (f EncoderFunc) Encode(path string, data []int16, format signal.Format, bitRate int) error {
	return f(path, data, format, bitRate)
}
