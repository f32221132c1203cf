// Package codec maps source extensions to decoders and export formats to
// encoders.
package codec

import (
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pipelined/timeline/aiff"
	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/export"
	"github.com/pipelined/timeline/ffmpeg"
	"github.com/pipelined/timeline/flac"
	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/mp3"
	"github.com/pipelined/timeline/ogg"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/wav"
)

// Extensions lists supported source extensions.
var Extensions = []string{".mp3", ".wav", ".flac", ".m4a", ".aac", ".ogg", ".wma", ".aiff"}

type (
	// Registry decodes sources by extension. Sources without a native
	// decoder, or failed to decode natively, are passed to ffmpeg.
	Registry struct {
		decoders map[string]asset.Decoder
		fallback *ffmpeg.Decoder
		logger   logrus.FieldLogger
	}

	// Option of a registry.
	Option func(*Registry)
)

// WithFFmpeg sets fallback decoder binary and output format.
func WithFFmpeg(path string, format signal.Format) Option {
	return func(r *Registry) {
		r.fallback = ffmpeg.New(path, format)
	}
}

// WithDecoder registers decoder for the extension.
func WithDecoder(ext string, decoder asset.Decoder) Option {
	return func(r *Registry) {
		r.decoders[normalize(ext)] = decoder
	}
}

// WithLogger sets registry logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New returns registry with native wav, aiff, mp3 and flac decoders.
func New(options ...Option) *Registry {
	r := &Registry{
		decoders: map[string]asset.Decoder{
			".wav":  asset.DecoderFunc(wav.Decode),
			".aiff": asset.DecoderFunc(aiff.Decode),
			".aif":  asset.DecoderFunc(aiff.Decode),
			".mp3":  asset.DecoderFunc(mp3.Decode),
			".flac": asset.DecoderFunc(flac.Decode),
		},
		fallback: ffmpeg.New(ffmpeg.DefaultPath, signal.DefaultFormat),
		logger:   log.GetLogger(),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Supported returns true if source extension is supported.
func (r *Registry) Supported(path string) bool {
	ext := normalize(filepath.Ext(path))
	if _, ok := r.decoders[ext]; ok {
		return true
	}
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Fallback returns true if ffmpeg decoder is available.
func (r *Registry) Fallback() bool {
	return r.fallback.Available()
}

// Decode implements asset.Decoder.
func (r *Registry) Decode(path string) (*asset.Asset, error) {
	if !r.Supported(path) {
		return nil, asset.Errorf(path, "unsupported extension")
	}
	decoder, ok := r.decoders[normalize(filepath.Ext(path))]
	if !ok {
		return r.fallback.Decode(path)
	}
	a, err := decoder.Decode(path)
	if err == nil {
		return a, nil
	}
	if !r.fallback.Available() {
		return nil, err
	}
	r.logger.WithField("path", path).WithError(err).Debug("native decode failed, trying ffmpeg")
	return r.fallback.Decode(path)
}

// Encoders returns options which register compressed format encoders.
func Encoders(quality int) []export.Option {
	return []export.Option{
		export.WithEncoder(export.MP3, mp3.Encoder{Quality: quality}),
		export.WithEncoder(export.OGG, export.EncoderFunc(ogg.Encode)),
	}
}

func normalize(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
