// Package export renders the whole timeline into a single buffer and writes
// it with a format encoder.
//
// Render is best effort: clips which fail to decode are skipped and listed
// in the result. Export reports coarse progress: 10 when render starts, 50
// when write starts and 100 on success. Failures are reported with zero
// progress and the error message.
package export

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/viterin/vek"

	"github.com/pipelined/timeline/asset"
	"github.com/pipelined/timeline/flac"
	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/metric"
	"github.com/pipelined/timeline/signal"
	"github.com/pipelined/timeline/track"
	"github.com/pipelined/timeline/wav"
)

const (
	// DefaultBitRate of compressed formats in kbps.
	DefaultBitRate = 320
	// Component is the metric name of renders.
	Component = "export.render"
	// headroom is applied on top of peak when render clips.
	headroom = 1.05
)

// ErrExporting is returned when export is requested while another one is
// in progress.
var ErrExporting = errors.New("export is in progress")

type (
	// Source provides shared access to the timeline for the render.
	Source interface {
		View(func(tracks []*track.Track, duration time.Duration))
	}

	// Progress is notified with percent of export done and a message.
	Progress func(percent int, message string)

	// Exporter renders and writes timelines.
	Exporter struct {
		format    signal.Format
		bitRate   int
		decoder   asset.Decoder
		encoders  map[Format]Encoder
		logger    logrus.FieldLogger
		meter     metric.ResetFunc
		exporting atomic.Bool
	}

	// Option of an exporter.
	Option func(*Exporter)

	// Result of a render.
	Result struct {
		Format signal.Format
		// Data is interleaved full scale signal.
		Data []float64
		// Peak is absolute peak before normalization.
		Peak       float64
		Normalized bool
		Skipped    SkipErrors
	}
)

// WithFormat sets render sample rate and number of channels.
func WithFormat(format signal.Format) Option {
	return func(e *Exporter) {
		e.format = format
	}
}

// WithBitRate sets bit rate of compressed formats in kbps.
func WithBitRate(bitRate int) Option {
	return func(e *Exporter) {
		if bitRate > 0 {
			e.bitRate = bitRate
		}
	}
}

// WithDecoder makes render to decode clip sources instead of using assets
// held by clips.
func WithDecoder(decoder asset.Decoder) Option {
	return func(e *Exporter) {
		e.decoder = decoder
	}
}

// WithEncoder registers encoder of the format.
func WithEncoder(format Format, encoder Encoder) Option {
	return func(e *Exporter) {
		e.encoders[format] = encoder
	}
}

// WithLogger sets exporter logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Exporter) {
		e.logger = logger
	}
}

// New returns exporter with WAV and FLAC encoders registered.
func New(options ...Option) *Exporter {
	e := &Exporter{
		format:  signal.DefaultFormat,
		bitRate: DefaultBitRate,
		encoders: map[Format]Encoder{
			WAV:  EncoderFunc(wav.Encode),
			FLAC: EncoderFunc(flac.Encode),
		},
		logger: log.GetLogger(),
	}
	for _, option := range options {
		option(e)
	}
	e.format.BitDepth = signal.BitDepth16
	e.meter = metric.Meter(Component, e.format.SampleRate)
	return e
}

// Format returns render format.
func (e *Exporter) Format() signal.Format {
	return e.format
}

// Supports returns true if encoder for the format is registered.
func (e *Exporter) Supports(format Format) bool {
	_, ok := e.encoders[format]
	return ok
}

// Exporting returns true if export is in progress.
func (e *Exporter) Exporting() bool {
	return e.exporting.Load()
}

// Int16s returns rendered data as 16-bit samples.
func (r *Result) Int16s() []int16 {
	return signal.Int16s(r.Data)
}

// Duration returns length of rendered data.
func (r *Result) Duration() time.Duration {
	if r.Format.NumChannels == 0 {
		return 0
	}
	return signal.DurationOf(r.Format.SampleRate, int64(len(r.Data)/r.Format.NumChannels))
}

// Render mixes the whole timeline. Overlapping clips are summed, muted
// tracks are skipped. If peak exceeds full scale, the result is scaled down
// with headroom.
//
// With a decoder set, sources are decoded between two views of the
// timeline, so edits aren't blocked by decoding.
func (e *Exporter) Render(src Source) *Result {
	sources := make(map[string]*decoded)
	if e.decoder != nil {
		var paths []string
		src.View(func(tracks []*track.Track, _ time.Duration) {
			paths = sourcePaths(tracks)
		})
		for _, path := range paths {
			sources[path] = e.decode(path)
		}
	}
	var r *Result
	src.View(func(tracks []*track.Track, duration time.Duration) {
		r = e.render(tracks, duration, sources)
	})
	return r
}

// decoded is a source decoded in render format.
type decoded struct {
	asset *asset.Asset
	err   error
}

func (e *Exporter) decode(path string) *decoded {
	a, err := e.decoder.Decode(path)
	if err != nil {
		return &decoded{err: err}
	}
	return &decoded{asset: a.Convert(e.format)}
}

// sourcePaths returns unique sources of audible clips.
func sourcePaths(tracks []*track.Track) []string {
	var paths []string
	seen := make(map[string]struct{})
	for _, t := range tracks {
		if t.Muted {
			continue
		}
		for _, c := range t.Clips() {
			if c.Source == "" {
				continue
			}
			if _, ok := seen[c.Source]; !ok {
				seen[c.Source] = struct{}{}
				paths = append(paths, c.Source)
			}
		}
	}
	return paths
}

func (e *Exporter) render(tracks []*track.Track, duration time.Duration, sources map[string]*decoded) *Result {
	numChannels := e.format.NumChannels
	r := &Result{
		Format: e.format,
		Data:   make([]float64, e.format.FramesFor(duration)*numChannels),
	}
	for _, t := range tracks {
		if t.Muted {
			continue
		}
		for _, c := range t.ClipsSorted() {
			samples, err := e.clipSamples(c, sources)
			if err != nil {
				e.logger.WithFields(logrus.Fields{
					"track": t.Name,
					"clip":  c.Name,
					"id":    c.ID(),
				}).WithError(err).Warn("clip skipped")
				r.Skipped = append(r.Skipped, err)
				continue
			}
			offset := e.format.FramesFor(c.StartTime()) * numChannels
			if len(samples) == 0 || offset >= len(r.Data) {
				continue
			}
			if gain := c.Volume * t.Volume; gain != 1 {
				vek.MulNumber_Inplace(samples, gain)
			}
			end := offset + len(samples)
			if end > len(r.Data) {
				end = len(r.Data)
			}
			vek.Add_Inplace(r.Data[offset:end], samples[:end-offset])
		}
	}
	r.normalize()
	return r
}

func (r *Result) normalize() {
	if len(r.Data) == 0 {
		return
	}
	r.Peak = vek.Max(vek.Abs(r.Data))
	if r.Peak > 1 {
		vek.MulNumber_Inplace(r.Data, 1/(r.Peak*headroom))
		r.Normalized = true
	}
}

// clipSamples returns trimmed window of the clip in render format. Decoded
// sources are cached by path, sources missing in cache are decoded in place.
func (e *Exporter) clipSamples(c *track.Clip, sources map[string]*decoded) ([]float64, error) {
	a := c.Asset()
	if e.decoder != nil && c.Source != "" {
		d, ok := sources[c.Source]
		if !ok {
			d = e.decode(c.Source)
			sources[c.Source] = d
		}
		if d.err != nil {
			return nil, d.err
		}
		a = d.asset
	}
	if a.Empty() {
		return nil, nil
	}
	a = a.Convert(e.format)
	numChannels := e.format.NumChannels
	start := e.format.FramesFor(c.TrimStart()) * numChannels
	end := start + e.format.FramesFor(c.Duration())*numChannels
	if end > len(a.Data) {
		end = len(a.Data) - len(a.Data)%numChannels
	}
	if start >= end {
		return nil, nil
	}
	return signal.Float64s(a.Data[start:end]), nil
}

// Export renders the timeline and writes it into the path. Unsupported
// format is rejected before render starts. Render and write failures are
// returned as *Error.
func (e *Exporter) Export(src Source, path string, format Format, progress Progress) error {
	encoder, ok := e.encoders[format]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if !e.exporting.CompareAndSwap(false, true) {
		return ErrExporting
	}
	defer e.exporting.Store(false)
	if progress == nil {
		progress = func(int, string) {}
	}
	measure := e.meter()
	logger := e.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
	})

	progress(10, "rendering")
	if e.format.SampleRate <= 0 || e.format.NumChannels <= 0 {
		return e.fail(progress, measure, logger, &Error{
			Stage: StageRender,
			Path:  path,
			Err:   fmt.Errorf("invalid render format: %d Hz %d channels", e.format.SampleRate, e.format.NumChannels),
		})
	}
	r := e.Render(src)
	if r.Normalized {
		logger.WithField("peak", r.Peak).Info("render normalized")
	}

	progress(50, "writing")
	if err := encoder.Encode(path, r.Int16s(), e.format, e.bitRate); err != nil {
		return e.fail(progress, measure, logger, &Error{Stage: StageWrite, Path: path, Err: err})
	}
	measure.Chunk(int64(len(r.Data) / e.format.NumChannels))
	logger.WithField("skipped", len(r.Skipped)).Info("exported")
	progress(100, fmt.Sprintf("exported to %s", path))
	return nil
}

func (e *Exporter) fail(progress Progress, measure *metric.Measure, logger logrus.FieldLogger, err *Error) error {
	measure.Error()
	logger.WithError(err.Err).Errorf("%s failed", err.Stage)
	progress(0, err.Error())
	return err
}

// ExportPath exports in the format of the path extension.
func (e *Exporter) ExportPath(src Source, path string, progress Progress) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	return e.Export(src, path, format, progress)
}

// ExportAsync runs Export in a separate goroutine. The returned channel
// receives the result and is closed after.
func (e *Exporter) ExportAsync(src Source, path string, format Format, progress Progress) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		errc <- e.Export(src, path, format, progress)
	}()
	return errc
}

// ExportClip writes trimmed window of the clip with its volume applied.
func (e *Exporter) ExportClip(c *track.Clip, path string, format Format) error {
	encoder, ok := e.encoders[format]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	samples, err := e.clipSamples(c, make(map[string]*decoded))
	if err != nil {
		return &Error{Stage: StageRender, Path: path, Err: err}
	}
	if c.Volume != 1 {
		vek.MulNumber_Inplace(samples, c.Volume)
	}
	r := &Result{Format: e.format, Data: samples}
	r.normalize()
	if err := encoder.Encode(path, r.Int16s(), e.format, e.bitRate); err != nil {
		return &Error{Stage: StageWrite, Path: path, Err: err}
	}
	return nil
}
