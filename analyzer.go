package thermodo

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

var (
	ErrClippingDetected = errors.New("clipping detected")
	ErrNoFramesFound    = errors.New("no frames found")
	ErrCaptureFailure   = errors.New("capture failure")
)

// AnalyzerResult is the outcome of decoding one capture buffer. Temperature
// is NaN when the resistance falls outside the thermistor table; that is not
// an error. Err is set when the buffer could not be decoded at all.
type AnalyzerResult struct {
	Temperature    float32
	Resistance     float32
	NumberOfFrames uint32
	Err            error
}

// Undetermined reports whether the temperature is outside the sensor range.
func (r AnalyzerResult) Undetermined() bool {
	return math.IsNaN(float64(r.Temperature))
}

func (r AnalyzerResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("<error: %v>", r.Err)
	}
	return fmt.Sprintf("<%.2f°C %.3f (%d frames)>", r.Temperature, r.Resistance, r.NumberOfFrames)
}

func failed(err error, frames int) AnalyzerResult {
	return AnalyzerResult{
		Temperature:    float32(math.NaN()),
		Resistance:     float32(math.NaN()),
		NumberOfFrames: uint32(frames),
		Err:            err,
	}
}

// Mode selects the decode algorithm and the probe signal it expects.
type Mode int

const (
	ModeDefault Mode = iota
	ModeSimplified
)

func (m Mode) String() string {
	switch m {
	case ModeDefault:
		return "default"
	case ModeSimplified:
		return "simplified"
	}

	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "default", "sweep":
		return ModeDefault, nil
	case "simplified", "twophase":
		return ModeSimplified, nil
	}

	return ModeDefault, fmt.Errorf("unknown mode: %q", s)
}

// Probe returns the waveform to play while capturing in this mode.
func (m Mode) Probe() *StereoPCM {
	if m == ModeSimplified {
		return TwoPhase(BufferSeconds/2*1000, Frequency)
	}

	return DefaultSweep()
}

// loopCount is the playback loop count for the probe. The two-phase probe is
// replayed once per capture so that every buffer starts on the left phase.
func (m Mode) loopCount() int {
	if m == ModeSimplified {
		return 0
	}
	return -1
}

// BufferSize returns the capture buffer length in samples.
func (m Mode) BufferSize() int {
	if m == ModeSimplified {
		// probe plus headroom for playback latency
		return m.Probe().Frames() + SampleRate/4
	}
	return int(BufferSeconds * SampleRate)
}

// Decoder turns capture buffers into resistance and temperature readings.
//
// A Decoder reuses its scratch slices between calls and must not be used from
// more than one goroutine at a time.
type Decoder struct {
	Mode Mode

	log *zap.Logger

	samples       []Sample
	scanner       frameScanner
	intersections []float64
	signed        []float64
}

func NewDecoder(mode Mode, log *zap.Logger) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}

	return &Decoder{
		Mode:    mode,
		log:     log,
		samples: make([]Sample, 0, SampleRate),
	}
}

// Decode analyzes one mono capture buffer.
func (d *Decoder) Decode(buf []int16) AnalyzerResult {
	switch d.Mode {
	case ModeSimplified:
		return d.decodeSimplified(buf)
	default:
		return d.decodeSweep(buf)
	}
}

// Clipped reports whether more than a handful of samples are above the
// clipping threshold.
func Clipped(buf []int16) bool {
	n := 0
	for _, s := range buf {
		if s > ClippingThreshold {
			n++
			if n > maxClippedSamples {
				return true
			}
		}
	}
	return false
}

func (d *Decoder) decodeSweep(buf []int16) AnalyzerResult {
	if Clipped(buf) {
		d.log.Debug("buffer discarded", zap.Error(ErrClippingDetected))
		return failed(ErrClippingDetected, 0)
	}

	d.samples = ExtractSamples(d.samples, buf)
	frames := d.scanner.scan(d.samples)

	if len(frames) == 0 {
		d.log.Debug("buffer discarded", zap.Error(ErrNoFramesFound), zap.Int("samples", len(d.samples)))
		return failed(ErrNoFramesFound, 0)
	}

	d.intersections = d.intersections[:0]
	for i := range frames {
		trend := FitTrendline(frames[i].Cells[:])
		d.intersections = append(d.intersections, float64(trend.XIntersection()))
	}

	intersection := float32(median(d.intersections))
	resistance := ResistanceFromCancellation(CancellationAmplitude(intersection))
	temperature := TemperatureFor(resistance)

	d.log.Debug("buffer decoded",
		zap.Int("frames", len(frames)),
		zap.Float32("intersection", intersection),
		zap.Float32("resistance", resistance),
		zap.Float32("temperature", temperature))

	return AnalyzerResult{
		Temperature:    temperature,
		Resistance:     resistance,
		NumberOfFrames: uint32(len(frames)),
	}
}
