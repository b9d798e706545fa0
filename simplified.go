package thermodo

import (
	"math"

	"go.uber.org/zap"
)

// signalThreshold separates the probe from the silence around it.
const signalThreshold = 1000

// decodeSimplified compares the tone level of the left phase with the right
// phase of a two-phase probe. No frame sync is involved.
func (d *Decoder) decodeSimplified(buf []int16) AnalyzerResult {
	start := 0
	for start < len(buf) && absInt16(buf[start]) <= signalThreshold {
		start++
	}

	stop := len(buf) - 1
	for stop > start && absInt16(buf[stop]) <= signalThreshold {
		stop--
	}

	if start >= len(buf) {
		return failed(ErrNoFramesFound, 0)
	}

	region := buf[start : stop+1]

	n := int(math.Round(float64(len(region)) * 0.5 * 0.75))
	leftOffset := int(float64(n) * 0.05)
	rightOffset := len(region) - int(float64(n)*1.05)

	if n == 0 || rightOffset < 0 || leftOffset+n > len(region) {
		return failed(ErrNoFramesFound, 0)
	}

	left := d.windowAmplitude(region[leftOffset : leftOffset+n])
	right := d.windowAmplitude(region[rightOffset : rightOffset+n])

	if left == 0 {
		return failed(ErrNoFramesFound, 0)
	}

	resistance := float32(right / left * RefResistance)
	temperature := TemperatureFor(resistance)

	d.log.Debug("buffer decoded",
		zap.Float64("left", left),
		zap.Float64("right", right),
		zap.Float32("resistance", resistance),
		zap.Float32("temperature", temperature))

	return AnalyzerResult{
		Temperature:    temperature,
		Resistance:     resistance,
		NumberOfFrames: 2,
	}
}

// windowAmplitude is the median peak of window, with minima folded onto
// the positive side.
func (d *Decoder) windowAmplitude(window []int16) float64 {
	d.samples = ExtractSamples(d.samples, window)

	d.signed = d.signed[:0]
	for _, s := range d.samples {
		switch s.Kind {
		case Max:
			d.signed = append(d.signed, float64(s.Amplitude))
		case Min:
			d.signed = append(d.signed, -float64(s.Amplitude))
		}
	}

	return median(d.signed)
}

func absInt16(v int16) int32 {
	if v < 0 {
		return -int32(v)
	}
	return int32(v)
}
