package thermodo

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Trendline is the least-squares line through the cells of one frame, with
// x measured in samples from the start of the frame.
type Trendline struct {
	Slope     float32
	Intercept float32
}

// FitTrendline fits a line through the centre of each cell.
func FitTrendline(cells []Cell) Trendline {
	xs := make([]float64, len(cells))
	ys := make([]float64, len(cells))

	for i, cell := range cells {
		xs[i] = float64(int(cell.Index)*SamplesPerCell + SamplesPerCell/2)
		ys[i] = float64(cell.Amplitude)
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	return Trendline{Slope: float32(slope), Intercept: float32(intercept)}
}

// XIntersection returns where the trendline crosses zero, as a fraction of
// the sweep's amplitude range.
func (t Trendline) XIntersection() float32 {
	x := -t.Intercept / t.Slope
	local := float64(x / SamplesPerFrame)

	// Empirical calibration constants measured against the dongle.
	return float32((local - 1.0/18.0) / (1 - 1.0/9.0))
}

// CancellationAmplitude maps a trendline intersection to the sweep amplitude
// at which signal and reference cancel.
func CancellationAmplitude(intersection float32) float32 {
	return UpperAmplitude - intersection*(UpperAmplitude-LowerAmplitude)
}

// ResistanceFromCancellation converts a cancellation amplitude to the
// equivalent sensor resistance.
func ResistanceFromCancellation(amplitude float32) float32 {
	return amplitude / ReferenceAmplitude * RefResistance
}

// median sorts values in place and returns the element at len/2. Lists of one
// or two values return the first one.
func median(values []float64) float64 {
	switch len(values) {
	case 0:
		return 0
	case 1, 2:
		return values[0]
	}

	slices.Sort(values)
	return values[len(values)/2]
}
