package thermodo

import "testing"

func TestFitTrendline(t *testing.T) {
	// y = 2000 - x/2 through the cell centres
	var cells []Cell
	for i := range 8 {
		x := float64(i*SamplesPerCell + SamplesPerCell/2)
		cells = append(cells, Cell{Index: uint32(i), Amplitude: int16(2000 - x/2)})
	}

	trend := FitTrendline(cells)

	if !near(float64(trend.Slope), -0.5, 1e-4) {
		t.Errorf("slope %v, want -0.5", trend.Slope)
	}
	if !near(float64(trend.Intercept), 2000, 0.5) {
		t.Errorf("intercept %v, want 2000", trend.Intercept)
	}
}

func TestCalibrationChain(t *testing.T) {
	// crossing half way through the frame is the balanced bridge
	trend := Trendline{Slope: -1, Intercept: SamplesPerFrame / 2}

	x := trend.XIntersection()
	if !near(float64(x), 0.5, 1e-6) {
		t.Fatalf("intersection %v, want 0.5", x)
	}

	amplitude := CancellationAmplitude(x)
	if !near(float64(amplitude), ReferenceAmplitude, 1e-6) {
		t.Fatalf("cancellation amplitude %v, want %v", amplitude, ReferenceAmplitude)
	}

	if r := ResistanceFromCancellation(amplitude); !near(float64(r), RefResistance, 1e-4) {
		t.Errorf("resistance %v, want %v", r, RefResistance)
	}
}

func TestCancellationAmplitudeBounds(t *testing.T) {
	if got := CancellationAmplitude(0); !near(float64(got), UpperAmplitude, 1e-6) {
		t.Errorf("at 0: %v", got)
	}
	if got := CancellationAmplitude(1); !near(float64(got), LowerAmplitude, 1e-6) {
		t.Errorf("at 1: %v", got)
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		values []float64
		want   float64
	}{
		{nil, 0},
		{[]float64{7}, 7},
		{[]float64{9, 1}, 9},
		{[]float64{3, 1, 2}, 2},
		{[]float64{4, 1, 3, 2}, 3},
		{[]float64{5, -1, 5, 0, 2}, 2},
	}

	for _, tt := range tests {
		if got := median(tt.values); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.values, got, tt.want)
		}
	}
}

func TestMedianSortsInPlace(t *testing.T) {
	v := []float64{3, 1, 2}
	median(v)

	if v[0] != 1 || v[1] != 2 || v[2] != 3 {
		t.Errorf("got %v", v)
	}
}
