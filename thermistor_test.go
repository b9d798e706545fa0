package thermodo

import (
	"math"
	"testing"
)

func TestThermistorTable(t *testing.T) {
	if want := int((MaxTemp-MinTemp)/TemperatureInterval) + 1; len(ntc100k) != want {
		t.Fatalf("table has %d entries, want %d", len(ntc100k), want)
	}

	for i := 1; i < len(ntc100k); i++ {
		if ntc100k[i] >= ntc100k[i-1] {
			t.Fatalf("table not decreasing at %d", i)
		}
	}
}

func TestTemperatureFor(t *testing.T) {
	tests := []struct {
		resistance float32
		want       float32
	}{
		{100, 25},
		{(100 + 95.3981) / 2, 25.5},
		{4092.873, -39},
		{2.5958, 124},
	}

	for _, tt := range tests {
		got := TemperatureFor(tt.resistance)
		if !near(float64(got), float64(tt.want), 1e-3) {
			t.Errorf("TemperatureFor(%v) = %v, want %v", tt.resistance, got, tt.want)
		}
	}
}

func TestTemperatureForOutOfRange(t *testing.T) {
	for _, r := range []float32{2.522, 2.0, 0, -5} {
		if got := TemperatureFor(r); !math.IsNaN(float64(got)) {
			t.Errorf("TemperatureFor(%v) = %v, want NaN", r, got)
		}
	}
}
