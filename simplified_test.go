package thermodo

import (
	"errors"
	"testing"
)

func captureTwoPhase(t *testing.T, resistance float64, noise int) []int16 {
	t.Helper()
	return capture(t, ModeSimplified.Probe(), 0, resistance, noise, ModeSimplified.BufferSize())
}

func TestDecodeSimplified(t *testing.T) {
	tests := []struct {
		resistance float64
		noise      int
		tolerance  float64
	}{
		{100, 0, 0.05},
		{80, 0, 0.05},
		{120, 0, 0.05},
		{100, 40, 0.5},
	}

	for _, tt := range tests {
		res := NewDecoder(ModeSimplified, nil).Decode(captureTwoPhase(t, tt.resistance, tt.noise))

		if res.Err != nil {
			t.Errorf("%v ohm: %v", tt.resistance, res.Err)
			continue
		}
		if res.NumberOfFrames != 2 {
			t.Errorf("%v ohm: %d frames", tt.resistance, res.NumberOfFrames)
		}
		if !near(float64(res.Resistance), tt.resistance, tt.tolerance) {
			t.Errorf("%v ohm: decoded %v", tt.resistance, res.Resistance)
		}
	}
}

func TestDecodeSimplifiedLeadingSilence(t *testing.T) {
	buf := captureTwoPhase(t, 90, 0)

	// playback latency shifts the probe into the buffer
	shifted := make([]int16, len(buf))
	copy(shifted[5000:], buf)

	res := NewDecoder(ModeSimplified, nil).Decode(shifted)
	if res.Err != nil || !near(float64(res.Resistance), 90, 0.05) {
		t.Errorf("got %v", res)
	}
}

func TestDecodeSimplifiedNoSignal(t *testing.T) {
	dec := NewDecoder(ModeSimplified, nil)

	for _, buf := range [][]int16{
		nil,
		make([]int16, 1000),
		{5000, -5000},
	} {
		if res := dec.Decode(buf); !errors.Is(res.Err, ErrNoFramesFound) {
			t.Errorf("len %d: got %v", len(buf), res)
		}
	}
}
