package thermodo

import "testing"

func TestScanFrames(t *testing.T) {
	buf := capture(t, DefaultSweep(), -1, RefResistance, 0, 6*NumberOfCells*SamplesPerCell)

	var s frameScanner
	frames := s.scan(ExtractSamples(nil, buf))

	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}

	wantIndex := []uint32{0, 1, 2, 3, 5, 6, 7, 8}

	for n, f := range frames {
		for i, c := range f.Cells {
			if c.Index != wantIndex[i] {
				t.Errorf("frame %d cell %d: index %d, want %d", n, i, c.Index, wantIndex[i])
			}
			if i < 4 && c.Amplitude <= 0 || i >= 4 && c.Amplitude >= 0 {
				t.Errorf("frame %d cell %d: amplitude %d has the wrong sign", n, i, c.Amplitude)
			}
			if i > 0 && c.Amplitude >= f.Cells[i-1].Amplitude {
				t.Errorf("frame %d: amplitudes not decreasing at cell %d", n, i)
			}
		}
	}
}

func TestScanFramesAttenuated(t *testing.T) {
	// a weaker reference moves the balance cell to the right
	buf := capture(t, DefaultSweep(), -1, 80, 0, 6*NumberOfCells*SamplesPerCell)

	var s frameScanner
	frames := s.scan(ExtractSamples(nil, buf))

	if len(frames) == 0 {
		t.Fatal("no frames")
	}

	if got := frames[0].Cells[4].Index; got != 4 {
		t.Errorf("fifth cell has index %d, want 4", got)
	}
	if got := frames[0].Cells[5].Index; got != 6 {
		t.Errorf("sixth cell has index %d, want 6", got)
	}
}

func TestScanNoSync(t *testing.T) {
	// a plain tone never shows the double frequency marker
	buf := capture(t, TestTone(500, Frequency), 0, RefResistance, 0, SampleRate/2)

	var s frameScanner
	if frames := s.scan(ExtractSamples(nil, buf)); len(frames) != 0 {
		t.Errorf("got %d frames from a plain tone", len(frames))
	}
}

func TestRoundToMultiple(t *testing.T) {
	tests := []struct {
		value, base, want int
	}{
		{11, 11, 11},
		{16, 11, 11},
		{17, 11, 22},
		{5, 11, 0},
		{6, 11, 11},
		{22, 11, 22},
	}

	for _, tt := range tests {
		if got := roundToMultiple(tt.value, tt.base); got != tt.want {
			t.Errorf("roundToMultiple(%d, %d) = %d, want %d", tt.value, tt.base, got, tt.want)
		}
	}
}

// syncedZeros lays out the zero-crossings of two sync markers of firstSync
// and secondSync half periods around a short run of cell crossings.
func syncedZeros(firstSync, secondSync int) []Sample {
	var samples []Sample
	var pos uint32

	zero := func(delta uint32) {
		pos += delta
		samples = append(samples, Sample{Kind: Zero, BufferIndex: pos, DeltaBufferIndex: delta})
	}

	zero(2 * quarterPeriod)
	for range firstSync {
		zero(quarterPeriod)
	}
	for range 20 {
		zero(2 * quarterPeriod)
	}
	for range secondSync {
		zero(quarterPeriod)
	}
	zero(2 * quarterPeriod)

	return samples
}

func TestScanSyncTolerance(t *testing.T) {
	marker := PeriodsPerCell * 4

	tests := []struct {
		first, second int
		frames        int
	}{
		{marker, marker, 1},
		{marker, marker - 2, 1},
		{marker, marker + 2, 1},
		{marker - 2, marker, 1},
		{marker + 2, marker, 1},
		{marker, marker - 3, 0},
		{marker, marker + 3, 0},
		{marker - 3, marker, 0},
		{marker + 3, marker, 0},
	}

	for _, tt := range tests {
		var s frameScanner
		if got := len(s.scan(syncedZeros(tt.first, tt.second))); got != tt.frames {
			t.Errorf("markers %d/%d: got %d frames, want %d", tt.first, tt.second, got, tt.frames)
		}
	}
}

func TestCellsFullScaleNegative(t *testing.T) {
	samples := []Sample{{Kind: Zero}}
	for i := range 5 {
		samples = append(samples,
			Sample{Kind: Min, Amplitude: -32768, BufferIndex: uint32(20*i + 5)},
			Sample{Kind: Zero, BufferIndex: uint32(20*i + 10), DeltaBufferIndex: 10})
	}

	var s frameScanner
	f := s.cells(samples, 0, len(samples)-1)

	if f.Cells[0].Index != 0 || f.Cells[0].Amplitude != 32767 {
		t.Errorf("got %+v, want full scale", f.Cells[0])
	}
}
