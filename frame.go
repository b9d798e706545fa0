package thermodo

import (
	"math"
	"slices"
)

// Cell is one calibration step of the sweep reduced to a single amplitude.
type Cell struct {
	Amplitude int16
	Index     uint32
}

// Frame holds the data cells of one recovered sweep. The sync cell is never
// represented and the balance (minimum) cell has already been removed.
type Frame struct {
	Cells [NumberOfCells - 2]Cell
}

// frameScanner locates frames in an extracted sample sequence. Its slices are
// scratch space reused between buffers.
type frameScanner struct {
	frames     []Frame
	extrema    []Sample
	amplitudes []float64
}

// scan runs the sync state machine over the zero-crossings of samples and
// returns every complete frame found. The returned slice is only valid until
// the next call.
func (s *frameScanner) scan(samples []Sample) []Frame {
	s.frames = s.frames[:0]

	syncCount := 0
	frameStart := 0
	frameEnd := 0

	for i, sample := range samples {
		if sample.Kind != Zero {
			continue
		}

		// double frequency: part of the sync marker
		if roundToMultiple(int(sample.DeltaBufferIndex), quarterPeriod) == quarterPeriod {
			if frameStart > 0 && frameEnd == 0 {
				// tentative end, confirmed once the whole marker has been seen
				frameEnd = i
			}
			syncCount++
			continue
		}

		if abs(syncCount-PeriodsPerCell*4) < 3 {
			if frameEnd > 0 {
				s.frames = append(s.frames, s.cells(samples, frameStart, frameEnd))
			}
			frameStart = i
		}

		syncCount = 0
		frameEnd = 0
	}

	return s.frames
}

// cells partitions the extrema of samples[start:end+1] into cells.
func (s *frameScanner) cells(samples []Sample, start, end int) Frame {
	origin := samples[start].BufferIndex

	s.extrema = s.extrema[:0]
	for _, sample := range samples[start : end+1] {
		if sample.Kind == Zero {
			continue
		}

		sample.BufferIndex -= origin
		s.extrema = append(s.extrema, sample)
	}

	var cells [NumberOfCells - 1]Cell

	p := 0
	for c := range cells {
		limit := uint32((c + 1) * SamplesPerCell)

		s.amplitudes = s.amplitudes[:0]
		for ; p < len(s.extrema) && s.extrema[p].BufferIndex <= limit; p++ {
			s.amplitudes = append(s.amplitudes, math.Abs(float64(s.extrema[p].Amplitude)))
		}

		// the first and last peaks sit on the transition between cells
		amplitudes := s.amplitudes
		if len(amplitudes) > 3 {
			amplitudes = amplitudes[1 : len(amplitudes)-1]
		}

		cells[c] = Cell{
			Amplitude: clamp16(median(amplitudes)),
			Index:     uint32(c),
		}
	}

	lowest := 0
	for i := 1; i < len(cells); i++ {
		if cells[i].Amplitude < cells[lowest].Amplitude {
			lowest = i
		}
	}

	// past the balance point the reference dominates and the phase flips
	for i := lowest; i < len(cells); i++ {
		cells[i].Amplitude = -cells[i].Amplitude
	}

	var frame Frame
	copy(frame.Cells[:], slices.Delete(cells[:], lowest, lowest+1))

	return frame
}

func roundToMultiple(value, base int) int {
	return int(math.Round(float64(value)/float64(base))) * base
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
