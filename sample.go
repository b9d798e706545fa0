package thermodo

import "fmt"

type SampleKind int

const (
	Zero SampleKind = iota
	Max
	Min
)

func (k SampleKind) String() string {
	switch k {
	case Zero:
		return "Z"
	case Max:
		return "+"
	case Min:
		return "-"
	}

	return fmt.Sprintf("SampleKind(%d)", int(k))
}

// Sample is a zero-crossing or a local extremum of the captured signal.
// DeltaBufferIndex is only set on zero-crossings: it is the distance in
// samples from the previous crossing.
type Sample struct {
	Amplitude        int16
	BufferIndex      uint32
	DeltaBufferIndex uint32
	Kind             SampleKind
}

func (s Sample) String() string {
	return fmt.Sprintf("<%v %d @%d +%d>", s.Kind, s.Amplitude, s.BufferIndex, s.DeltaBufferIndex)
}

// ExtractSamples reduces buf to the sequence Zero, Extreme, Zero, Extreme...
// A crossing is only emitted together with the extremum that follows it, so
// spans shorter than 3 samples drop out as noise. The samples are appended to
// dst[:0], which lets callers reuse the same backing array between buffers.
func ExtractSamples(dst []Sample, buf []int16) []Sample {
	dst = dst[:0]

	var prev Sample
	havePrev := false
	prevZeroIndex := 0

	for i := 1; i < len(buf); i++ {
		if (buf[i-1] >= 0) == (buf[i] >= 0) {
			continue
		}

		zero := Sample{
			Amplitude:        buf[i],
			BufferIndex:      uint32(i),
			DeltaBufferIndex: uint32(i - prevZeroIndex),
			Kind:             Zero,
		}

		if havePrev {
			if ext, ok := extremeSample(buf, int(prev.BufferIndex), i); ok {
				dst = append(dst, prev, ext)
			}
		}

		prev = zero
		havePrev = true
		prevZeroIndex = i
	}

	return dst
}

// extremeSample finds the sample with the largest magnitude in buf[from:to].
func extremeSample(buf []int16, from, to int) (Sample, bool) {
	if to-from < 3 {
		return Sample{}, false
	}

	var highest int32
	index := -1

	for i := from; i < to; i++ {
		v := int32(buf[i])
		if v < 0 {
			v = -v
		}
		if v > highest {
			highest = v
			index = i
		}
	}

	if index < 0 {
		return Sample{}, false
	}

	kind := Min
	if buf[index] > 0 {
		kind = Max
	}

	return Sample{
		Amplitude:   buf[index],
		BufferIndex: uint32(index),
		Kind:        kind,
	}, true
}
