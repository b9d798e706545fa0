package thermodo

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/transforms"
	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid WAV file")

// WriteWAV stores pcm as a 16-bit stereo WAV file.
func WriteWAV(w io.WriteSeeker, pcm *StereoPCM) error {
	enc := wav.NewEncoder(w, SampleRate, 16, 2, 1)

	if err := enc.Write(pcm.IntBuffer()); err != nil {
		enc.Close()
		return fmt.Errorf("write wav: %w", err)
	}

	return enc.Close()
}

// ReadWAV loads a WAV file recorded at SampleRate and mixes it down to mono
// 16-bit samples, the same shape a capture buffer has.
func ReadWAV(r io.ReadSeeker) ([]int16, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	if dec.SampleRate != SampleRate {
		return nil, fmt.Errorf("%w: sample rate %d, want %d", ErrInvalidWAV, dec.SampleRate, SampleRate)
	}
	if dec.BitDepth < 16 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidWAV, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav: %w", err)
	}

	scale := math.Ldexp(1, 16-int(dec.BitDepth))
	return downmix(buf.AsFloatBuffer(), scale), nil
}

// downmix averages the channels of fb and converts the result to int16 after
// multiplying by scale.
func downmix(fb *audio.FloatBuffer, scale float64) []int16 {
	transforms.MonoDownmix(fb)

	out := make([]int16, len(fb.Data))
	for i, v := range fb.Data {
		out[i] = clamp16(math.Round(v * scale))
	}

	return out
}
