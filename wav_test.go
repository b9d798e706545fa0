package thermodo

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestWAVRoundTrip(t *testing.T) {
	pcm := TestTone(100, 440)
	path := filepath.Join(t.TempDir(), "tone.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, pcm); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	mono, err := ReadWAV(f)
	if err != nil {
		t.Fatal(err)
	}

	if len(mono) != pcm.Frames() {
		t.Fatalf("got %d samples, want %d", len(mono), pcm.Frames())
	}
	for i, s := range mono {
		if s != pcm.Left(i) {
			t.Fatalf("sample %d: got %d, want %d", i, s, pcm.Left(i))
		}
	}
}

func TestWAVDecodesSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.wav")

	// the probe played into a dongle at 100 ohms sums both channels
	lb := NewLoopback(RefResistance, LoopbackDongle)
	lb.Start()
	lb.Playback().Play(DefaultSweep(), -1)

	buf := make([]int16, sweepBuffer)
	lb.Read(buf)

	stereo := &StereoPCM{Data: make([]int16, 2*len(buf))}
	for i, s := range buf {
		stereo.Data[2*i] = s
		stereo.Data[2*i+1] = s
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, stereo); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	mono, err := ReadWAV(f)
	if err != nil {
		t.Fatal(err)
	}

	res := NewDecoder(ModeDefault, nil).Decode(mono)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !near(float64(res.Resistance), 100, 0.5) {
		t.Errorf("resistance %.3f", res.Resistance)
	}
}

func TestReadWAVInvalid(t *testing.T) {
	_, err := ReadWAV(bytes.NewReader([]byte("definitely not a wav file at all")))
	if !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("garbage: got %v", err)
	}

	path := filepath.Join(t.TempDir(), "slow.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}

	enc := wav.NewEncoder(f, 22050, 16, 2, 1)
	enc.Write(TestTone(100, 440).IntBuffer())
	enc.Close()
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := ReadWAV(f); !errors.Is(err, ErrInvalidWAV) {
		t.Errorf("22050 Hz: got %v", err)
	}
}
