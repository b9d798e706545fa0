package thermodo

import (
	"math"
	"sync"
	"testing"
)

// capture plays pcm through a dongle loopback at the given resistance and
// returns n microphone samples.
func capture(t *testing.T, pcm *StereoPCM, loops int, resistance float64, noise int, n int) []int16 {
	t.Helper()

	lb := NewLoopback(resistance, LoopbackDongle)
	lb.Noise = noise
	lb.Seed = 5

	if err := lb.Start(); err != nil {
		t.Fatal(err)
	}
	defer lb.Stop()

	if err := lb.Playback().Play(pcm, loops); err != nil {
		t.Fatal(err)
	}

	buf := make([]int16, n)
	if err := lb.Read(buf); err != nil {
		t.Fatal(err)
	}

	return buf
}

func near(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}

// failingRecorder reads silence, then fails every Read after failAfter.
type failingRecorder struct {
	mu        sync.Mutex
	failAfter int
	err       error
	reads     int
	running   bool
}

func (r *failingRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = true
	return nil
}

func (r *failingRecorder) Read(buf []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.reads++
	if r.reads > r.failAfter {
		return r.err
	}

	clear(buf)
	return nil
}

func (r *failingRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	return nil
}

func (r *failingRecorder) isRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
