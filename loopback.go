package thermodo

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/go-audio/audio"
)

type LoopbackMode int

const (
	// LoopbackDongle feeds both playback channels back into the microphone,
	// the right one attenuated by the simulated sensor.
	LoopbackDongle LoopbackMode = iota
	// LoopbackHeadset never couples playback into the microphone.
	LoopbackHeadset
)

func (m LoopbackMode) String() string {
	if m == LoopbackHeadset {
		return "headset"
	}
	return "dongle"
}

// Loopback simulates the headset jack. It is the Recorder, and Playback
// returns the matching Player: whatever is playing is mixed into the
// captured buffers.
//
// Playback advances only as samples are read, so a capture always sees the
// waveform from where the previous one stopped.
type Loopback struct {
	Resistance float64 // ohms, RefResistance gives a unity mix
	Mode       LoopbackMode
	Noise      int  // peak of the uniform noise added to every sample
	Realtime   bool // pace Read at the sample rate
	Seed       uint64

	mu      sync.Mutex
	running bool
	wake    chan struct{}
	rng     *rand.Rand

	pcm   []int16
	loops int
	pos   int
}

func NewLoopback(resistance float64, mode LoopbackMode) *Loopback {
	return &Loopback{
		Resistance: resistance,
		Mode:       mode,
	}
}

func (l *Loopback) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(l.Seed, 0x7468))
	}

	l.running = true
	l.wake = make(chan struct{})
	return nil
}

func (l *Loopback) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.running = false
		close(l.wake)
	}

	return nil
}

func (l *Loopback) Read(buf []int16) error {
	l.mu.Lock()

	if !l.running {
		l.mu.Unlock()
		return ErrNotRunning
	}

	wake := l.wake
	l.fill(buf)
	l.mu.Unlock()

	if l.Realtime {
		t := time.NewTimer(time.Duration(len(buf)) * time.Second / SampleRate)
		defer t.Stop()

		select {
		case <-t.C:
		case <-wake:
			return ErrNotRunning
		}
	}

	return nil
}

func (l *Loopback) play(pcm *StereoPCM, loopCount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pcm = pcm.Data
	if len(l.pcm) < 2 {
		l.pcm = nil
	}
	l.loops = loopCount
	l.pos = 0
	return nil
}

func (l *Loopback) stopPlayback() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pcm = nil
	return nil
}

// Playback returns the Player view of l, whose Stop silences playback
// without ending the capture.
func (l *Loopback) Playback() Player {
	return loopbackPlayer{l}
}

type loopbackPlayer struct{ l *Loopback }

func (p loopbackPlayer) Play(pcm *StereoPCM, loopCount int) error { return p.l.play(pcm, loopCount) }
func (p loopbackPlayer) Stop() error                               { return p.l.stopPlayback() }

// fill renders len(buf) microphone samples. Called with mu held.
func (l *Loopback) fill(buf []int16) {
	gain := l.Resistance / RefResistance

	fb := &audio.FloatBuffer{
		Format: &audio.Format{NumChannels: 2, SampleRate: SampleRate},
		Data:   make([]float64, len(buf)*2),
	}

	for i := range buf {
		if l.pcm == nil {
			break
		}

		if l.pos == len(l.pcm)/2 {
			if l.loops == 0 {
				l.pcm = nil
				break
			}
			if l.loops > 0 {
				l.loops--
			}
			l.pos = 0
		}

		if l.Mode == LoopbackDongle {
			fb.Data[2*i] = float64(l.pcm[2*l.pos])
			fb.Data[2*i+1] = gain * float64(l.pcm[2*l.pos+1])
		}
		l.pos++
	}

	copy(buf, downmix(fb, 1))

	if l.Noise > 0 {
		for i := range buf {
			n := l.rng.IntN(2*l.Noise+1) - l.Noise
			buf[i] = clamp16(float64(buf[i]) + float64(n))
		}
	}
}
