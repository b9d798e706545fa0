package thermodo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

var ErrDeviceNotFound = errors.New("device not found")

// Recorder delivers mono 16-bit PCM at SampleRate.
//
// Read blocks until buf is full. Stop may be called from another goroutine
// while a Read is in progress; the Read then returns an error.
type Recorder interface {
	Start() error
	Read(buf []int16) error
	Stop() error
}

// Player plays stereo PCM. A loopCount of -1 loops until Stop, 0 plays once
// and n repeats the waveform n more times.
type Player interface {
	Play(pcm *StereoPCM, loopCount int) error
	Stop() error
}

type AudioType int

const (
	AudioInOut AudioType = iota
	AudioIn
	AudioOut
)

// ListAudioDevices returns the device names, numbered the way FindDevice
// accepts them. portaudio must be initialized.
func ListAudioDevices(t AudioType) ([]string, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var list []string

	for i, d := range devices {
		v := fmt.Sprintf("%d: %s", i+1, d.Name)

		switch t {
		case AudioInOut:
			if d.MaxInputChannels > 0 {
				v += fmt.Sprintf(" (in:%v)", d.MaxInputChannels)
			}
			if d.MaxOutputChannels > 0 {
				v += fmt.Sprintf(" (out:%v)", d.MaxOutputChannels)
			}

		case AudioIn:
			if d.MaxInputChannels == 0 { // output
				continue
			}

		case AudioOut:
			if d.MaxOutputChannels == 0 { // input
				continue
			}
		}

		list = append(list, v)
	}

	return list, nil
}

// FindDevice looks up a device by 1-based index or by name prefix. An empty
// name selects the host's default device for t.
func FindDevice(dev string, t AudioType) (*portaudio.DeviceInfo, error) {
	if dev == "" {
		if t == AudioOut {
			return portaudio.DefaultOutputDevice()
		}
		return portaudio.DefaultInputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	usable := func(d *portaudio.DeviceInfo) bool {
		switch t {
		case AudioIn:
			return d.MaxInputChannels > 0
		case AudioOut:
			return d.MaxOutputChannels > 0
		}
		return true
	}

	if i, err := strconv.Atoi(dev); err == nil && i > 0 && i <= len(devices) {
		if d := devices[i-1]; usable(d) {
			return d, nil
		}
	}

	for _, d := range devices {
		if strings.HasPrefix(d.Name, dev) && usable(d) {
			return d, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, dev)
}

// chunkFrames is the portaudio transfer size. Stop waits for at most one
// chunk to complete.
const chunkFrames = SampleRate / 10

// PortAudioRecorder captures the first input channel of a portaudio device.
type PortAudioRecorder struct {
	Name string

	info *portaudio.DeviceInfo
	log  *zap.Logger

	mu      sync.Mutex
	stream  *portaudio.Stream
	chunk   []int16
	pending []int16
}

func NewPortAudioRecorder(dev string, log *zap.Logger) (*PortAudioRecorder, error) {
	info, err := FindDevice(dev, AudioIn)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &PortAudioRecorder{
		Name:  info.Name,
		info:  info,
		log:   log,
		chunk: make([]int16, chunkFrames),
	}, nil
}

func (r *PortAudioRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream != nil {
		return nil
	}

	p := portaudio.HighLatencyParameters(r.info, nil)
	p.Input.Channels = 1
	p.Output.Channels = 0
	p.SampleRate = SampleRate
	p.FramesPerBuffer = len(r.chunk)

	stream, err := portaudio.OpenStream(p, r.chunk)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input: %w", err)
	}

	r.stream = stream
	r.pending = r.pending[:0]
	r.log.Debug("recorder started", zap.String("device", r.Name))
	return nil
}

func (r *PortAudioRecorder) Read(buf []int16) error {
	off := 0

	for off < len(buf) {
		r.mu.Lock()

		if r.stream == nil {
			r.mu.Unlock()
			return ErrNotRunning
		}

		if len(r.pending) == 0 {
			// an overflow only means samples were dropped, the stream is fine
			if err := r.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
				r.mu.Unlock()
				return fmt.Errorf("read %s: %w", r.Name, err)
			}
			r.pending = r.chunk
		}

		n := copy(buf[off:], r.pending)
		r.pending = r.pending[n:]
		off += n

		r.mu.Unlock()
	}

	return nil
}

func (r *PortAudioRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stream == nil {
		return nil
	}

	err := r.stream.Stop()
	if cerr := r.stream.Close(); err == nil {
		err = cerr
	}

	r.stream = nil
	r.log.Debug("recorder stopped", zap.String("device", r.Name))
	return err
}

// PortAudioPlayer plays stereo PCM on a portaudio output device from a
// background goroutine.
type PortAudioPlayer struct {
	Name string

	info *portaudio.DeviceInfo
	log  *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewPortAudioPlayer(dev string, log *zap.Logger) (*PortAudioPlayer, error) {
	info, err := FindDevice(dev, AudioOut)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = zap.NewNop()
	}

	return &PortAudioPlayer{
		Name: info.Name,
		info: info,
		log:  log,
	}, nil
}

// Play stops any current playback and starts pcm.
func (p *PortAudioPlayer) Play(pcm *StereoPCM, loopCount int) error {
	p.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()

	params := portaudio.HighLatencyParameters(nil, p.info)
	params.Input.Channels = 0
	params.Output.Channels = 2
	params.SampleRate = SampleRate
	params.FramesPerBuffer = chunkFrames

	buf := make([]int16, chunkFrames*2)

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start output: %w", err)
	}

	p.stop = make(chan struct{})
	p.done = make(chan struct{})

	go p.run(stream, buf, pcm.Data, loopCount, p.stop, p.done)
	return nil
}

func (p *PortAudioPlayer) run(stream *portaudio.Stream, buf, data []int16, loops int, stop, done chan struct{}) {
	defer close(done)
	defer stream.Close()
	defer stream.Stop()

	pos := 0
	finished := len(data) == 0

	for !finished {
		select {
		case <-stop:
			return
		default:
		}

		i := 0
		for i < len(buf) {
			if pos == len(data) {
				if loops == 0 {
					clear(buf[i:])
					finished = true
					break
				}
				if loops > 0 {
					loops--
				}
				pos = 0
			}

			n := copy(buf[i:], data[pos:])
			i += n
			pos += n
		}

		if err := stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			p.log.Error("playback failed", zap.String("device", p.Name), zap.Error(err))
			return
		}
	}
}

// Stop interrupts playback and waits for the device to be released.
func (p *PortAudioPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return nil
	}

	close(p.stop)
	<-p.done

	p.stop, p.done = nil, nil
	return nil
}
