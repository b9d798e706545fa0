package thermodo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrNotRunning     = errors.New("not running")
	ErrAlreadyRunning = errors.New("already running")
)

// Event is delivered on Session.Events, in the order it was raised.
type Event interface {
	event()
}

type (
	// EventStarted is sent when measuring begins.
	EventStarted struct{}
	// EventStopped is sent when measuring ends, for any reason.
	EventStopped struct{}
	// EventReading carries the outcome of one capture buffer. Result.Err is
	// set for buffers that could not be decoded.
	EventReading struct {
		Result AnalyzerResult
		Level  Level
	}
	// EventDetection reports the presence check run before measuring.
	EventDetection struct {
		Detected bool
	}
	// EventError reports a failure that ended the measurement.
	EventError struct {
		Err error
	}
	// EventPlugged echoes a plug state change.
	EventPlugged struct {
		Plugged bool
	}
)

func (EventStarted) event()   {}
func (EventStopped) event()   {}
func (EventReading) event()   {}
func (EventDetection) event() {}
func (EventError) event()     {}
func (EventPlugged) event()   {}

type Option func(*Session)

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

func WithMode(m Mode) Option {
	return func(s *Session) { s.mode = m }
}

// WithDeviceCheck runs the presence check every time the jack is plugged,
// and only measures when the dongle answers.
func WithDeviceCheck(on bool) Option {
	return func(s *Session) { s.deviceCheck = on }
}

// WithBufferSize overrides the capture buffer length of the default mode.
func WithBufferSize(n int) Option {
	return func(s *Session) { s.bufferSize = n }
}

func WithPresence(cfg PresenceConfig) Option {
	return func(s *Session) { s.presence = cfg }
}

// Session drives the dongle: it plays the probe, captures the microphone
// and decodes every buffer in the background.
//
// Measuring happens while the session is running and the jack is plugged.
type Session struct {
	rec  Recorder
	play Player
	log  *zap.Logger

	presence   PresenceConfig
	bufferSize int

	mu          sync.Mutex
	mode        Mode
	deviceCheck bool
	running     bool
	plugged     bool
	measuring   bool
	ctx         context.Context
	cancel      context.CancelFunc
	worker      *worker

	events *dispatcher
}

type worker struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSession(rec Recorder, play Player, opts ...Option) *Session {
	s := &Session{
		rec:      rec,
		play:     play,
		log:      zap.NewNop(),
		presence: DefaultPresenceConfig(),
		events:   newDispatcher(),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.events.run()
	return s
}

// Events returns the event stream. It must be drained; it is closed by Close.
func (s *Session) Events() <-chan Event {
	return s.events.out
}

// Start runs the session until Stop or until ctx is done. Either way the
// devices are released.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.log.Info("session started", zap.Stringer("mode", s.mode), zap.Bool("plugged", s.plugged))

	go s.watch(s.ctx)

	if s.plugged {
		s.begin()
	}

	return nil
}

// watch stops the run owning ctx once ctx is done.
func (s *Session) watch(ctx context.Context) {
	<-ctx.Done()
	if s.stop(ctx) == nil {
		s.log.Info("session context done", zap.Error(context.Cause(ctx)))
	}
}

func (s *Session) Stop() error {
	return s.stop(nil)
}

// stop ends the current run. A non-nil ctx only stops the run it belongs to.
func (s *Session) stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running || ctx != nil && ctx != s.ctx {
		s.mu.Unlock()
		return ErrNotRunning
	}

	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	s.stopMeasuring()
	cancel()

	s.log.Info("session stopped")
	return nil
}

// Close stops the session and closes the event stream.
func (s *Session) Close() {
	s.Stop()
	s.events.close()
}

func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Session) IsMeasuring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.measuring
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Plugged reports a jack state change. Plugging in while running starts
// measuring, unplugging stops it.
func (s *Session) Plugged(plugged bool) {
	s.mu.Lock()
	s.plugged = plugged
	s.events.emit(EventPlugged{Plugged: plugged})

	if plugged && s.running {
		s.begin()
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if !plugged {
		s.stopMeasuring()
	}
}

// SetMode switches the decode mode, restarting a measurement in progress.
func (s *Session) SetMode(m Mode) {
	s.mu.Lock()
	if s.mode == m {
		s.mu.Unlock()
		return
	}

	s.mode = m
	active := s.worker != nil
	s.mu.Unlock()

	s.log.Info("mode changed", zap.Stringer("mode", m))

	if !active {
		return
	}

	s.stopMeasuring()

	s.mu.Lock()
	if s.running && s.plugged {
		s.begin()
	}
	s.mu.Unlock()
}

// begin starts the worker. Called with mu held.
func (s *Session) begin() {
	if s.worker != nil {
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	w := &worker{cancel: cancel, done: make(chan struct{})}
	s.worker = w

	go s.work(ctx, w, s.mode, s.deviceCheck)
}

func (s *Session) stopMeasuring() {
	s.mu.Lock()
	w := s.worker
	if w == nil {
		s.mu.Unlock()
		return
	}

	s.release(w, nil)
	s.mu.Unlock()

	<-w.done
}

// release tears down the devices of w and reports the end of measuring.
// Called with mu held.
func (s *Session) release(w *worker, err error) {
	if s.worker != w {
		return
	}

	s.worker = nil
	w.cancel()

	s.play.Stop()
	s.rec.Stop()

	if s.measuring {
		s.measuring = false
		s.events.emit(EventStopped{})
		s.log.Info("measuring stopped")
	}

	if err != nil {
		s.log.Error("capture failed", zap.Error(err))
		s.events.emit(EventError{Err: fmt.Errorf("%w: %w", ErrCaptureFailure, err)})
	}
}

func (s *Session) work(ctx context.Context, w *worker, mode Mode, check bool) {
	defer close(w.done)
	defer func() {
		s.mu.Lock()
		s.release(w, nil)
		s.mu.Unlock()
	}()

	if check {
		detected := NewPresenceDetector(s.rec, s.play, s.presence, s.log).Detect(ctx)

		s.mu.Lock()
		if s.worker != w {
			s.mu.Unlock()
			return
		}

		s.events.emit(EventDetection{Detected: detected})
		if !detected {
			s.log.Info("dongle not detected")
			s.worker = nil
			w.cancel()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}

	probe := mode.Probe()
	loops := mode.loopCount()

	size := mode.BufferSize()
	if mode == ModeDefault && s.bufferSize > 0 {
		size = s.bufferSize
	}

	err := s.rec.Start()
	if err == nil && loops != 0 {
		err = s.play.Play(probe, loops)
	}

	s.mu.Lock()
	if s.worker != w {
		s.mu.Unlock()
		s.play.Stop()
		s.rec.Stop()
		return
	}
	if err != nil {
		s.release(w, err)
		s.mu.Unlock()
		return
	}

	s.measuring = true
	s.events.emit(EventStarted{})
	s.log.Info("measuring started", zap.Stringer("mode", mode), zap.Int("buffer", size))
	s.mu.Unlock()

	buffers := make(chan []int16, 1)
	free := make(chan []int16, 3)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.decode(ctx, w, mode, buffers, free)
	}()

	defer wg.Wait()
	defer close(buffers)

	for ctx.Err() == nil {
		var buf []int16
		select {
		case buf = <-free:
		default:
			buf = make([]int16, size)
		}

		if loops == 0 {
			if err := s.play.Play(probe, 0); err != nil {
				s.fail(w, err)
				return
			}
		}

		if err := s.rec.Read(buf); err != nil {
			if ctx.Err() == nil {
				s.fail(w, err)
			}
			return
		}

		// the newest buffer replaces one the decoder has not picked up yet
		select {
		case old := <-buffers:
			select {
			case free <- old:
			default:
			}
		default:
		}
		buffers <- buf
	}
}

func (s *Session) fail(w *worker, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(w, err)
}

func (s *Session) decode(ctx context.Context, w *worker, mode Mode, buffers <-chan []int16, free chan<- []int16) {
	dec := NewDecoder(mode, s.log)

	for buf := range buffers {
		res := dec.Decode(buf)
		lv := Inspect(buf)

		select {
		case free <- buf:
		default:
		}

		s.mu.Lock()
		if s.worker == w && ctx.Err() == nil {
			s.events.emit(EventReading{Result: res, Level: lv})
		}
		s.mu.Unlock()
	}
}

// dispatcher forwards events to a channel through an unbounded queue, so
// raising an event never blocks on the consumer.
type dispatcher struct {
	mu     sync.Mutex
	queue  []Event
	closed bool
	notify chan struct{}
	out    chan Event
}

func newDispatcher() *dispatcher {
	return &dispatcher{
		notify: make(chan struct{}, 1),
		out:    make(chan Event),
	}
}

func (d *dispatcher) emit(ev Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	d.wake()
}

func (d *dispatcher) wake() {
	select {
	case d.notify <- struct{}{}:
	default:
	}
}

func (d *dispatcher) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wake()
}

func (d *dispatcher) run() {
	defer close(d.out)

	for {
		d.mu.Lock()
		queue, closed := d.queue, d.closed
		d.queue = nil
		d.mu.Unlock()

		for _, ev := range queue {
			d.out <- ev
		}

		if len(queue) == 0 {
			if closed {
				return
			}
			<-d.notify
		}
	}
}
