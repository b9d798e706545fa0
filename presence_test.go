package thermodo

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTrimmedLevel(t *testing.T) {
	buf := make([]int16, 2000)
	for i := range buf {
		buf[i] = int16(i % 100)
	}
	// outliers above the cut
	buf[0], buf[1], buf[2] = -30000, 30000, 25000

	if got := TrimmedLevel(buf, 10); got != 99 {
		t.Errorf("got %d, want 99", got)
	}
	if got := TrimmedLevel(buf, 0); got != 30000 {
		t.Errorf("cut 0: got %d, want the maximum", got)
	}
	if got := TrimmedLevel(buf, 5000); got != 0 {
		t.Errorf("cut beyond length: got %d, want the minimum", got)
	}
	if got := TrimmedLevel(nil, 10); got != 0 {
		t.Errorf("empty: got %d", got)
	}
}

func testPresenceConfig() PresenceConfig {
	cfg := DefaultPresenceConfig()
	cfg.ToneDelay = 0
	return cfg
}

func TestDetectDongle(t *testing.T) {
	lb := NewLoopback(RefResistance, LoopbackDongle)
	lb.Noise = 20

	if !NewPresenceDetector(lb, lb.Playback(), testPresenceConfig(), nil).Detect(context.Background()) {
		t.Error("dongle not detected")
	}
}

func TestDetectHeadset(t *testing.T) {
	for _, noise := range []int{0, 20} {
		lb := NewLoopback(RefResistance, LoopbackHeadset)
		lb.Noise = noise

		if NewPresenceDetector(lb, lb.Playback(), testPresenceConfig(), nil).Detect(context.Background()) {
			t.Errorf("noise %d: headset detected as dongle", noise)
		}
	}
}

func TestDetectNoisySilence(t *testing.T) {
	lb := NewLoopback(RefResistance, LoopbackDongle)
	lb.Noise = 500

	if NewPresenceDetector(lb, lb.Playback(), testPresenceConfig(), nil).Detect(context.Background()) {
		t.Error("detected with a noise floor above the silence threshold")
	}
}

func TestDetectCanceled(t *testing.T) {
	lb := NewLoopback(RefResistance, LoopbackDongle)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testPresenceConfig()
	cfg.ToneDelay = DefaultPresenceConfig().ToneDelay

	if NewPresenceDetector(lb, lb.Playback(), cfg, nil).Detect(ctx) {
		t.Error("detected after cancel")
	}
}

func TestDetectReadError(t *testing.T) {
	rec := &failingRecorder{failAfter: 1, err: errors.New("device gone")}
	lb := NewLoopback(RefResistance, LoopbackDongle)

	if NewPresenceDetector(rec, lb.Playback(), testPresenceConfig(), nil).Detect(context.Background()) {
		t.Error("detected although the capture failed")
	}
	if rec.isRunning() {
		t.Error("recorder left running")
	}
}

func TestDetectStopsPlayback(t *testing.T) {
	lb := NewLoopback(RefResistance, LoopbackDongle)
	NewPresenceDetector(lb, lb.Playback(), testPresenceConfig(), nil).Detect(context.Background())

	lb.Start()
	defer lb.Stop()

	buf := make([]int16, 1000)
	lb.Read(buf)

	if TrimmedLevel(buf, 0) != 0 {
		t.Error("test tone still playing")
	}
}

func TestDetectLogsLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	lb := NewLoopback(RefResistance, LoopbackDongle)
	NewPresenceDetector(lb, lb.Playback(), testPresenceConfig(), zap.New(core)).Detect(context.Background())

	entries := logs.FilterMessage("presence checked").All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["silence"] != int64(0) || fields["detected"] != true {
		t.Errorf("fields %v", fields)
	}
	if tone, _ := fields["tone"].(int64); tone < 1000 {
		t.Errorf("tone level %d", tone)
	}
}

// jack records the calls made on its recorder and player. The microphone
// hears a constant level while the player is active.
type jack struct {
	calls   []string
	playing bool
}

type jackRecorder struct{ j *jack }
type jackPlayer struct{ j *jack }

func (r jackRecorder) Start() error { r.j.calls = append(r.j.calls, "rec.Start"); return nil }
func (r jackRecorder) Stop() error  { r.j.calls = append(r.j.calls, "rec.Stop"); return nil }

func (r jackRecorder) Read(buf []int16) error {
	r.j.calls = append(r.j.calls, "rec.Read")

	var v int16
	if r.j.playing {
		v = 5000
	}
	for i := range buf {
		buf[i] = v
	}
	return nil
}

func (p jackPlayer) Play(*StereoPCM, int) error {
	p.j.calls = append(p.j.calls, "play.Play")
	p.j.playing = true
	return nil
}

func (p jackPlayer) Stop() error {
	p.j.calls = append(p.j.calls, "play.Stop")
	p.j.playing = false
	return nil
}

func TestDetectCallOrder(t *testing.T) {
	j := &jack{}

	if !NewPresenceDetector(jackRecorder{j}, jackPlayer{j}, testPresenceConfig(), nil).Detect(context.Background()) {
		t.Error("not detected")
	}

	want := []string{
		"rec.Start", "rec.Read", "rec.Stop",
		"play.Play",
		"rec.Start", "rec.Read", "rec.Stop",
		"play.Stop",
	}

	if len(j.calls) != len(want) {
		t.Fatalf("got %v, want %v", j.calls, want)
	}
	for i := range want {
		if j.calls[i] != want[i] {
			t.Fatalf("got %v, want %v", j.calls, want)
		}
	}
}
