package thermodo

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"
)

// PresenceConfig holds the thresholds of the presence heuristic.
type PresenceConfig struct {
	SilenceThreshold int           `yaml:"silence_threshold"`
	ToneRatio        int           `yaml:"tone_ratio"`
	CutSamples       int           `yaml:"cut_samples"`
	ToneDelay        time.Duration `yaml:"tone_delay"`
	BufferSize       int           `yaml:"buffer_size"`
}

func DefaultPresenceConfig() PresenceConfig {
	return PresenceConfig{
		SilenceThreshold: SilenceThreshold,
		ToneRatio:        ToneToSilenceRatio,
		CutSamples:       CutSamplesCount,
		ToneDelay:        200 * time.Millisecond,
		BufferSize:       int(BufferSeconds * SampleRate),
	}
}

// TrimmedLevel returns the absolute sample level at rank len(buf)-cut, which
// ignores the cut loudest samples.
func TrimmedLevel(buf []int16, cut int) int {
	if len(buf) == 0 {
		return 0
	}

	levels := make([]int, len(buf))
	for i, s := range buf {
		levels[i] = int(absInt16(s))
	}
	slices.Sort(levels)

	i := len(levels) - cut
	if i < 0 {
		i = 0
	} else if i >= len(levels) {
		i = len(levels) - 1
	}

	return levels[i]
}

// PresenceDetector tells the dongle apart from a plain headset: the dongle
// couples playback back into the microphone, a headset does not.
type PresenceDetector struct {
	Recorder Recorder
	Player   Player
	Config   PresenceConfig

	log  *zap.Logger
	tone *StereoPCM
}

func NewPresenceDetector(rec Recorder, play Player, cfg PresenceConfig, log *zap.Logger) *PresenceDetector {
	if log == nil {
		log = zap.NewNop()
	}

	return &PresenceDetector{
		Recorder: rec,
		Player:   play,
		Config:   cfg,
		log:      log,
		tone:     TestTone(TestToneDuration, TestToneFrequency),
	}
}

// Detect records one silent buffer, then one buffer while the test tone
// plays. Capture is stopped while the tone starts and resumes after
// ToneDelay. Capture errors and cancellation report false. The recorder is
// stopped on return.
func (p *PresenceDetector) Detect(ctx context.Context) bool {
	buf := make([]int16, p.Config.BufferSize)

	if err := p.Recorder.Start(); err != nil {
		p.log.Debug("presence capture failed", zap.Error(err))
		return false
	}

	err := p.Recorder.Read(buf)
	p.Recorder.Stop()
	if err != nil {
		p.log.Debug("presence capture failed", zap.Error(err))
		return false
	}

	silence := TrimmedLevel(buf, p.Config.CutSamples)
	if silence >= p.Config.SilenceThreshold {
		p.log.Debug("too noisy for presence detection", zap.Int("silence", silence))
		return false
	}

	if err := p.Player.Play(p.tone, 0); err != nil {
		p.log.Debug("test tone failed", zap.Error(err))
		return false
	}
	defer p.Player.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.Config.ToneDelay):
	}

	if err := p.Recorder.Start(); err != nil {
		p.log.Debug("presence capture failed", zap.Error(err))
		return false
	}
	defer p.Recorder.Stop()

	if err := p.Recorder.Read(buf); err != nil {
		p.log.Debug("presence capture failed", zap.Error(err))
		return false
	}

	tone := TrimmedLevel(buf, p.Config.CutSamples)
	detected := tone > p.Config.ToneRatio*max(silence, 1)

	p.log.Debug("presence checked",
		zap.Int("silence", silence),
		zap.Int("tone", tone),
		zap.Bool("detected", detected))

	return detected
}
