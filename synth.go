package thermodo

import (
	"math"
	"time"

	"github.com/go-audio/audio"
)

// StereoPCM is interleaved left/right 16-bit PCM at SampleRate.
type StereoPCM struct {
	Data []int16
}

func (p *StereoPCM) Frames() int {
	return len(p.Data) / 2
}

func (p *StereoPCM) Left(i int) int16  { return p.Data[2*i] }
func (p *StereoPCM) Right(i int) int16 { return p.Data[2*i+1] }

func (p *StereoPCM) Duration() time.Duration {
	return time.Duration(p.Frames()) * time.Second / SampleRate
}

// IntBuffer wraps the samples for the go-audio encoders.
func (p *StereoPCM) IntBuffer() *audio.IntBuffer {
	data := make([]int, len(p.Data))
	for i, s := range p.Data {
		data[i] = int(s)
	}

	return &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
}

// sineSample returns sample n of a sine at freq Hz with the given peak
// amplitude, rounded and clamped to int16.
func sineSample(n int, amplitude float64, freq int) int16 {
	v := math.Round(math.Sin(2*math.Pi*float64(freq)*float64(n)/SampleRate) * amplitude)
	return clamp16(v)
}

func clamp16(v float64) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// samplesCount returns the number of samples in the whole periods of freq
// that fit in durationMs.
func samplesCount(freq, durationMs int) int {
	periods := durationMs * freq / 1000
	return SampleRate * periods / freq
}

// Sweep generates the calibration signal: nCells cells of periodsPerCell
// periods each. The left channel steps down from maxVolume to minVolume, the
// right channel holds the phase-inverted reference at refVolume. The cell at
// syncCellIndex plays both channels at double frequency with inverted sign.
// Volumes are fractions of MaxAmplitude.
func Sweep(nCells, periodsPerCell, syncCellIndex, frequency int, refVolume, maxVolume, minVolume float64) *StereoPCM {
	samplesPerCell := (SampleRate / frequency) * periodsPerCell
	volumeStep := (maxVolume - minVolume) / float64(nCells-2)

	data := make([]int16, 0, samplesPerCell*nCells*2)

	n := 0
	volume := maxVolume
	for cell := 0; cell < nCells; cell++ {
		for i := 0; i < samplesPerCell; i++ {
			if cell == syncCellIndex {
				// inverted so the phase lines up with the start of the next frame
				data = append(data,
					sineSample(n, -maxVolume*MaxAmplitude, frequency*2),
					-sineSample(n, -refVolume*MaxAmplitude, frequency*2))
			} else {
				data = append(data,
					sineSample(n, volume*MaxAmplitude, frequency),
					-sineSample(n, refVolume*MaxAmplitude, frequency))
			}
			n++
		}
		volume -= volumeStep
	}

	return &StereoPCM{Data: data}
}

// DefaultSweep is the sweep the dongle is calibrated for.
func DefaultSweep() *StereoPCM {
	return Sweep(NumberOfCells, PeriodsPerCell, SyncCellIndex, Frequency,
		ReferenceAmplitude, UpperAmplitude, LowerAmplitude)
}

// TwoPhase plays a full scale tone on the left channel only, then the same
// tone on the right channel only. channelMs is the duration of each phase.
func TwoPhase(channelMs, frequency int) *StereoPCM {
	perChannel := samplesCount(frequency, channelMs)
	data := make([]int16, perChannel*2*2)

	for i := 0; i < perChannel*2; i++ {
		s := sineSample(i, MaxAmplitude, frequency)
		if i < perChannel {
			data[2*i] = s
		} else {
			data[2*i+1] = s
		}
	}

	return &StereoPCM{Data: data}
}

// TestTone plays a full scale tone on both channels.
func TestTone(durationMs, frequency int) *StereoPCM {
	n := samplesCount(frequency, durationMs)
	data := make([]int16, n*2)

	for i := 0; i < n; i++ {
		s := sineSample(i, MaxAmplitude, frequency)
		data[2*i] = s
		data[2*i+1] = s
	}

	return &StereoPCM{Data: data}
}
