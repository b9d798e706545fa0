package thermodo

// Signal layout shared by the synthesizer and the decoder. These values are
// fixed by the dongle hardware.
const (
	SampleRate     = 44100
	Frequency      = 1000
	PeriodsPerCell = 10
	NumberOfCells  = 10
	SyncCellIndex  = 9

	SamplesPerCell  = (SampleRate / Frequency) * PeriodsPerCell
	SamplesPerFrame = (NumberOfCells - 1) * SamplesPerCell

	ReferenceAmplitude = 0.5
	UpperAmplitude     = 0.9
	LowerAmplitude     = 0.1

	ClippingThreshold = 32000
	maxClippedSamples = 10

	MaxAmplitude = 32767
)

// Thermistor calibration.
const (
	MinTemp             = -40.0
	MaxTemp             = 125.0
	TemperatureInterval = 1.0
	RefResistance       = 100.0
)

// Presence detection.
const (
	TestToneDuration   = 700 // ms
	TestToneFrequency  = 200
	SilenceThreshold   = 100
	ToneToSilenceRatio = 10
	CutSamplesCount    = 1000
)

// BufferSeconds is the capture buffer length used by the session.
const BufferSeconds = 0.5

// quarterPeriod is the zero-crossing distance (in samples) of the
// double-frequency sync tone.
const quarterPeriod = SamplesPerCell / PeriodsPerCell / 4
