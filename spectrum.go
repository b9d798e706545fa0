package thermodo

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const nBands = 8 // number of frequency bands for the spectrogram

// ComputeSpectrum returns the Hamming windowed magnitude spectrum of the
// first power-of-two block of data.
func ComputeSpectrum(data []float64) []float64 {
	if len(data) <= 2 {
		return nil
	}

	windowSize := 8192
	for len(data) < windowSize {
		windowSize >>= 1
	}

	windowed := make([]float64, windowSize)
	hammingSum := 0.0

	for i := range windowed {
		w := 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(windowSize-1))
		hammingSum += w
		windowed[i] = data[i] * w
	}

	spectrum := fft.FFTReal(windowed)

	magnitudes := make([]float64, windowSize/2)
	for i := range magnitudes {
		magnitudes[i] = 2.0 / hammingSum * cmplx.Abs(spectrum[i])
	}

	return magnitudes
}

func binRange(magnitudes []float64, sampleRate int, minFreq, maxFreq float64) (float64, int, int) {
	freqResolution := float64(sampleRate) / float64(len(magnitudes)*2)

	minBin := int(minFreq / freqResolution)
	maxBin := int(maxFreq / freqResolution)

	if minBin < 0 {
		minBin = 0
	}
	if maxBin >= len(magnitudes) {
		maxBin = len(magnitudes) - 1
	}

	return freqResolution, minBin, maxBin
}

// DominantFrequency finds the strongest frequency in [minFreq, maxFreq],
// refined by parabolic interpolation, and its magnitude.
func DominantFrequency(magnitudes []float64, sampleRate int, minFreq, maxFreq float64) (float64, float64) {
	if len(magnitudes) == 0 {
		return 0, 0
	}

	freqResolution, minBin, maxBin := binRange(magnitudes, sampleRate, minFreq, maxFreq)

	peakBin := minBin
	peakMagnitude := magnitudes[minBin]

	for i := minBin; i <= maxBin; i++ {
		if magnitudes[i] > peakMagnitude {
			peakMagnitude = magnitudes[i]
			peakBin = i
		}
	}

	peakFrequency := float64(peakBin) * freqResolution

	if peakBin > 0 && peakBin < len(magnitudes)-1 {
		alpha := magnitudes[peakBin-1]
		beta := magnitudes[peakBin]
		gamma := magnitudes[peakBin+1]

		if d := alpha - 2*beta + gamma; d != 0 {
			p := 0.5 * (alpha - gamma) / d
			peakFrequency = (float64(peakBin) + p) * freqResolution
		}
	}

	return peakFrequency, peakMagnitude
}

var levels = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Spectrogram renders the band averages of [minFreq, maxFreq] as block glyphs.
func Spectrogram(magnitudes []float64, sampleRate int, minFreq, maxFreq float64) (result [nBands]rune) {
	for i := range result {
		result[i] = levels[0]
	}

	if len(magnitudes) == 0 {
		return result
	}

	_, minBin, maxBin := binRange(magnitudes, sampleRate, minFreq, maxFreq)
	if maxBin <= minBin {
		return result
	}

	binsPerBand := float64(maxBin-minBin+1) / nBands

	for i := 0; i < nBands; i++ {
		startBin := minBin + int(float64(i)*binsPerBand)
		endBin := minBin + int(float64(i+1)*binsPerBand)
		if endBin > maxBin+1 {
			endBin = maxBin + 1
		}
		if startBin >= endBin {
			startBin = endBin - 1
		}

		sum := 0.0
		for j := startBin; j < endBin; j++ {
			sum += magnitudes[j]
		}
		avg := sum / float64(endBin-startBin)

		// a full scale sine is 1.0
		level := int(avg * 800)
		if level > 7 {
			level = 7
		}
		result[i] = levels[level]
	}

	return result
}

// Level summarises a capture buffer for display.
type Level struct {
	Peak      int16
	Tone      float64 // dominant frequency, Hz
	Magnitude float64
	Bars      [nBands]rune
}

// Inspect measures the peak level and the dominant tone of buf between
// 100 Hz and 4 kHz.
func Inspect(buf []int16) Level {
	var lv Level

	data := make([]float64, len(buf))
	for i, s := range buf {
		if s > lv.Peak {
			lv.Peak = s
		} else if -s > lv.Peak {
			lv.Peak = -s
		}
		data[i] = float64(s) / 32768
	}

	magnitudes := ComputeSpectrum(data)
	lv.Tone, lv.Magnitude = DominantFrequency(magnitudes, SampleRate, 100, 4000)
	lv.Bars = Spectrogram(magnitudes, SampleRate, 100, 4000)

	return lv
}
