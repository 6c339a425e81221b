package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

type Spectrum struct {
	Freq  []float64
	Power []float64
}

// PowerSpectrum returns the magnitudes of the non-negative frequency bins
// of data sampled every dt. The mean is removed first so bin 0 reflects
// only drift.
func PowerSpectrum(data []float64, dt float64) Spectrum {
	n := len(data)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	half := n/2 + 1
	s := Spectrum{Freq: make([]float64, half), Power: make([]float64, half)}
	for k := 0; k < half; k++ {
		s.Freq[k] = float64(k) / (float64(n) * dt)
		s.Power[k] = cmplx.Abs(coeffs[k])
	}
	return s
}

// Dominant returns the frequency of the strongest non-zero bin.
func (s Spectrum) Dominant() (freq, power float64) {
	for k := 1; k < len(s.Power); k++ {
		if s.Power[k] > power {
			freq, power = s.Freq[k], s.Power[k]
		}
	}
	return freq, power
}
