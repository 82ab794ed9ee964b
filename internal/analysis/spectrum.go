package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the first half of the series'
// spectrum. The mean is removed first so bin 0 only reflects drift.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return []float64{}
	}

	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency finds the strongest oscillation of a series sampled
// every dt seconds. It returns zero for series too short or too flat to
// carry one.
func DominantFrequency(data []float64, dt float64) (freq, power float64) {
	if dt <= 0 {
		return 0, 0
	}
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0, 0
	}

	k := floats.MaxIdx(ps[1:]) + 1
	if ps[k] == 0 {
		return 0, 0
	}
	return float64(k) / (float64(len(data)) * dt), ps[k]
}
