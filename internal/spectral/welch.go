package spectral

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// hamming returns a Hamming window of length n.
func hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// welchPSD estimates the one-sided power spectral density of samples using
// Welch's method: Hamming-windowed segments with 50% overlap, an FFT per
// segment, and the periodograms averaged. Returns the bin frequencies in Hz
// and the density per bin; both are nil when samples cannot fill a single
// segment.
func welchPSD(samples []float64, sampleRate, nperseg int) (freqs, psd []float64) {
	if nperseg > len(samples) {
		nperseg = len(samples)
	}
	if nperseg < 1 || sampleRate <= 0 {
		return nil, nil
	}

	window := hamming(nperseg)
	winPower := 0.0
	for _, w := range window {
		winPower += w * w
	}

	hop := nperseg / 2
	if hop < 1 {
		hop = 1
	}

	bins := nperseg/2 + 1
	acc := make([]float64, bins)
	frame := make([]float64, nperseg)
	segments := 0
	for start := 0; start+nperseg <= len(samples); start += hop {
		for i := 0; i < nperseg; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spectrum := fft.FFTReal(frame)
		for k := 0; k < bins; k++ {
			re := real(spectrum[k])
			im := imag(spectrum[k])
			acc[k] += re*re + im*im
		}
		segments++
	}
	if segments == 0 {
		return nil, nil
	}

	// One-sided density: interior bins carry the mirrored negative
	// frequencies, DC and (for even lengths) Nyquist do not.
	scale := 1.0 / (float64(sampleRate) * winPower * float64(segments))
	freqs = make([]float64, bins)
	psd = make([]float64, bins)
	for k := 0; k < bins; k++ {
		freqs[k] = float64(k) * float64(sampleRate) / float64(nperseg)
		p := acc[k] * scale
		if k != 0 && !(nperseg%2 == 0 && k == bins-1) {
			p *= 2
		}
		psd[k] = p
	}
	return freqs, psd
}
