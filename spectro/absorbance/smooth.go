package absorbance

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"gonum.org/v1/gonum/floats"
)

// Smooth convolves the spectrum with a normalised Gaussian kernel of the
// given standard deviation in samples. Edges are extended by replicating the
// first and last values so a flat spectrum stays flat. Sample spacing is
// assumed uniform.
//
// sigma <= 0 returns a copy of s. A sigma wider than the spectrum itself is
// rejected.
func Smooth(s Spectrum, sigma float64) (Spectrum, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(s) == 0 || sigma <= 0 {
		return append(Spectrum(nil), s...), nil
	}
	if math.IsInf(sigma, 0) || math.IsNaN(sigma) {
		return nil, fmt.Errorf("absorbance: smoothing sigma must be finite: %v", sigma)
	}
	if sigma > float64(len(s)) {
		return nil, fmt.Errorf("absorbance: smoothing sigma %g exceeds the spectrum length of %d samples", sigma, len(s))
	}

	radius := int(math.Ceil(4 * sigma))
	kernel := gaussianKernel(sigma, radius)

	n := len(s)
	padded := make([]float64, n+2*radius)
	for i := range padded {
		j := i - radius
		switch {
		case j < 0:
			j = 0
		case j >= n:
			j = n - 1
		}
		padded[i] = s[j].Absorbance
	}

	conv, err := convolveFFT(padded, kernel)
	if err != nil {
		return nil, err
	}

	// Full convolution index k corresponds to padded index k - radius.
	values := make([]float64, n)
	copy(values, conv[2*radius:2*radius+n])

	return s.withValues(values), nil
}

func gaussianKernel(sigma float64, radius int) []float64 {
	k := make([]float64, 2*radius+1)
	for i := range k {
		x := float64(i-radius) / sigma
		k[i] = math.Exp(-0.5 * x * x)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k
}

func convolveFFT(a, b []float64) ([]float64, error) {
	outLen := len(a) + len(b) - 1
	fftSize := nextPowerOf2(outLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("absorbance: failed to create FFT plan: %w", err)
	}

	aPadded := make([]complex128, fftSize)
	bPadded := make([]complex128, fftSize)
	for i, v := range a {
		aPadded[i] = complex(v, 0)
	}
	for i, v := range b {
		bPadded[i] = complex(v, 0)
	}

	aFreq := make([]complex128, fftSize)
	bFreq := make([]complex128, fftSize)
	if err := plan.Forward(aFreq, aPadded); err != nil {
		return nil, fmt.Errorf("absorbance: forward FFT failed: %w", err)
	}
	if err := plan.Forward(bFreq, bPadded); err != nil {
		return nil, fmt.Errorf("absorbance: forward FFT failed: %w", err)
	}

	for i := range aFreq {
		aFreq[i] *= bFreq[i]
	}

	result := make([]complex128, fftSize)
	if err := plan.Inverse(result, aFreq); err != nil {
		return nil, fmt.Errorf("absorbance: inverse FFT failed: %w", err)
	}

	out := make([]float64, outLen)
	for i := range out {
		out[i] = real(result[i])
	}

	return out, nil
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
