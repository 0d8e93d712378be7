package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-atmos/spectro/absorbance"
)

// wavelengthGrid returns lo, lo+step, ... up to hi inclusive, rounded to
// 1e-9 nm so that grid points land exactly on decimal wavelengths.
func wavelengthGrid(lo, hi, step float64) []float64 {
	n := int(math.Round((hi-lo)/step)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Round((lo+float64(i)*step)*1e9) / 1e9
	}
	return out
}

// FlatSpectrum returns a constant-absorbance spectrum on [lo, hi].
func FlatSpectrum(lo, hi, step, value float64) absorbance.Spectrum {
	grid := wavelengthGrid(lo, hi, step)
	s := make(absorbance.Spectrum, len(grid))
	for i, wl := range grid {
		s[i] = absorbance.Sample{Wavelength: wl, Absorbance: value}
	}
	return s
}

// GaussianPeakSpectrum returns a spectrum on [lo, hi] with a single Gaussian
// absorbance peak of the given FWHM and height.
func GaussianPeakSpectrum(lo, hi, step, center, fwhm, height float64) absorbance.Spectrum {
	sigma := fwhm / (2 * math.Sqrt(2*math.Ln2))
	grid := wavelengthGrid(lo, hi, step)
	s := make(absorbance.Spectrum, len(grid))
	for i, wl := range grid {
		z := (wl - center) / sigma
		s[i] = absorbance.Sample{Wavelength: wl, Absorbance: height * math.Exp(-0.5*z*z)}
	}
	return s
}

// DeterministicNoise generates uniform noise in [-amplitude, amplitude) with
// a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}
