package absorbance

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrInvalidSpectrum reports an unordered, mismatched, or non-finite spectrum.
var ErrInvalidSpectrum = errors.New("absorbance: invalid spectrum")

// Sample is one wavelength bin of a measured spectrum.
type Sample struct {
	Wavelength float64 // nm
	Absorbance float64 // decadic absorbance, dimensionless
}

// Spectrum is an ordered sequence of samples with strictly increasing
// wavelengths.
type Spectrum []Sample

// FromSlices builds a spectrum from parallel wavelength and absorbance slices.
func FromSlices(wavelengths, values []float64) (Spectrum, error) {
	if len(wavelengths) != len(values) {
		return nil, fmt.Errorf("%w: %d wavelengths vs %d values", ErrInvalidSpectrum, len(wavelengths), len(values))
	}

	s := make(Spectrum, len(wavelengths))
	for i := range wavelengths {
		s[i] = Sample{Wavelength: wavelengths[i], Absorbance: values[i]}
	}

	return s, s.Validate()
}

// Validate checks ordering and finiteness.
func (s Spectrum) Validate() error {
	for i, smp := range s {
		if math.IsNaN(smp.Wavelength) || math.IsInf(smp.Wavelength, 0) {
			return fmt.Errorf("%w: wavelength[%d] not finite: %v", ErrInvalidSpectrum, i, smp.Wavelength)
		}
		if math.IsNaN(smp.Absorbance) || math.IsInf(smp.Absorbance, 0) {
			return fmt.Errorf("%w: absorbance[%d] not finite: %v", ErrInvalidSpectrum, i, smp.Absorbance)
		}
		if i > 0 && smp.Wavelength <= s[i-1].Wavelength {
			return fmt.Errorf("%w: wavelengths not strictly increasing at %d (%g <= %g)",
				ErrInvalidSpectrum, i, smp.Wavelength, s[i-1].Wavelength)
		}
	}
	return nil
}

// Wavelengths returns the wavelength column.
func (s Spectrum) Wavelengths() []float64 {
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.Wavelength
	}
	return out
}

// Values returns the absorbance column.
func (s Spectrum) Values() []float64 {
	out := make([]float64, len(s))
	for i, smp := range s {
		out[i] = smp.Absorbance
	}
	return out
}

// Window returns the sub-spectrum with wavelengths in [lo, hi]. The result
// aliases s.
func (s Spectrum) Window(lo, hi float64) Spectrum {
	if lo > hi {
		return nil
	}

	start := sort.Search(len(s), func(i int) bool { return s[i].Wavelength >= lo })
	end := sort.Search(len(s), func(i int) bool { return s[i].Wavelength > hi })
	if start >= end {
		return nil
	}

	return s[start:end]
}

func (s Spectrum) withValues(values []float64) Spectrum {
	out := make(Spectrum, len(s))
	for i := range s {
		out[i] = Sample{Wavelength: s[i].Wavelength, Absorbance: values[i]}
	}
	return out
}
