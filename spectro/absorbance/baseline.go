package absorbance

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/mat"
)

// Interval is a closed wavelength range in nm.
type Interval struct {
	Lo, Hi float64
}

func (iv Interval) contains(wl float64) bool {
	return wl >= iv.Lo && wl <= iv.Hi
}

// RemoveBaseline fits a least-squares polynomial of the given degree to the
// samples outside every excluded interval and subtracts it from the whole
// spectrum. Excluded intervals are typically the absorption line windows so
// the fit only sees the continuum.
//
// Wavelengths are mapped to [-1, 1] before fitting to keep the Vandermonde
// system well conditioned.
func RemoveBaseline(s Spectrum, degree int, exclude []Interval) (Spectrum, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if degree < 0 {
		return nil, fmt.Errorf("absorbance: baseline degree must be >= 0: %d", degree)
	}
	if len(s) == 0 {
		return nil, nil
	}

	lo, hi := s[0].Wavelength, s[len(s)-1].Wavelength
	norm := func(wl float64) float64 {
		if hi == lo {
			return 0
		}
		return 2*(wl-lo)/(hi-lo) - 1
	}

	var xs, ys []float64
	for _, smp := range s {
		if excluded(smp.Wavelength, exclude) {
			continue
		}
		xs = append(xs, norm(smp.Wavelength))
		ys = append(ys, smp.Absorbance)
	}

	cols := degree + 1
	if len(xs) < cols {
		return nil, fmt.Errorf("%w: %d continuum samples cannot fit degree %d baseline",
			ErrInvalidSpectrum, len(xs), degree)
	}

	a := mat.NewDense(len(xs), cols, nil)
	for i, x := range xs {
		p := 1.0
		for j := 0; j < cols; j++ {
			a.Set(i, j, p)
			p *= x
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(a, mat.NewVecDense(len(ys), ys)); err != nil {
		return nil, fmt.Errorf("absorbance: baseline fit failed: %w", err)
	}

	baseline := make([]float64, len(s))
	for i, smp := range s {
		baseline[i] = evalPoly(coef.RawVector().Data, norm(smp.Wavelength))
	}

	values := s.Values()
	vecmath.ScaleBlock(baseline, baseline, -1)
	vecmath.AddBlockInPlace(values, baseline)

	return s.withValues(values), nil
}

func excluded(wl float64, exclude []Interval) bool {
	for _, iv := range exclude {
		if iv.contains(wl) {
			return true
		}
	}
	return false
}

// evalPoly evaluates c[0] + c[1] x + ... with Horner's scheme.
func evalPoly(c []float64, x float64) float64 {
	y := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		y = y*x + c[i]
	}
	return y
}
