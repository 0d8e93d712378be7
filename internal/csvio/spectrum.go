package csvio

import (
	"errors"
	"fmt"
	"io"

	"github.com/cwbudde/algo-atmos/spectro/absorbance"
)

// ReadSpectrum parses a wavelength_nm,absorbance file and validates the
// result.
func ReadSpectrum(r io.Reader) (absorbance.Spectrum, error) {
	cr := newReader(r)
	h, err := readHeader(cr, "wavelength_nm", "absorbance")
	if err != nil {
		return nil, err
	}

	var wl, values []float64
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		line, _ := cr.FieldPos(0)

		x, err := h.float(row, line, "wavelength_nm")
		if err != nil {
			return nil, err
		}
		y, err := h.float(row, line, "absorbance")
		if err != nil {
			return nil, err
		}
		wl = append(wl, x)
		values = append(values, y)
	}

	s, err := absorbance.FromSlices(wl, values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return s, nil
}

// WriteSpectrum writes s with the standard header.
func WriteSpectrum(w io.Writer, s absorbance.Spectrum) error {
	return writeAll(w, []string{"wavelength_nm", "absorbance"}, func(emit func([]string) error) error {
		for _, p := range s {
			if err := emit([]string{formatFloat(p.Wavelength), formatFloat(p.Absorbance)}); err != nil {
				return err
			}
		}
		return nil
	})
}
