package profile

import (
	"errors"
	"fmt"
	"math"
)

var errUnknownType = errors.New("unknown profile type")

func validateWidth(fwhm float64) error {
	if !(fwhm > 0) || math.IsInf(fwhm, 0) {
		return fmt.Errorf("profile FWHM must be finite and > 0: %g", fwhm)
	}
	return nil
}
