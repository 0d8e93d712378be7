package concentration

import (
	"fmt"
	"math"
)

// GasConstant is the molar gas constant in J/(mol·K).
const GasConstant = 8.314462618

// Conditions are the sample's thermodynamic state. The zero value means
// unknown.
type Conditions struct {
	PressurePa   float64
	TemperatureK float64
}

// Known reports whether both pressure and temperature are set.
func (c Conditions) Known() bool {
	return c.PressurePa != 0 && c.TemperatureK != 0
}

func (c Conditions) validate() error {
	if c == (Conditions{}) {
		return nil
	}
	if !(c.PressurePa > 0) || math.IsInf(c.PressurePa, 0) {
		return fmt.Errorf("%w: pressure must be finite and > 0: %g Pa", ErrInvalidInput, c.PressurePa)
	}
	if !(c.TemperatureK > 0) || math.IsInf(c.TemperatureK, 0) {
		return fmt.Errorf("%w: temperature must be finite and > 0: %g K", ErrInvalidInput, c.TemperatureK)
	}
	return nil
}

// TotalMolarConcentration returns n/V = P/(R·T) in mol/L.
func (c Conditions) TotalMolarConcentration() float64 {
	return c.PressurePa / (GasConstant * c.TemperatureK) / 1000
}
