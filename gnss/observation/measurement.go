package observation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// SpeedOfLight in vacuum, m/s.
const SpeedOfLight = 299792458.0

// ErrInvalidMeasurement reports a malformed or inconsistent measurement.
var ErrInvalidMeasurement = errors.New("observation: invalid measurement")

// ReceiverID identifies a ground receiver.
type ReceiverID string

// TransmitterID identifies a ranging transmitter, e.g. "G07".
type TransmitterID string

// Measurement is one observation of a transmitter at one receiver and epoch.
type Measurement struct {
	Receiver    ReceiverID
	Transmitter TransmitterID
	Epoch       time.Time

	Pseudorange  float64 // m
	CarrierPhase float64 // cycles
	Frequency    float64 // Hz, nominal carrier of both observables

	SignalStrength float64 // C/N0, dB-Hz
	Elevation      float64 // deg
	Azimuth        float64 // deg
}

// Wavelength returns the carrier wavelength in metres.
func (m Measurement) Wavelength() float64 {
	return SpeedOfLight / m.Frequency
}

// CarrierPhaseMetres returns the carrier phase expressed as a range.
func (m Measurement) CarrierPhaseMetres() float64 {
	return m.CarrierPhase * m.Wavelength()
}

// Validate checks identifiers, finiteness, and geometry bounds.
func (m Measurement) Validate() error {
	if strings.TrimSpace(string(m.Receiver)) == "" {
		return fmt.Errorf("%w: empty receiver id", ErrInvalidMeasurement)
	}
	if strings.TrimSpace(string(m.Transmitter)) == "" {
		return fmt.Errorf("%w: empty transmitter id", ErrInvalidMeasurement)
	}
	if m.Epoch.IsZero() {
		return fmt.Errorf("%w: %s/%s has zero epoch", ErrInvalidMeasurement, m.Receiver, m.Transmitter)
	}
	if !(m.Frequency > 0) || math.IsInf(m.Frequency, 0) {
		return fmt.Errorf("%w: %s/%s frequency must be > 0: %g Hz",
			ErrInvalidMeasurement, m.Receiver, m.Transmitter, m.Frequency)
	}
	for name, v := range map[string]float64{
		"pseudorange":     m.Pseudorange,
		"carrier phase":   m.CarrierPhase,
		"signal strength": m.SignalStrength,
		"azimuth":         m.Azimuth,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s/%s %s not finite: %v", ErrInvalidMeasurement, m.Receiver, m.Transmitter, name, v)
		}
	}
	if !(m.Elevation >= -90 && m.Elevation <= 90) {
		return fmt.Errorf("%w: %s/%s elevation out of range: %g deg",
			ErrInvalidMeasurement, m.Receiver, m.Transmitter, m.Elevation)
	}
	return nil
}
