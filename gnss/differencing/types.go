package differencing

import (
	"fmt"
	"strings"
	"time"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// Observable selects the measurement being differenced.
type Observable int

const (
	ObservablePseudorange Observable = iota
	ObservableCarrierPhase
)

func (o Observable) String() string {
	switch o {
	case ObservablePseudorange:
		return "pseudorange"
	case ObservableCarrierPhase:
		return "carrier_phase"
	default:
		return fmt.Sprintf("Observable(%d)", int(o))
	}
}

// ParseObservable resolves the String form of an Observable.
func ParseObservable(s string) (Observable, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pseudorange":
		return ObservablePseudorange, nil
	case "carrier_phase":
		return ObservableCarrierPhase, nil
	default:
		return 0, fmt.Errorf("%w: unknown observable %q", ErrInvalidInput, s)
	}
}

// Baseline is an ordered receiver pair.
type Baseline struct {
	A, B observation.ReceiverID
}

func (b Baseline) String() string {
	return string(b.A) + "-" + string(b.B)
}

// ParseBaseline parses "A:B" or "A-B".
func ParseBaseline(s string) (Baseline, error) {
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = "-"
	}
	a, b, ok := strings.Cut(s, sep)
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !ok || a == "" || b == "" {
		return Baseline{}, fmt.Errorf("%w: baseline %q must be RECEIVER:RECEIVER", ErrInvalidInput, s)
	}
	return Baseline{A: observation.ReceiverID(a), B: observation.ReceiverID(b)}, nil
}

// SatellitePair names the reference and the differenced transmitter.
type SatellitePair struct {
	Reference, Other observation.TransmitterID
}

// DoubleDifference is one double-differenced observable in metres.
type DoubleDifference struct {
	Baseline   Baseline
	Satellites SatellitePair
	Epoch      time.Time
	Observable Observable
	Value      float64 // m
}

// SingleDifference is the between-receiver difference (A − B) of both
// observables for one transmitter, in metres.
type SingleDifference struct {
	Baseline     Baseline
	Transmitter  observation.TransmitterID
	Epoch        time.Time
	Pseudorange  float64
	CarrierPhase float64
	// Elevation is the lower of the two receivers' elevations, in degrees.
	Elevation float64
	// SignalStrength is the mean C/N0 of the two receivers, in dB-Hz.
	SignalStrength float64
}

func (sd SingleDifference) value(o Observable) float64 {
	if o == ObservableCarrierPhase {
		return sd.CarrierPhase
	}
	return sd.Pseudorange
}

// Exclusion records a transmitter dropped by the elevation mask.
type Exclusion struct {
	Baseline    Baseline
	Epoch       time.Time
	Transmitter observation.TransmitterID
	Elevation   float64
}

// Gap records a baseline/epoch with too few common transmitters.
type Gap struct {
	Baseline Baseline
	Epoch    time.Time
	// Common is the number of usable common transmitters (0 or 1).
	Common int
}

// Reference records the reference transmitter chosen for a baseline/epoch.
type Reference struct {
	Baseline    Baseline
	Epoch       time.Time
	Transmitter observation.TransmitterID
}

// Result is the output of a differencing run.
type Result struct {
	Differences []DoubleDifference
	References  []Reference
	Excluded    []Exclusion
	Gaps        []Gap
}

// ExcludedCount returns the number of elevation-masked transmitters.
func (r Result) ExcludedCount() int { return len(r.Excluded) }
