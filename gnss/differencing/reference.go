package differencing

import (
	"fmt"
	"strings"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// ReferencePolicy selects the reference transmitter of a baseline/epoch.
type ReferencePolicy int

const (
	// ReferenceHighestElevation picks the transmitter with the highest
	// baseline elevation (least atmospheric path), then highest C/N0.
	ReferenceHighestElevation ReferencePolicy = iota
	// ReferenceHighestSignal picks the highest mean C/N0, then elevation.
	ReferenceHighestSignal
	// ReferenceFixed uses a configured transmitter, falling back to the
	// highest elevation when it is not usable.
	ReferenceFixed
)

var policyNames = map[ReferencePolicy]string{
	ReferenceHighestElevation: "elevation",
	ReferenceHighestSignal:    "signal",
	ReferenceFixed:            "fixed",
}

func (p ReferencePolicy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return fmt.Sprintf("ReferencePolicy(%d)", int(p))
}

// ParseReferencePolicy resolves a policy name.
func ParseReferencePolicy(s string) (ReferencePolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, n := range policyNames {
		if n == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown reference policy %q", ErrInvalidInput, s)
}

// selectReference returns the index of the reference within candidates.
// Ties always resolve to the lexically smallest transmitter ID so the choice
// is deterministic.
func selectReference(candidates []SingleDifference, policy ReferencePolicy, fixed observation.TransmitterID) (int, bool) {
	fallback := false
	if policy == ReferenceFixed {
		for i, sd := range candidates {
			if sd.Transmitter == fixed {
				return i, false
			}
		}
		policy = ReferenceHighestElevation
		fallback = true
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if better(candidates[i], candidates[best], policy) {
			best = i
		}
	}
	return best, fallback
}

func better(a, b SingleDifference, policy ReferencePolicy) bool {
	primaryA, primaryB := a.Elevation, b.Elevation
	secondaryA, secondaryB := a.SignalStrength, b.SignalStrength
	if policy == ReferenceHighestSignal {
		primaryA, primaryB = secondaryA, secondaryB
		secondaryA, secondaryB = a.Elevation, b.Elevation
	}

	switch {
	case primaryA != primaryB:
		return primaryA > primaryB
	case secondaryA != secondaryB:
		return secondaryA > secondaryB
	default:
		return a.Transmitter < b.Transmitter
	}
}
