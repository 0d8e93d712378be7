package differencing

import (
	"math"
	"sort"
	"time"
)

// TripleDifference is the change of a double difference between two epochs.
type TripleDifference struct {
	Baseline   Baseline
	Satellites SatellitePair
	Observable Observable
	From, To   time.Time
	Value      float64 // m
}

type ddKey struct {
	baseline   Baseline
	satellites SatellitePair
	observable Observable
}

func (k ddKey) less(o ddKey) bool {
	switch {
	case k.baseline.A != o.baseline.A:
		return k.baseline.A < o.baseline.A
	case k.baseline.B != o.baseline.B:
		return k.baseline.B < o.baseline.B
	case k.satellites.Reference != o.satellites.Reference:
		return k.satellites.Reference < o.satellites.Reference
	case k.satellites.Other != o.satellites.Other:
		return k.satellites.Other < o.satellites.Other
	default:
		return k.observable < o.observable
	}
}

// TripleDifferences differences consecutive epochs of each (baseline,
// satellite pair, observable) series. A reference change breaks the series,
// because the pair key changes. The integer carrier ambiguity cancels, so
// a carrier-phase triple difference isolates epoch-to-epoch change plus any
// cycle slip.
//
// Output is sorted by series key, then by epoch.
func TripleDifferences(dds []DoubleDifference) []TripleDifference {
	series := make(map[ddKey][]DoubleDifference)
	for _, dd := range dds {
		k := ddKey{baseline: dd.Baseline, satellites: dd.Satellites, observable: dd.Observable}
		series[k] = append(series[k], dd)
	}

	keys := make([]ddKey, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	var out []TripleDifference
	for _, k := range keys {
		s := series[k]
		sort.SliceStable(s, func(i, j int) bool { return s[i].Epoch.Before(s[j].Epoch) })

		for i := 1; i < len(s); i++ {
			if s[i].Epoch.Equal(s[i-1].Epoch) {
				continue
			}
			out = append(out, TripleDifference{
				Baseline:   k.baseline,
				Satellites: k.satellites,
				Observable: k.observable,
				From:       s[i-1].Epoch,
				To:         s[i].Epoch,
				Value:      s[i].Value - s[i-1].Value,
			})
		}
	}

	return out
}

// CycleSlips returns the carrier-phase triple differences whose magnitude
// exceeds threshold metres.
func CycleSlips(tds []TripleDifference, threshold float64) []TripleDifference {
	var out []TripleDifference
	for _, td := range tds {
		if td.Observable == ObservableCarrierPhase && math.Abs(td.Value) > threshold {
			out = append(out, td)
		}
	}
	return out
}
