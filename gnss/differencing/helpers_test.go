package differencing

import (
	"time"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// exactFrequency gives a 0.25 m wavelength so cycle/metre conversions are
// exact in float64.
const exactFrequency = observation.SpeedOfLight * 4

var epoch0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type sat struct {
	id        observation.TransmitterID
	elevation float64
	cn0       float64
	clockBias float64 // m
}

type rcv struct {
	id        observation.ReceiverID
	clockBias float64 // m
}

// geometricRange returns a deterministic, exactly representable range for a
// receiver/transmitter pair.
func geometricRange(r rcv, s sat) float64 {
	h := 0
	for _, c := range string(r.id) + "/" + string(s.id) {
		h = h*31 + int(c)
	}
	return 20_000_000 + float64(h%1_000_000) + 0.125
}

// buildMeasurements produces one epoch of measurements with additive clock
// biases applied to both observables.
func buildMeasurements(at time.Time, rcvs []rcv, sats []sat) []observation.Measurement {
	var out []observation.Measurement
	for _, r := range rcvs {
		for _, s := range sats {
			rng := geometricRange(r, s) + r.clockBias + s.clockBias
			out = append(out, observation.Measurement{
				Receiver:       r.id,
				Transmitter:    s.id,
				Epoch:          at,
				Pseudorange:    rng,
				CarrierPhase:   rng / 0.25,
				Frequency:      exactFrequency,
				SignalStrength: s.cn0,
				Elevation:      s.elevation,
				Azimuth:        90,
			})
		}
	}
	return out
}

func fourSatellites() []sat {
	return []sat{
		{id: "G01", elevation: 35, cn0: 44},
		{id: "G07", elevation: 80, cn0: 48},
		{id: "G12", elevation: 22, cn0: 40},
		{id: "G19", elevation: 55, cn0: 50},
	}
}

func valuesOf(dds []DoubleDifference) []float64 {
	out := make([]float64, len(dds))
	for i, dd := range dds {
		out[i] = dd.Value
	}
	return out
}
