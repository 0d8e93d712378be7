package differencing_test

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/gnss/observation"
)

func ExampleComputeDoubleDifferences() {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	obs := func(rx observation.ReceiverID, tx observation.TransmitterID, pr, el float64) observation.Measurement {
		return observation.Measurement{
			Receiver: rx, Transmitter: tx, Epoch: at,
			Pseudorange: pr, CarrierPhase: pr * 4, Frequency: 4 * observation.SpeedOfLight,
			SignalStrength: 45, Elevation: el,
		}
	}

	ms := []observation.Measurement{
		obs("A", "G01", 21_000_010, 70), obs("A", "G02", 22_000_030, 40),
		obs("B", "G01", 21_000_000, 70), obs("B", "G02", 22_000_000, 40),
	}

	res, err := differencing.ComputeDoubleDifferences(ms, []differencing.Baseline{{A: "A", B: "B"}})
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, dd := range res.Differences {
		fmt.Printf("%s %s-%s %s %.1f\n", dd.Baseline, dd.Satellites.Other, dd.Satellites.Reference, dd.Observable, dd.Value)
	}
	// Output:
	// A-B G02-G01 pseudorange 20.0
	// A-B G02-G01 carrier_phase 20.0
}
