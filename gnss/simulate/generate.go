package simulate

import (
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cwbudde/algo-atmos/gnss/geometry"
	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// Option configures Generate.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// minMappingElevation caps the 1/sin(el) tropospheric mapping near the
// horizon.
const minMappingElevation = 3.0 // deg

// Generate simulates every epoch of sc and returns the measurements of all
// transmitters at or above the scenario's elevation mask, sorted by epoch,
// receiver, and transmitter.
func Generate(sc Scenario, opts ...Option) ([]observation.Measurement, error) {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	motions := make([]motion, len(sc.Transmitters))
	for i, tx := range sc.Transmitters {
		m, err := motionFor(tx)
		if err != nil {
			return nil, fmt.Errorf("transmitter %s: %w", tx.ID, err)
		}
		motions[i] = m
	}

	rxPos := make([]r3.Vec, len(sc.Receivers))
	for i, r := range sc.Receivers {
		rxPos[i] = r.Position.ECEF()
	}

	var out []observation.Measurement
	for e := 0; e < sc.Epochs; e++ {
		at := sc.Start.Add(time.Duration(e) * sc.Interval)
		elapsed := at.Sub(sc.Start).Seconds()

		for ti, tx := range sc.Transmitters {
			txPos, err := motions[ti].position(at)
			if err != nil {
				return nil, fmt.Errorf("transmitter %s: %w", tx.ID, err)
			}
			wavelength := observation.SpeedOfLight / tx.Frequency

			for ri, rx := range sc.Receivers {
				look := geometry.LookAngles(rxPos[ri], txPos)
				if look.Elevation < sc.MinElevation {
					continue
				}

				sinEl := math.Sin(math.Max(look.Elevation, minMappingElevation) * math.Pi / 180)
				slant := sc.ZenithDelay / sinEl
				rxBias := rx.ClockBias + rx.ClockDrift*elapsed
				rng := look.Range + rxBias - tx.ClockBias + slant

				out = append(out, observation.Measurement{
					Receiver:       rx.ID,
					Transmitter:    tx.ID,
					Epoch:          at,
					Pseudorange:    rng,
					CarrierPhase:   rng/wavelength + float64(tx.Ambiguity),
					Frequency:      tx.Frequency,
					SignalStrength: signalStrength(tx.SignalStrength, look.Elevation),
					Elevation:      look.Elevation,
					Azimuth:        look.Azimuth,
				})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case !a.Epoch.Equal(b.Epoch):
			return a.Epoch.Before(b.Epoch)
		case a.Receiver != b.Receiver:
			return a.Receiver < b.Receiver
		default:
			return a.Transmitter < b.Transmitter
		}
	})

	cfg.logger.Debug("generated measurements",
		zap.Int("epochs", sc.Epochs),
		zap.Int("receivers", len(sc.Receivers)),
		zap.Int("transmitters", len(sc.Transmitters)),
		zap.Int("measurements", len(out)))

	return out, nil
}

func motionFor(tx Transmitter) (motion, error) {
	switch {
	case tx.Position != nil:
		return staticMotion{pos: tx.Position.ECEF()}, nil
	case tx.ECEF != nil:
		return staticMotion{pos: r3.Vec{X: tx.ECEF[0], Y: tx.ECEF[1], Z: tx.ECEF[2]}}, nil
	default:
		return newSGP4Motion(tx.TLE[0], tx.TLE[1])
	}
}

// signalStrength lowers the zenith C/N0 by up to 10 dB towards the horizon.
func signalStrength(zenith, elevation float64) float64 {
	s := math.Sin(math.Max(elevation, 0) * math.Pi / 180)
	return zenith - 10*(1-s)
}
