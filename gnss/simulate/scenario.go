package simulate

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-atmos/gnss/geometry"
	"github.com/cwbudde/algo-atmos/gnss/observation"
)

// ErrInvalidScenario reports a scenario that cannot be simulated.
var ErrInvalidScenario = errors.New("simulate: invalid scenario")

// GPS L1 carrier frequency.
const FrequencyL1 = 1575.42e6 // Hz

const (
	defaultSignalStrength = 45.0 // dB-Hz at zenith
	defaultInterval       = 30 * time.Second
	maxScenarioBytes      = 1 << 20
)

// Receiver is a ground station.
type Receiver struct {
	ID       observation.ReceiverID `yaml:"id"`
	Position geometry.Geodetic      `yaml:"position"`
	// ClockBias is the receiver clock offset at Scenario.Start, in metres.
	ClockBias float64 `yaml:"clock_bias_m"`
	// ClockDrift grows the clock offset linearly, in metres per second.
	ClockDrift float64 `yaml:"clock_drift_m_s"`
}

// Transmitter is a ranging source. Exactly one of Position, ECEF, or TLE
// places it.
type Transmitter struct {
	ID        observation.TransmitterID `yaml:"id"`
	Position  *geometry.Geodetic        `yaml:"position,omitempty"`
	ECEF      *[3]float64               `yaml:"ecef_m,omitempty"`
	TLE       []string                  `yaml:"tle,omitempty"`
	ClockBias float64                   `yaml:"clock_bias_m"`
	Frequency float64                   `yaml:"frequency_hz"`
	// Ambiguity is the integer carrier cycle offset added to every phase
	// measurement of this transmitter.
	Ambiguity int64 `yaml:"ambiguity_cycles"`
	// SignalStrength is the C/N0 at zenith in dB-Hz.
	SignalStrength float64 `yaml:"cn0_dbhz"`
}

// Scenario describes a simulation run.
type Scenario struct {
	Start    time.Time     `yaml:"start"`
	Interval time.Duration `yaml:"interval"`
	Epochs   int           `yaml:"epochs"`
	// ZenithDelay is the tropospheric delay at zenith in metres, mapped to
	// slant delay with 1/sin(elevation).
	ZenithDelay float64 `yaml:"zenith_delay_m"`
	// MinElevation drops transmitters below this elevation in degrees.
	MinElevation float64       `yaml:"min_elevation_deg"`
	Receivers    []Receiver    `yaml:"receivers"`
	Transmitters []Transmitter `yaml:"transmitters"`
}

func (sc *Scenario) applyDefaults() {
	if sc.Interval == 0 {
		sc.Interval = defaultInterval
	}
	if sc.Epochs == 0 {
		sc.Epochs = 1
	}
	for i := range sc.Transmitters {
		if sc.Transmitters[i].Frequency == 0 {
			sc.Transmitters[i].Frequency = FrequencyL1
		}
		if sc.Transmitters[i].SignalStrength == 0 {
			sc.Transmitters[i].SignalStrength = defaultSignalStrength
		}
	}
}

// Validate checks the scenario after defaults have been applied.
func (sc Scenario) Validate() error {
	if sc.Start.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidScenario)
	}
	if sc.Epochs < 1 || sc.Interval <= 0 {
		return fmt.Errorf("%w: need epochs >= 1 and interval > 0, got %d and %s",
			ErrInvalidScenario, sc.Epochs, sc.Interval)
	}
	if !finite(sc.ZenithDelay) || sc.ZenithDelay < 0 {
		return fmt.Errorf("%w: zenith delay must be >= 0: %g", ErrInvalidScenario, sc.ZenithDelay)
	}
	if sc.MinElevation < -90 || sc.MinElevation > 90 {
		return fmt.Errorf("%w: min elevation out of range: %g", ErrInvalidScenario, sc.MinElevation)
	}
	if len(sc.Receivers) == 0 || len(sc.Transmitters) == 0 {
		return fmt.Errorf("%w: need at least one receiver and one transmitter", ErrInvalidScenario)
	}

	seenRx := make(map[observation.ReceiverID]bool)
	for _, r := range sc.Receivers {
		if strings.TrimSpace(string(r.ID)) == "" || seenRx[r.ID] {
			return fmt.Errorf("%w: receiver id %q empty or duplicated", ErrInvalidScenario, r.ID)
		}
		seenRx[r.ID] = true
	}

	seenTx := make(map[observation.TransmitterID]bool)
	for _, tx := range sc.Transmitters {
		if strings.TrimSpace(string(tx.ID)) == "" || seenTx[tx.ID] {
			return fmt.Errorf("%w: transmitter id %q empty or duplicated", ErrInvalidScenario, tx.ID)
		}
		seenTx[tx.ID] = true

		placements := 0
		if tx.Position != nil {
			placements++
		}
		if tx.ECEF != nil {
			placements++
		}
		if len(tx.TLE) > 0 {
			placements++
		}
		if placements != 1 {
			return fmt.Errorf("%w: transmitter %s needs exactly one of position, ecef_m, tle", ErrInvalidScenario, tx.ID)
		}
		if len(tx.TLE) > 0 && len(tx.TLE) != 2 {
			return fmt.Errorf("%w: transmitter %s TLE needs 2 lines, got %d", ErrInvalidScenario, tx.ID, len(tx.TLE))
		}
		if !(tx.Frequency > 0) || !finite(tx.Frequency) {
			return fmt.Errorf("%w: transmitter %s frequency must be > 0: %g", ErrInvalidScenario, tx.ID, tx.Frequency)
		}
	}

	return nil
}

// Load decodes a YAML scenario and applies defaults.
func Load(r io.Reader) (Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("%w: decode: %w", ErrInvalidScenario, err)
	}

	sc.applyDefaults()
	if err := sc.Validate(); err != nil {
		return Scenario{}, err
	}

	return sc, nil
}

// LoadFile reads a YAML scenario from path.
func LoadFile(path string) (Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Scenario{}, err
	}
	if info.Size() > maxScenarioBytes {
		return Scenario{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidScenario, path, maxScenarioBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return Scenario{}, err
	}
	defer f.Close()

	return Load(f)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
