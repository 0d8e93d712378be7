package differencing

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/gnss/observation"
)

const defaultMinElevation = 10.0

// Option configures a Processor.
type Option func(*config)

type config struct {
	minElevation   float64
	policy         ReferencePolicy
	reference      observation.TransmitterID
	epochTolerance time.Duration
	concurrency    int
	logger         *zap.Logger
}

func defaultConfig() config {
	return config{
		minElevation: defaultMinElevation,
		policy:       ReferenceHighestElevation,
		concurrency:  runtime.GOMAXPROCS(0),
		logger:       zap.NewNop(),
	}
}

// WithMinElevation sets the elevation mask in degrees, within [-90, 90].
// Transmitters below it at either receiver are excluded and reported.
func WithMinElevation(deg float64) Option {
	return func(c *config) {
		c.minElevation = deg
	}
}

// WithReferencePolicy sets how the reference transmitter is chosen.
func WithReferencePolicy(p ReferencePolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithReference fixes the reference transmitter (ReferenceFixed).
func WithReference(tx observation.TransmitterID) Option {
	return func(c *config) {
		c.policy = ReferenceFixed
		c.reference = tx
	}
}

// WithEpochTolerance rounds measurement timestamps to multiples of d before
// grouping. Zero disables rounding.
func WithEpochTolerance(d time.Duration) Option {
	return func(c *config) {
		c.epochTolerance = d
	}
}

// WithConcurrency bounds the number of baseline/epoch jobs run in parallel.
func WithConcurrency(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c config) validate() error {
	if !(c.minElevation >= -90 && c.minElevation <= 90) {
		return fmt.Errorf("%w: elevation mask must be within [-90, 90] degrees: %g", ErrInvalidInput, c.minElevation)
	}
	if c.epochTolerance < 0 {
		return fmt.Errorf("%w: negative epoch tolerance %v", ErrInvalidInput, c.epochTolerance)
	}
	if _, ok := policyNames[c.policy]; !ok {
		return fmt.Errorf("%w: %v", ErrInvalidInput, c.policy)
	}
	if c.policy == ReferenceFixed && strings.TrimSpace(string(c.reference)) == "" {
		return fmt.Errorf("%w: fixed reference policy needs a transmitter", ErrInvalidInput)
	}
	return nil
}
