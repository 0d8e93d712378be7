package concentration

import (
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/spectro/profile"
)

// Option configures an Estimator.
type Option func(*config)

type config struct {
	profile     profile.Type
	windowScale float64
	conditions  Conditions
	concurrency int
	logger      *zap.Logger
}

func defaultConfig() config {
	return config{
		profile:     profile.TypeGaussian,
		windowScale: 1,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      zap.NewNop(),
	}
}

// WithProfile selects the line-shape weighting used to average absorbance.
func WithProfile(t profile.Type) Option {
	return func(c *config) {
		c.profile = t
	}
}

// WithWindowScale widens (>1) or narrows (<1) the averaging window relative
// to the FWHM window. The scale must be finite and > 0.
func WithWindowScale(scale float64) Option {
	return func(c *config) {
		c.windowScale = scale
	}
}

// WithConditions sets the sample's total pressure (Pa) and temperature (K),
// enabling ppm calibration.
func WithConditions(pressurePa, temperatureK float64) Option {
	return func(c *config) {
		c.conditions = Conditions{PressurePa: pressurePa, TemperatureK: temperatureK}
	}
}

// WithConcurrency bounds the number of lines evaluated in parallel.
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
	if !(c.windowScale > 0) || math.IsInf(c.windowScale, 0) {
		return fmt.Errorf("%w: window scale must be finite and > 0: %g", ErrInvalidInput, c.windowScale)
	}
	return c.conditions.validate()
}
