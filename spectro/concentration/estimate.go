package concentration

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-atmos/spectro/absorbance"
	"github.com/cwbudde/algo-atmos/spectro/lines"
	"github.com/cwbudde/algo-atmos/spectro/profile"
	"github.com/cwbudde/algo-atmos/stats/weighted"
)

// ErrInvalidInput reports a caller error that aborts the whole call.
var ErrInvalidInput = errors.New("concentration: invalid input")

// Flag marks estimate quality.
type Flag uint8

const (
	// FlagUncalibrated: pressure/temperature unknown, values are mol/L.
	FlagUncalibrated Flag = 1 << iota
	// FlagUnboundedUncertainty: fewer than two samples, uncertainty is +Inf.
	FlagUnboundedUncertainty
)

// Has reports whether all bits of x are set.
func (f Flag) Has(x Flag) bool { return f&x == x }

func (f Flag) String() string {
	var parts []string
	if f.Has(FlagUncalibrated) {
		parts = append(parts, "uncalibrated")
	}
	if f.Has(FlagUnboundedUncertainty) {
		parts = append(parts, "unbounded")
	}
	return strings.Join(parts, "|")
}

// Estimate is the concentration derived from one absorption line.
type Estimate struct {
	Molecule         string
	CenterWavelength float64
	// ConcentrationPPM is in ppm, or mol/L when FlagUncalibrated is set.
	ConcentrationPPM float64
	// UncertaintyPPM shares the unit of ConcentrationPPM.
	UncertaintyPPM float64
	// Samples is the number of spectral samples in the line window.
	Samples int
	Flags   Flag
}

// Calibrated reports whether the estimate is in ppm.
func (e Estimate) Calibrated() bool { return !e.Flags.Has(FlagUncalibrated) }

// Estimator inverts absorbance spectra against a line database.
type Estimator struct {
	cfg config
}

// NewEstimator creates an estimator with the given options.
func NewEstimator(opts ...Option) *Estimator {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Estimator{cfg: cfg}
}

// EstimateConcentrations is a one-shot estimation using a fresh Estimator.
func EstimateConcentrations(spectrum absorbance.Spectrum, db *lines.Database, pathLength float64, opts ...Option) ([]Estimate, error) {
	return NewEstimator(opts...).Estimate(spectrum, db, pathLength)
}

// Estimate returns one estimate per database line that overlaps at least one
// spectral sample, in ascending center wavelength. pathLength is in cm.
func (e *Estimator) Estimate(spectrum absorbance.Spectrum, db *lines.Database, pathLength float64) ([]Estimate, error) {
	if !(pathLength > 0) || math.IsInf(pathLength, 0) {
		return nil, fmt.Errorf("%w: path length must be finite and > 0: %g", ErrInvalidInput, pathLength)
	}
	if db.Len() == 0 {
		return nil, fmt.Errorf("%w: absorption-line database is empty", ErrInvalidInput)
	}
	if err := spectrum.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := e.cfg.validate(); err != nil {
		return nil, err
	}
	if profile.Info(e.cfg.profile).Name == "" {
		return nil, fmt.Errorf("%w: unknown profile %v", ErrInvalidInput, e.cfg.profile)
	}

	slots := make([]*Estimate, db.Len())
	eval := func(i int) error {
		est, ok, err := e.estimateLine(spectrum, db.At(i), pathLength)
		if err != nil {
			return err
		}
		if ok {
			slots[i] = &est
		}
		return nil
	}

	if e.cfg.concurrency <= 1 || len(slots) < 2 {
		for i := range slots {
			if err := eval(i); err != nil {
				return nil, err
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(e.cfg.concurrency)
		for i := range slots {
			g.Go(func() error { return eval(i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	out := make([]Estimate, 0, len(slots))
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}

	return out, nil
}

func (e *Estimator) estimateLine(spectrum absorbance.Spectrum, line lines.AbsorptionLine, pathLength float64) (Estimate, bool, error) {
	half := e.cfg.windowScale * line.LineWidth / 2
	win := spectrum.Window(line.CenterWavelength-half, line.CenterWavelength+half)

	if len(win) == 0 {
		e.cfg.logger.Debug("line has no overlapping samples",
			zap.String("molecule", line.Molecule),
			zap.Float64("center_nm", line.CenterWavelength))
		return Estimate{}, false, nil
	}

	// Every sample in the window keeps a positive weight, so the statistics
	// cover all len(win) samples.
	weights, err := profile.WindowWeights(e.cfg.profile, win.Wavelengths(), line.CenterWavelength, line.LineWidth)
	if err != nil {
		return Estimate{}, false, fmt.Errorf("%w: %s at %g nm: %w", ErrInvalidInput, line.Molecule, line.CenterWavelength, err)
	}

	st, err := weighted.Calculate(win.Values(), weights)
	if err != nil {
		return Estimate{}, false, err
	}

	scale := 1 / (line.LineStrength * pathLength)

	est := Estimate{
		Molecule:         line.Molecule,
		CenterWavelength: line.CenterWavelength,
		ConcentrationPPM: st.Mean * scale,
		UncertaintyPPM:   st.StdDev * scale,
		Samples:          len(win),
	}

	if e.cfg.conditions.Known() {
		ppm := 1e6 / e.cfg.conditions.TotalMolarConcentration()
		est.ConcentrationPPM *= ppm
		est.UncertaintyPPM *= ppm
	} else {
		est.Flags |= FlagUncalibrated
	}

	if len(win) < 2 || math.IsInf(est.UncertaintyPPM, 1) {
		est.UncertaintyPPM = math.Inf(1)
		est.Flags |= FlagUnboundedUncertainty
		e.cfg.logger.Debug("uncertainty unbounded",
			zap.String("molecule", line.Molecule),
			zap.Float64("center_nm", line.CenterWavelength),
			zap.Int("samples", len(win)))
	}

	return est, true, nil
}
