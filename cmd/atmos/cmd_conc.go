package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/internal/csvio"
	"github.com/cwbudde/algo-atmos/spectro/absorbance"
	"github.com/cwbudde/algo-atmos/spectro/concentration"
	"github.com/cwbudde/algo-atmos/spectro/lines"
	"github.com/cwbudde/algo-atmos/spectro/profile"
)

var concFlags struct {
	spectrum       string
	lines          string
	pathLength     float64
	pressure       float64
	temperature    float64
	profile        string
	windowScale    float64
	smooth         float64
	baselineDegree int
	combine        bool
	concurrency    int
	out            string
}

var concCmd = &cobra.Command{
	Use:   "conc",
	Short: "Estimate gas concentrations from an absorbance spectrum",
	Long: `Inverts the Beer-Lambert law for every database line with spectral samples
inside its window (center +/- FWHM/2, scaled by --window-scale). Lines without
samples produce no estimate.

With --pressure and --temperature the result is in ppm via the ideal gas law;
otherwise estimates are flagged uncalibrated and given in mol/L.

Example:
  atmos conc --spectrum s.csv --lines lines.yaml --path-length 100 --pressure 101325 --temperature 296`,
	Args: cobra.NoArgs,
	RunE: runConcentration,
}

func init() {
	f := concCmd.Flags()
	f.StringVarP(&concFlags.spectrum, "spectrum", "s", "", "spectrum CSV file (required)")
	f.StringVarP(&concFlags.lines, "lines", "l", "", "absorption-line database YAML (required)")
	f.Float64Var(&concFlags.pathLength, "path-length", 0, "optical path length in the line-strength length unit (required)")
	f.Float64Var(&concFlags.pressure, "pressure", 0, "total pressure in Pa")
	f.Float64Var(&concFlags.temperature, "temperature", 0, "temperature in K")
	f.StringVar(&concFlags.profile, "profile", "gaussian", "window weighting: gaussian, lorentzian or rectangular")
	f.Float64Var(&concFlags.windowScale, "window-scale", 1, "window width in multiples of the line FWHM")
	f.Float64Var(&concFlags.smooth, "smooth", 0, "Gaussian smoothing sigma in samples (0 disables)")
	f.IntVar(&concFlags.baselineDegree, "baseline-degree", -1, "polynomial baseline degree to remove (-1 disables)")
	f.BoolVar(&concFlags.combine, "combine", false, "output one inverse-variance weighted row per molecule")
	f.IntVar(&concFlags.concurrency, "concurrency", 0, "parallel line jobs (default: GOMAXPROCS)")
	f.StringVarP(&concFlags.out, "out", "o", "", "output CSV file (default: stdout)")
	_ = concCmd.MarkFlagRequired("spectrum")
	_ = concCmd.MarkFlagRequired("lines")
	_ = concCmd.MarkFlagRequired("path-length")
}

// concSettings is the merged configuration of one conc run.
type concSettings struct {
	opts           []concentration.Option
	smooth         float64
	baselineDegree int
	windowScale    float64
}

// concentrationSettings merges configuration and explicitly set flags.
func concentrationSettings(cmd *cobra.Command) (concSettings, error) {
	c := cfg.Concentration
	flags := cmd.Flags()
	if flags.Changed("pressure") {
		c.PressurePa = concFlags.pressure
	}
	if flags.Changed("temperature") {
		c.TemperatureK = concFlags.temperature
	}
	if flags.Changed("profile") {
		c.Profile = concFlags.profile
	}
	if flags.Changed("window-scale") {
		c.WindowScale = concFlags.windowScale
	}
	if flags.Changed("smooth") {
		c.Smooth = concFlags.smooth
	}
	if flags.Changed("baseline-degree") {
		c.BaselineDegree = concFlags.baselineDegree
	}
	if flags.Changed("concurrency") {
		c.Concurrency = concFlags.concurrency
	}

	merged := cfg
	merged.Concentration = c
	if err := merged.Validate(); err != nil {
		return concSettings{}, err
	}

	shape, err := profile.Parse(c.Profile)
	if err != nil {
		return concSettings{}, err
	}

	opts := []concentration.Option{
		concentration.WithProfile(shape),
		concentration.WithWindowScale(c.WindowScale),
		concentration.WithConcurrency(c.Concurrency),
		concentration.WithLogger(logger),
	}
	if c.PressurePa != 0 || c.TemperatureK != 0 {
		opts = append(opts, concentration.WithConditions(c.PressurePa, c.TemperatureK))
	}

	return concSettings{
		opts:           opts,
		smooth:         c.Smooth,
		baselineDegree: c.BaselineDegree,
		windowScale:    c.WindowScale,
	}, nil
}

func runConcentration(cmd *cobra.Command, args []string) error {
	settings, err := concentrationSettings(cmd)
	if err != nil {
		return err
	}

	p, err := startPipeline(cmd.Context(), "conc", flagSummary(cmd))
	if err != nil {
		return err
	}
	defer p.finish()

	var spectrum absorbance.Spectrum
	var db *lines.Database
	if err := p.stage("read_inputs", func(context.Context) error {
		f, err := os.Open(concFlags.spectrum)
		if err != nil {
			return err
		}
		defer f.Close()
		if spectrum, err = csvio.ReadSpectrum(f); err != nil {
			return fmt.Errorf("%s: %w", concFlags.spectrum, err)
		}
		db, err = lines.LoadFile(concFlags.lines)
		return err
	}); err != nil {
		return err
	}

	if err := p.stage("preprocess", func(context.Context) error {
		return preprocess(&spectrum, db, settings)
	}); err != nil {
		return err
	}

	var estimates []concentration.Estimate
	if err := p.stage("estimate", func(context.Context) error {
		estimates, err = concentration.EstimateConcentrations(spectrum, db, concFlags.pathLength, settings.opts...)
		return err
	}); err != nil {
		return err
	}

	omitted := db.Len() - len(estimates)
	p.metrics.RecordConcentration(estimates, omitted)
	logger.Info("concentrations estimated",
		zap.Int("samples", len(spectrum)),
		zap.Int("lines", db.Len()),
		zap.Int("estimates", len(estimates)),
		zap.Int("omitted", omitted))

	if p.store != nil {
		if err := p.stage("store", func(ctx context.Context) error {
			return p.store.SaveEstimates(ctx, p.runID, estimates)
		}); err != nil {
			return err
		}
	}

	return p.stage("write", func(context.Context) error {
		out, closeOut, err := createOutput(concFlags.out)
		if err != nil {
			return err
		}
		if concFlags.combine {
			err = csvio.WriteCombined(out, concentration.CombineByMolecule(estimates))
		} else {
			err = csvio.WriteEstimates(out, estimates)
		}
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		return err
	})
}

// preprocess smooths the spectrum and removes a polynomial baseline fitted
// outside the line windows. Each excluded interval covers at least the
// estimator's averaging window and never less than center ± FWHM.
func preprocess(s *absorbance.Spectrum, db *lines.Database, settings concSettings) error {
	var err error
	if settings.smooth > 0 {
		if *s, err = absorbance.Smooth(*s, settings.smooth); err != nil {
			return err
		}
	}
	if settings.baselineDegree >= 0 {
		*s, err = absorbance.RemoveBaseline(*s, settings.baselineDegree, lineIntervals(db, settings.windowScale))
		if err != nil {
			return err
		}
	}
	return nil
}

// lineIntervals returns the spectral intervals occupied by the lines of db
// for an averaging window of windowScale FWHMs.
func lineIntervals(db *lines.Database, windowScale float64) []absorbance.Interval {
	out := make([]absorbance.Interval, 0, db.Len())
	for _, l := range db.Lines() {
		half := math.Max(windowScale*l.LineWidth/2, l.LineWidth)
		out = append(out, absorbance.Interval{
			Lo: l.CenterWavelength - half,
			Hi: l.CenterWavelength + half,
		})
	}
	return out
}
