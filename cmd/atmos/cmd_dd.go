package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/gnss/observation"
	"github.com/cwbudde/algo-atmos/internal/csvio"
)

var ddFlags struct {
	measurements    string
	baselines       []string
	minElevation    float64
	referencePolicy string
	reference       string
	epochTolerance  time.Duration
	concurrency     int
	triple          bool
	slipThreshold   float64
	out             string
}

var ddCmd = &cobra.Command{
	Use:   "dd",
	Short: "Compute double differences from a measurement CSV",
	Long: `Forms between-receiver, between-transmitter double differences of the
pseudorange and carrier phase for every baseline and epoch.

Transmitters below the elevation mask at either receiver are excluded and
counted. Baseline/epochs with fewer than two usable common transmitters are
reported as gaps. Without --baselines every receiver pair is used.

Example:
  atmos dd --measurements m.csv --baselines BRUX:WSRT --reference-policy signal`,
	Args: cobra.NoArgs,
	RunE: runDoubleDifferences,
}

func init() {
	f := ddCmd.Flags()
	f.StringVarP(&ddFlags.measurements, "measurements", "m", "", "measurement CSV file (required)")
	f.StringSliceVarP(&ddFlags.baselines, "baselines", "b", nil, "receiver pairs as A:B (default: all pairs)")
	f.Float64Var(&ddFlags.minElevation, "min-elevation", 10, "elevation mask in degrees")
	f.StringVar(&ddFlags.referencePolicy, "reference-policy", "elevation", "reference selection: elevation, signal or fixed")
	f.StringVar(&ddFlags.reference, "reference", "", "fixed reference transmitter (implies --reference-policy fixed)")
	f.DurationVar(&ddFlags.epochTolerance, "epoch-tolerance", 0, "round timestamps to this multiple before grouping")
	f.IntVar(&ddFlags.concurrency, "concurrency", 0, "parallel baseline/epoch jobs (default: GOMAXPROCS)")
	f.BoolVar(&ddFlags.triple, "triple", false, "output epoch-to-epoch triple differences instead")
	f.Float64Var(&ddFlags.slipThreshold, "slip-threshold", 0.05, "carrier-phase triple difference in metres reported as a cycle slip")
	f.StringVarP(&ddFlags.out, "out", "o", "", "output CSV file (default: stdout)")
	_ = ddCmd.MarkFlagRequired("measurements")
}

// differencingOptions merges configuration and explicitly set flags.
func differencingOptions(cmd *cobra.Command) ([]differencing.Option, error) {
	d := cfg.Differencing
	flags := cmd.Flags()
	if flags.Changed("min-elevation") {
		d.MinElevation = ddFlags.minElevation
	}
	if flags.Changed("reference-policy") {
		d.ReferencePolicy = ddFlags.referencePolicy
	}
	if flags.Changed("concurrency") {
		d.Concurrency = ddFlags.concurrency
	}
	if flags.Changed("reference") {
		d.Reference = ddFlags.reference
	}

	merged := cfg
	merged.Differencing = d
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	policy, err := differencing.ParseReferencePolicy(d.ReferencePolicy)
	if err != nil {
		return nil, err
	}

	tolerance := cfg.GetEpochTolerance()
	if flags.Changed("epoch-tolerance") {
		tolerance = ddFlags.epochTolerance
	}

	opts := []differencing.Option{
		differencing.WithMinElevation(d.MinElevation),
		differencing.WithReferencePolicy(policy),
		differencing.WithEpochTolerance(tolerance),
		differencing.WithConcurrency(d.Concurrency),
		differencing.WithLogger(logger),
	}

	if d.Reference != "" || policy == differencing.ReferenceFixed {
		opts = append(opts, differencing.WithReference(observation.TransmitterID(d.Reference)))
	}

	return opts, nil
}

func runDoubleDifferences(cmd *cobra.Command, args []string) error {
	opts, err := differencingOptions(cmd)
	if err != nil {
		return err
	}

	p, err := startPipeline(cmd.Context(), "dd", flagSummary(cmd))
	if err != nil {
		return err
	}
	defer p.finish()

	var ms []observation.Measurement
	if err := p.stage("read_measurements", func(context.Context) error {
		f, err := os.Open(ddFlags.measurements)
		if err != nil {
			return err
		}
		defer f.Close()
		ms, err = csvio.ReadMeasurements(f)
		if err != nil {
			return fmt.Errorf("%s: %w", ddFlags.measurements, err)
		}
		return nil
	}); err != nil {
		return err
	}

	baselines := make([]differencing.Baseline, 0, len(ddFlags.baselines))
	for _, s := range ddFlags.baselines {
		b, err := differencing.ParseBaseline(s)
		if err != nil {
			return err
		}
		baselines = append(baselines, b)
	}
	if len(baselines) == 0 {
		baselines = differencing.AllBaselines(ms)
	}

	var res differencing.Result
	if err := p.stage("differencing", func(context.Context) error {
		res, err = differencing.ComputeDoubleDifferences(ms, baselines, opts...)
		return err
	}); err != nil {
		return err
	}
	p.metrics.RecordDifferencing(res)

	logger.Info("double differences computed",
		zap.Int("measurements", len(ms)),
		zap.Int("baselines", len(baselines)),
		zap.Int("differences", len(res.Differences)),
		zap.Int("excluded", res.ExcludedCount()),
		zap.Int("gaps", len(res.Gaps)))
	for _, g := range res.Gaps {
		logger.Debug("differencing gap",
			zap.Stringer("baseline", g.Baseline),
			zap.Time("epoch", g.Epoch),
			zap.Int("common", g.Common))
	}

	var triples []differencing.TripleDifference
	if ddFlags.triple {
		triples = differencing.TripleDifferences(res.Differences)
		for _, slip := range differencing.CycleSlips(triples, ddFlags.slipThreshold) {
			logger.Warn("possible cycle slip",
				zap.Stringer("baseline", slip.Baseline),
				zap.String("reference", string(slip.Satellites.Reference)),
				zap.String("transmitter", string(slip.Satellites.Other)),
				zap.Time("from", slip.From),
				zap.Time("to", slip.To),
				zap.Float64("value_m", slip.Value))
		}
	}

	if p.store != nil {
		if err := p.stage("store", func(ctx context.Context) error {
			return p.store.SaveDoubleDifferences(ctx, p.runID, res.Differences)
		}); err != nil {
			return err
		}
	}

	return p.stage("write", func(context.Context) error {
		out, closeOut, err := createOutput(ddFlags.out)
		if err != nil {
			return err
		}
		if ddFlags.triple {
			err = csvio.WriteTripleDifferences(out, triples)
		} else {
			err = csvio.WriteDoubleDifferences(out, res.Differences)
		}
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		return err
	})
}
