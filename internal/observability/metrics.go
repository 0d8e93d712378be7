// Package observability bundles the Prometheus counters and OpenTelemetry
// tracing used by the atmos command.
package observability

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/spectro/concentration"
)

// Collector holds the pipeline counters, registered against a private
// registry so repeated runs in one process never collide.
type Collector struct {
	registry *prometheus.Registry

	DoubleDifferences *prometheus.CounterVec
	Exclusions        prometheus.Counter
	Gaps              prometheus.Counter
	Estimates         *prometheus.CounterVec
	OmittedLines      prometheus.Counter
	StageDurations    *prometheus.HistogramVec
}

// NewCollector creates a Collector on a fresh registry.
func NewCollector() (*Collector, error) {
	reg := prometheus.NewRegistry()

	dds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atmos_double_differences_total",
		Help: "Double differences produced, labeled by observable.",
	}, []string{"observable"})
	exclusions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atmos_elevation_exclusions_total",
		Help: "Transmitters dropped by the elevation mask, per baseline and epoch.",
	})
	gaps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atmos_differencing_gaps_total",
		Help: "Baseline/epoch combinations with fewer than two usable common transmitters.",
	})
	estimates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atmos_concentration_estimates_total",
		Help: "Concentration estimates produced, labeled by molecule and calibration state.",
	}, []string{"molecule", "calibrated"})
	omitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atmos_lines_omitted_total",
		Help: "Database lines with no spectral samples in their window.",
	})
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atmos_stage_duration_seconds",
		Help:    "Wall time of each pipeline stage in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60},
	}, []string{"stage"})

	for name, c := range map[string]prometheus.Collector{
		"atmos_double_differences_total":      dds,
		"atmos_elevation_exclusions_total":    exclusions,
		"atmos_differencing_gaps_total":       gaps,
		"atmos_concentration_estimates_total": estimates,
		"atmos_lines_omitted_total":           omitted,
		"atmos_stage_duration_seconds":        durations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}

	return &Collector{
		registry:          reg,
		DoubleDifferences: dds,
		Exclusions:        exclusions,
		Gaps:              gaps,
		Estimates:         estimates,
		OmittedLines:      omitted,
		StageDurations:    durations,
	}, nil
}

// Gatherer exposes the private registry.
func (c *Collector) Gatherer() prometheus.Gatherer {
	return c.registry
}

// RecordDifferencing counts the output of one differencing run.
func (c *Collector) RecordDifferencing(res differencing.Result) {
	if c == nil {
		return
	}
	for _, dd := range res.Differences {
		c.DoubleDifferences.WithLabelValues(dd.Observable.String()).Inc()
	}
	c.Exclusions.Add(float64(res.ExcludedCount()))
	c.Gaps.Add(float64(len(res.Gaps)))
}

// RecordConcentration counts estimates and the lines omitted for lack of
// samples.
func (c *Collector) RecordConcentration(estimates []concentration.Estimate, omitted int) {
	if c == nil {
		return
	}
	for _, e := range estimates {
		c.Estimates.WithLabelValues(e.Molecule, strconv.FormatBool(e.Calibrated())).Inc()
	}
	if omitted > 0 {
		c.OmittedLines.Add(float64(omitted))
	}
}

// ObserveStage records the duration of a named stage in seconds.
func (c *Collector) ObserveStage(stage string, seconds float64) {
	if c == nil {
		return
	}
	c.StageDurations.WithLabelValues(stage).Observe(seconds)
}

// WriteTextfile writes all metrics in the Prometheus text format, suitable
// for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
