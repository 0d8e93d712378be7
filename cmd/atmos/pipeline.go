package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/internal/observability"
	"github.com/cwbudde/algo-atmos/internal/store"
)

// pipeline carries the run-scoped sinks shared by the commands: metrics,
// tracing and the optional result store.
type pipeline struct {
	ctx      context.Context
	kind     string
	metrics  *observability.Collector
	store    *store.Store
	runID    uuid.UUID
	shutdown func(context.Context) error
	root     trace.Span
}

func startPipeline(ctx context.Context, kind string, args string) (*pipeline, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	metrics, err := observability.NewCollector()
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled: cfg.Output.Trace,
		Writer:  os.Stderr,
	}, logger)
	if err != nil {
		return nil, err
	}

	ctx, root := observability.Tracer().Start(ctx, kind)
	p := &pipeline{ctx: ctx, kind: kind, metrics: metrics, shutdown: shutdown, root: root}

	if cfg.Output.Database != "" {
		st, err := store.Open(cfg.Output.Database)
		if err != nil {
			p.finish()
			return nil, err
		}
		p.store = st
		if p.runID, err = st.BeginRun(ctx, kind, args); err != nil {
			p.finish()
			return nil, err
		}
		root.SetAttributes(attribute.String("run_id", p.runID.String()))
		logger.Info("run started", zap.String("kind", kind), zap.Stringer("run_id", p.runID))
	}

	return p, nil
}

// stage runs fn inside a child span and records its duration.
func (p *pipeline) stage(name string, fn func(ctx context.Context) error) error {
	ctx, span := observability.Tracer().Start(p.ctx, name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	p.metrics.ObserveStage(name, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
	}
	return err
}

// finish flushes metrics, closes the store and ends tracing. Errors are
// logged, not returned.
func (p *pipeline) finish() {
	p.root.End()

	if cfg.Output.MetricsFile != "" {
		if err := p.metrics.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			logger.Warn("metrics not written", zap.Error(err))
		}
	}
	if p.store != nil {
		if err := p.store.Close(); err != nil {
			logger.Warn("closing result store failed", zap.Error(err))
		}
	}
	observability.ShutdownWithTimeout(context.Background(), p.shutdown, logger)
}

// flagSummary renders the explicitly set flags of cmd, recorded with each
// stored run.
func flagSummary(cmd *cobra.Command) string {
	var parts []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		parts = append(parts, "--"+f.Name+"="+f.Value.String())
	})
	return strings.Join(parts, " ")
}

// createOutput returns stdout for "" or "-", else a new file.
func createOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
