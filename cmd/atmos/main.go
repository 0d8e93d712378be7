// Command atmos runs the differential GNSS and spectral concentration
// pipelines from the command line.
//
// Usage:
//
//	atmos [global flags] <command> [flags]
//
// Examples:
//
//	atmos simulate --scenario scenario.yaml --out measurements.csv
//	atmos dd --measurements measurements.csv --baselines BRUX:WSRT --min-elevation 15
//	atmos conc --spectrum spectrum.csv --lines lines.yaml --path-length 100 --combine
//	atmos lines --lines lines.yaml --molecule O2
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-atmos/internal/config"
	"github.com/cwbudde/algo-atmos/internal/logging"
)

var (
	configPath  string
	verbose     bool
	dbPath      string
	metricsFile string
	traceSpans  bool

	cfg    = config.Default()
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "atmos",
	Short: "Differential GNSS and spectral absorption processing",
	Long: `atmos computes double-differenced GNSS observables over receiver
baselines and estimates gas concentrations from absorbance spectra by
Beer-Lambert inversion against an absorption-line database.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "YAML configuration file")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&dbPath, "db", "", "SQLite file to store results in")
	pf.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	pf.BoolVar(&traceSpans, "trace", false, "print OpenTelemetry spans to stderr")

	rootCmd.AddCommand(ddCmd, concCmd, linesCmd, simulateCmd)
}

// setup loads the configuration, applies global flag overrides and builds
// the logger.
func setup(cmd *cobra.Command, _ []string) error {
	c := config.Default()
	if configPath != "" {
		var err error
		if c, err = config.Load(configPath); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		c.Output.Database = dbPath
	}
	if flags.Changed("metrics-file") {
		c.Output.MetricsFile = metricsFile
	}
	if flags.Changed("trace") {
		c.Output.Trace = traceSpans
	}
	cfg = c

	l, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Verbose: verbose})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
