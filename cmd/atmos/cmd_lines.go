package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-atmos/spectro/lines"
)

var linesFlags struct {
	lines    string
	molecule string
	lo, hi   float64
}

var linesCmd = &cobra.Command{
	Use:   "lines",
	Short: "List the lines of an absorption-line database",
	Example: `  atmos lines --lines lines.yaml
  atmos lines --lines lines.yaml --molecule O2
  atmos lines --lines lines.yaml --from 700 --to 800`,
	Args: cobra.NoArgs,
	RunE: runLines,
}

func init() {
	f := linesCmd.Flags()
	f.StringVarP(&linesFlags.lines, "lines", "l", "", "absorption-line database YAML (required)")
	f.StringVar(&linesFlags.molecule, "molecule", "", "only lines of this molecule")
	f.Float64Var(&linesFlags.lo, "from", 0, "lowest center wavelength in nm")
	f.Float64Var(&linesFlags.hi, "to", 0, "highest center wavelength in nm (0: no limit)")
	_ = linesCmd.MarkFlagRequired("lines")
}

func runLines(cmd *cobra.Command, args []string) error {
	db, err := lines.LoadFile(linesFlags.lines)
	if err != nil {
		return err
	}
	return printLines(cmd.OutOrStdout(), selectLines(db))
}

func selectLines(db *lines.Database) []lines.AbsorptionLine {
	var selected []lines.AbsorptionLine
	if linesFlags.molecule != "" {
		selected = db.ByMolecule(linesFlags.molecule)
	} else {
		selected = db.Lines()
	}

	if linesFlags.lo == 0 && linesFlags.hi == 0 {
		return selected
	}
	hi := linesFlags.hi
	if hi == 0 {
		hi = 1e300
	}
	var out []lines.AbsorptionLine
	for _, l := range selected {
		if l.CenterWavelength >= linesFlags.lo && l.CenterWavelength <= hi {
			out = append(out, l)
		}
	}
	return out
}

func printLines(w io.Writer, ls []lines.AbsorptionLine) error {
	if w == nil {
		w = os.Stdout
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintf(tw, "Molecule\tCenter [nm]\tStrength\tFWHM [nm]\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	if _, err := fmt.Fprintf(tw, "--------\t-----------\t--------\t---------\n"); err != nil {
		return fmt.Errorf("failed to write output header: %w", err)
	}
	for _, l := range ls {
		if _, err := fmt.Fprintf(tw, "%s\t%.4f\t%.6g\t%.4f\n",
			l.Molecule, l.CenterWavelength, l.LineStrength, l.LineWidth); err != nil {
			return fmt.Errorf("failed to write output row: %w", err)
		}
	}
	return tw.Flush()
}
