package csvio

import (
	"io"
	"strconv"
	"time"

	"github.com/cwbudde/algo-atmos/gnss/differencing"
	"github.com/cwbudde/algo-atmos/spectro/concentration"
)

// WriteDoubleDifferences writes one row per double difference.
func WriteDoubleDifferences(w io.Writer, dds []differencing.DoubleDifference) error {
	head := []string{"receiver_a", "receiver_b", "reference", "other", "epoch", "observable", "value_m"}
	return writeAll(w, head, func(emit func([]string) error) error {
		for _, dd := range dds {
			if err := emit([]string{
				string(dd.Baseline.A),
				string(dd.Baseline.B),
				string(dd.Satellites.Reference),
				string(dd.Satellites.Other),
				dd.Epoch.UTC().Format(time.RFC3339Nano),
				dd.Observable.String(),
				formatFloat(dd.Value),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteTripleDifferences writes one row per triple difference.
func WriteTripleDifferences(w io.Writer, tds []differencing.TripleDifference) error {
	head := []string{"receiver_a", "receiver_b", "reference", "other", "from", "to", "observable", "value_m"}
	return writeAll(w, head, func(emit func([]string) error) error {
		for _, td := range tds {
			if err := emit([]string{
				string(td.Baseline.A),
				string(td.Baseline.B),
				string(td.Satellites.Reference),
				string(td.Satellites.Other),
				td.From.UTC().Format(time.RFC3339Nano),
				td.To.UTC().Format(time.RFC3339Nano),
				td.Observable.String(),
				formatFloat(td.Value),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteEstimates writes one row per line estimate. The unit column is
// "ppm" for calibrated estimates and "mol/L" otherwise; an unbounded
// uncertainty is written as +Inf.
func WriteEstimates(w io.Writer, estimates []concentration.Estimate) error {
	head := []string{"molecule", "center_nm", "concentration", "uncertainty", "unit", "samples", "flags"}
	return writeAll(w, head, func(emit func([]string) error) error {
		for _, e := range estimates {
			if err := emit([]string{
				e.Molecule,
				formatFloat(e.CenterWavelength),
				formatFloat(e.ConcentrationPPM),
				formatFloat(e.UncertaintyPPM),
				unit(e.Flags),
				strconv.Itoa(e.Samples),
				e.Flags.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCombined writes one row per molecule.
func WriteCombined(w io.Writer, combined []concentration.Combined) error {
	head := []string{"molecule", "concentration", "uncertainty", "unit", "lines", "flags"}
	return writeAll(w, head, func(emit func([]string) error) error {
		for _, c := range combined {
			if err := emit([]string{
				c.Molecule,
				formatFloat(c.ConcentrationPPM),
				formatFloat(c.UncertaintyPPM),
				unit(c.Flags),
				strconv.Itoa(c.Lines),
				c.Flags.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func unit(f concentration.Flag) string {
	if f.Has(concentration.FlagUncalibrated) {
		return "mol/L"
	}
	return "ppm"
}
