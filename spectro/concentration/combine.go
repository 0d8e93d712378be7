package concentration

import (
	"math"
	"sort"
)

// Combined is a per-molecule concentration merged from per-line estimates.
type Combined struct {
	Molecule         string
	ConcentrationPPM float64
	UncertaintyPPM   float64
	Lines            int
	Flags            Flag
}

// CombineByMolecule merges estimates of the same molecule by inverse-variance
// weighting. Estimates with zero uncertainty dominate (their plain mean is
// used); unbounded estimates carry no weight unless every estimate of the
// molecule is unbounded, in which case the plain mean is reported with +Inf
// uncertainty. Output is sorted by molecule.
func CombineByMolecule(estimates []Estimate) []Combined {
	groups := make(map[string][]Estimate)
	for _, e := range estimates {
		groups[e.Molecule] = append(groups[e.Molecule], e)
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Combined, 0, len(names))
	for _, name := range names {
		out = append(out, combine(name, groups[name]))
	}

	return out
}

func combine(molecule string, group []Estimate) Combined {
	c := Combined{Molecule: molecule, Lines: len(group)}

	var exact, all []float64
	var sumW, sumWC float64
	for _, e := range group {
		c.Flags |= e.Flags & FlagUncalibrated
		all = append(all, e.ConcentrationPPM)

		switch u := e.UncertaintyPPM; {
		case u == 0:
			exact = append(exact, e.ConcentrationPPM)
		case !math.IsInf(u, 1):
			w := 1 / (u * u)
			sumW += w
			sumWC += w * e.ConcentrationPPM
		}
	}

	switch {
	case len(exact) > 0:
		c.ConcentrationPPM = mean(exact)
	case sumW > 0:
		c.ConcentrationPPM = sumWC / sumW
		c.UncertaintyPPM = 1 / math.Sqrt(sumW)
	default:
		c.ConcentrationPPM = mean(all)
		c.UncertaintyPPM = math.Inf(1)
		c.Flags |= FlagUnboundedUncertainty
	}

	return c
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
