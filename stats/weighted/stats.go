// Package weighted provides single-pass weighted mean and variance
// statistics for sample windows with non-uniform weights.
package weighted

import (
	"errors"
	"math"
)

var (
	errMismatchedLength = errors.New("values and weights must have same length")
	errNegativeWeight   = errors.New("weights must be >= 0")
)

// Stats holds weighted window statistics.
type Stats struct {
	Count          int     // samples with non-zero weight
	SumWeights     float64 // V1
	SumSqWeights   float64 // V2
	Mean           float64
	Variance       float64 // unbiased, reliability weights
	StdDev         float64
	EffectiveCount float64 // Kish effective sample size V1^2 / V2
}

// Accumulator is a streaming weighted mean/variance accumulator using
// West's weighted extension of Welford's algorithm.
//
// The zero value is ready to use.
type Accumulator struct {
	count int
	sumW  float64
	sumW2 float64
	mean  float64
	m2    float64
}

// Add feeds one sample with the given weight. Zero weights are ignored.
// Negative or non-finite weights are ignored as well.
func (a *Accumulator) Add(x, w float64) {
	if !(w > 0) || math.IsInf(w, 0) {
		return
	}

	a.count++
	a.sumW += w
	a.sumW2 += w * w

	delta := x - a.mean
	a.mean += (w / a.sumW) * delta
	a.m2 += w * delta * (x - a.mean)
}

// Reset clears the accumulator.
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Result returns the statistics gathered so far.
//
// With fewer than two weighted samples the variance is +Inf: one sample
// carries no information about spread.
func (a *Accumulator) Result() Stats {
	if a.count == 0 {
		return Stats{Variance: math.Inf(1), StdDev: math.Inf(1)}
	}

	s := Stats{
		Count:          a.count,
		SumWeights:     a.sumW,
		SumSqWeights:   a.sumW2,
		Mean:           a.mean,
		EffectiveCount: a.sumW * a.sumW / a.sumW2,
	}

	denom := a.sumW - a.sumW2/a.sumW
	if a.count < 2 || denom <= 0 {
		s.Variance = math.Inf(1)
		s.StdDev = math.Inf(1)
		return s
	}

	s.Variance = math.Max(a.m2/denom, 0)
	s.StdDev = math.Sqrt(s.Variance)

	return s
}

// Calculate computes weighted statistics over values in a single pass.
// A nil weights slice means unit weights.
func Calculate(values, weights []float64) (Stats, error) {
	if weights != nil && len(weights) != len(values) {
		return Stats{}, errMismatchedLength
	}

	var acc Accumulator
	for i, x := range values {
		w := 1.0
		if weights != nil {
			w = weights[i]
			if w < 0 {
				return Stats{}, errNegativeWeight
			}
		}
		acc.Add(x, w)
	}

	return acc.Result(), nil
}
