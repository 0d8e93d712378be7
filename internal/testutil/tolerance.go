// Package testutil holds assertion helpers and deterministic synthetic data
// shared by package tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireSliceNearlyEqual fails t unless got and want have the same length
// and every element pair is within eps. The first offending index is
// reported.
func RequireSliceNearlyEqual(t testing.TB, got, want []float64, eps float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range got {
		require.InDeltaf(t, want[i], got[i], eps, "index %d", i)
	}
}

// RequireFinite fails t if any value is NaN or Inf.
func RequireFinite(t testing.TB, values ...float64) {
	t.Helper()
	for i, v := range values {
		require.Falsef(t, math.IsNaN(v) || math.IsInf(v, 0), "value %d is not finite: %v", i, v)
	}
}

// RelativeError returns |got-want|/|want|, or |got| when want is zero.
func RelativeError(got, want float64) float64 {
	if want == 0 {
		return math.Abs(got)
	}
	return math.Abs(got-want) / math.Abs(want)
}
