package testutil

import (
	"math"
	"testing"
)

func TestWavelengthGridIsExact(t *testing.T) {
	g := wavelengthGrid(740, 780, 0.1)
	if len(g) != 401 {
		t.Fatalf("len = %d, want 401", len(g))
	}
	if g[190] != 759 || g[210] != 761 || g[400] != 780 {
		t.Fatalf("grid not exact: %v %v %v", g[190], g[210], g[400])
	}
}

func TestGaussianPeakSpectrum(t *testing.T) {
	s := GaussianPeakSpectrum(750, 770, 0.5, 760, 2, 0.8)
	if err := s.Validate(); err != nil {
		t.Fatalf("invalid spectrum: %v", err)
	}
	peak := s[20]
	if peak.Wavelength != 760 || peak.Absorbance != 0.8 {
		t.Fatalf("peak = %+v, want 760 nm / 0.8", peak)
	}
	if math.Abs(s[18].Absorbance-0.4) > 1e-12 {
		t.Fatalf("half max = %v, want 0.4", s[18].Absorbance)
	}
}

func TestDeterministicNoiseReproducible(t *testing.T) {
	a := DeterministicNoise(42, 0.1, 64)
	b := DeterministicNoise(42, 0.1, 64)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic at index %d", i)
		}
		if math.Abs(a[i]) > 0.1 {
			t.Fatalf("a[%d] = %v out of range", i, a[i])
		}
	}
}
