package profile

import (
	"errors"
	"math"
	"testing"
)

func TestWeightPeaksAtCenter(t *testing.T) {
	for _, typ := range []Type{TypeGaussian, TypeLorentzian, TypeRectangular} {
		t.Run(typ.String(), func(t *testing.T) {
			if got := Weight(typ, 0, 2); got != 1 {
				t.Fatalf("center weight = %v, want 1", got)
			}
		})
	}
}

func TestWeightAtHalfWidth(t *testing.T) {
	for _, typ := range []Type{TypeGaussian, TypeLorentzian, TypeRectangular} {
		t.Run(typ.String(), func(t *testing.T) {
			got := Weight(typ, 1, 2)
			want := Info(typ).EdgeWeight
			if math.Abs(got-want) > 1e-12 {
				t.Fatalf("weight at FWHM/2 = %v, want %v", got, want)
			}
		})
	}
}

func TestWeightSymmetricAndDecaying(t *testing.T) {
	for _, typ := range []Type{TypeGaussian, TypeLorentzian} {
		t.Run(typ.String(), func(t *testing.T) {
			prev := 1.0
			for _, off := range []float64{0.25, 0.5, 1, 2, 4} {
				right := Weight(typ, off, 2)
				left := Weight(typ, -off, 2)
				if right != left {
					t.Fatalf("asymmetric at %v: %v vs %v", off, left, right)
				}
				if right >= prev {
					t.Fatalf("not decaying at %v: %v >= %v", off, right, prev)
				}
				prev = right
			}
		})
	}
}

func TestGaussianHasLighterWingsThanLorentzian(t *testing.T) {
	if Weight(TypeGaussian, 3, 2) >= Weight(TypeLorentzian, 3, 2) {
		t.Fatal("expected Gaussian wing below Lorentzian wing")
	}
}

func TestGenerate(t *testing.T) {
	w, err := Generate(TypeGaussian, []float64{759, 760, 761}, 760, 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(w) != 3 || w[1] != 1 || math.Abs(w[0]-0.5) > 1e-12 || math.Abs(w[2]-0.5) > 1e-12 {
		t.Fatalf("unexpected weights %v", w)
	}
}

func TestGenerateValidation(t *testing.T) {
	if _, err := Generate(TypeGaussian, []float64{1}, 1, 0); err == nil {
		t.Error("expected error for zero FWHM")
	}
	if _, err := Generate(TypeGaussian, []float64{1}, 1, math.Inf(1)); err == nil {
		t.Error("expected error for infinite FWHM")
	}
	if _, err := Generate(Type(42), []float64{1}, 1, 1); !errors.Is(err, errUnknownType) {
		t.Errorf("expected errUnknownType, got %v", err)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Type{
		"gaussian":     TypeGaussian,
		" Lorentzian ": TypeLorentzian,
		"RECTANGULAR":  TypeRectangular,
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil || got != want {
			t.Errorf("Parse(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := Parse("voigt"); !errors.Is(err, errUnknownType) {
		t.Errorf("expected errUnknownType, got %v", err)
	}
}

func TestWindowWeightsFarWings(t *testing.T) {
	// A FWHM of 1 puts 730 nm about 70 sigma from the center, where the
	// plain Gaussian underflows to zero.
	if w := Weight(TypeGaussian, -30, 1); w != 0 {
		t.Fatalf("expected underflow, got %v", w)
	}

	w, err := WindowWeights(TypeGaussian, []float64{730, 731}, 760, 1)
	if err != nil {
		t.Fatalf("WindowWeights: %v", err)
	}
	if w[1] != 1 {
		t.Fatalf("nearest sample weight = %v, want 1", w[1])
	}
	if !(w[0] >= MinWindowWeight) || w[0] >= w[1] {
		t.Fatalf("far sample weight = %v, want within [%v, 1)", w[0], MinWindowWeight)
	}

	w, err = WindowWeights(TypeGaussian, []float64{730, 760}, 760, 1)
	if err != nil {
		t.Fatalf("WindowWeights: %v", err)
	}
	if w[0] != MinWindowWeight || w[1] != 1 {
		t.Fatalf("unexpected weights %v", w)
	}
}

func TestWindowWeightsMatchGenerateNearCenter(t *testing.T) {
	wls := []float64{758.5, 759, 759.5, 760, 760.5, 761, 761.5}
	for _, typ := range []Type{TypeGaussian, TypeLorentzian, TypeRectangular} {
		t.Run(typ.String(), func(t *testing.T) {
			want, err := Generate(typ, wls, 760, 2)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			got, err := WindowWeights(typ, wls, 760, 2)
			if err != nil {
				t.Fatalf("WindowWeights: %v", err)
			}
			for i := range want {
				if math.Abs(got[i]-want[i]) > 1e-12 {
					t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
				}
			}
		})
	}
}

func TestWindowWeightsValidation(t *testing.T) {
	if _, err := WindowWeights(TypeGaussian, []float64{1}, 1, 0); err == nil {
		t.Error("expected error for zero FWHM")
	}
	if _, err := WindowWeights(Type(42), []float64{1}, 1, 1); !errors.Is(err, errUnknownType) {
		t.Errorf("expected errUnknownType, got %v", err)
	}
}
