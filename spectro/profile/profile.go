package profile

import (
	"fmt"
	"math"
	"strings"
)

// Type identifies a line-shape profile.
type Type int

const (
	TypeGaussian Type = iota
	TypeLorentzian
	TypeRectangular
)

// fwhmToSigma converts a Gaussian FWHM to its standard deviation.
var fwhmToSigma = 1 / (2 * math.Sqrt(2*math.Ln2))

// Metadata describes a profile type.
type Metadata struct {
	Name string
	// EdgeWeight is the weight at offset = FWHM/2.
	EdgeWeight float64
}

var metadataByType = map[Type]Metadata{
	TypeGaussian:    {Name: "gaussian", EdgeWeight: 0.5},
	TypeLorentzian:  {Name: "lorentzian", EdgeWeight: 0.5},
	TypeRectangular: {Name: "rectangular", EdgeWeight: 1},
}

// Info returns static metadata for a profile type.
func Info(t Type) Metadata {
	if m, ok := metadataByType[t]; ok {
		return m
	}

	return Metadata{}
}

// String returns the profile name.
func (t Type) String() string {
	if m, ok := metadataByType[t]; ok {
		return m.Name
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Parse resolves a profile name (case-insensitive).
func Parse(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, m := range metadataByType {
		if m.Name == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", errUnknownType, name)
}

// Weight evaluates the profile at offset from the line center for a line of
// the given full width at half maximum. Weights peak at 1 on the center.
func Weight(t Type, offset, fwhm float64) float64 {
	switch t {
	case TypeGaussian:
		sigma := fwhm * fwhmToSigma
		z := offset / sigma
		return math.Exp(-0.5 * z * z)
	case TypeLorentzian:
		hw := fwhm / 2
		return 1 / (1 + (offset/hw)*(offset/hw))
	case TypeRectangular:
		return 1
	default:
		return 0
	}
}

// Generate returns profile weights for each wavelength relative to center.
func Generate(t Type, wavelengths []float64, center, fwhm float64) ([]float64, error) {
	if err := validateWidth(fwhm); err != nil {
		return nil, err
	}
	if _, ok := metadataByType[t]; !ok {
		return nil, fmt.Errorf("%w: %d", errUnknownType, int(t))
	}

	out := make([]float64, len(wavelengths))
	for i, wl := range wavelengths {
		out[i] = Weight(t, wl-center, fwhm)
	}

	return out, nil
}

// MinWindowWeight is the smallest weight WindowWeights assigns to a sample.
const MinWindowWeight = 1e-12

// logWeight is the natural logarithm of Weight.
func logWeight(t Type, offset, fwhm float64) float64 {
	switch t {
	case TypeGaussian:
		z := offset / (fwhm * fwhmToSigma)
		return -0.5 * z * z
	case TypeLorentzian:
		r := offset / (fwhm / 2)
		return -math.Log1p(r * r)
	default:
		return 0
	}
}

// WindowWeights returns profile weights for the samples of an averaging
// window. Weights are evaluated in log space and scaled so the sample nearest
// the profile peak has weight 1, then floored at MinWindowWeight. Every
// sample therefore keeps a positive weight however far it lies in the wings.
func WindowWeights(t Type, wavelengths []float64, center, fwhm float64) ([]float64, error) {
	if err := validateWidth(fwhm); err != nil {
		return nil, err
	}
	if _, ok := metadataByType[t]; !ok {
		return nil, fmt.Errorf("%w: %d", errUnknownType, int(t))
	}

	out := make([]float64, len(wavelengths))
	peak := math.Inf(-1)
	for i, wl := range wavelengths {
		out[i] = logWeight(t, wl-center, fwhm)
		peak = math.Max(peak, out[i])
	}
	for i, lw := range out {
		out[i] = math.Max(math.Exp(lw-peak), MinWindowWeight)
	}

	return out, nil
}
