package lines

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// ErrInvalidLine reports a malformed absorption line.
var ErrInvalidLine = errors.New("lines: invalid absorption line")

// AbsorptionLine is one molecular absorption feature.
type AbsorptionLine struct {
	Molecule string `yaml:"molecule" json:"molecule"`
	// CenterWavelength in nm.
	CenterWavelength float64 `yaml:"center_nm" json:"center_nm"`
	// LineStrength is the molar absorptivity in L/(mol*cm).
	LineStrength float64 `yaml:"strength" json:"strength"`
	// LineWidth is the full width at half maximum in nm.
	LineWidth float64 `yaml:"width_nm" json:"width_nm"`
}

// Validate checks that the line is physically meaningful.
func (l AbsorptionLine) Validate() error {
	if strings.TrimSpace(l.Molecule) == "" {
		return fmt.Errorf("%w: molecule must not be empty", ErrInvalidLine)
	}
	if !positiveFinite(l.CenterWavelength) {
		return fmt.Errorf("%w: %s center wavelength must be > 0: %g", ErrInvalidLine, l.Molecule, l.CenterWavelength)
	}
	if !positiveFinite(l.LineStrength) {
		return fmt.Errorf("%w: %s line strength must be > 0: %g", ErrInvalidLine, l.Molecule, l.LineStrength)
	}
	if !positiveFinite(l.LineWidth) {
		return fmt.Errorf("%w: %s line width must be > 0: %g", ErrInvalidLine, l.Molecule, l.LineWidth)
	}
	return nil
}

func positiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// Database is an immutable, wavelength-sorted set of absorption lines.
type Database struct {
	lines []AbsorptionLine
}

// NewDatabase validates and copies the given lines into a new snapshot.
func NewDatabase(lines ...AbsorptionLine) (*Database, error) {
	out := make([]AbsorptionLine, len(lines))
	for i, l := range lines {
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		l.Molecule = strings.TrimSpace(l.Molecule)
		out[i] = l
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CenterWavelength < out[j].CenterWavelength
	})

	return &Database{lines: out}, nil
}

// With returns a new snapshot containing the receiver's lines plus extra.
func (d *Database) With(extra ...AbsorptionLine) (*Database, error) {
	all := make([]AbsorptionLine, 0, d.Len()+len(extra))
	if d != nil {
		all = append(all, d.lines...)
	}
	all = append(all, extra...)

	return NewDatabase(all...)
}

// Len returns the number of lines. A nil database is empty.
func (d *Database) Len() int {
	if d == nil {
		return 0
	}
	return len(d.lines)
}

// Lines returns a copy of all lines in ascending center wavelength.
func (d *Database) Lines() []AbsorptionLine {
	if d == nil {
		return nil
	}
	return append([]AbsorptionLine(nil), d.lines...)
}

// At returns the i-th line in wavelength order.
func (d *Database) At(i int) AbsorptionLine {
	return d.lines[i]
}

// Molecules returns the distinct molecule names, sorted.
func (d *Database) Molecules() []string {
	if d == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(d.lines))
	var out []string
	for _, l := range d.lines {
		if _, ok := seen[l.Molecule]; ok {
			continue
		}
		seen[l.Molecule] = struct{}{}
		out = append(out, l.Molecule)
	}
	sort.Strings(out)

	return out
}

// ByMolecule returns all lines of the named molecule (case-insensitive).
func (d *Database) ByMolecule(molecule string) []AbsorptionLine {
	if d == nil {
		return nil
	}

	var out []AbsorptionLine
	for _, l := range d.lines {
		if strings.EqualFold(l.Molecule, molecule) {
			out = append(out, l)
		}
	}

	return out
}

// InRange returns lines whose center lies in [lo, hi] nm.
func (d *Database) InRange(lo, hi float64) []AbsorptionLine {
	if d == nil || lo > hi {
		return nil
	}

	start := sort.Search(len(d.lines), func(i int) bool {
		return d.lines[i].CenterWavelength >= lo
	})

	var out []AbsorptionLine
	for i := start; i < len(d.lines) && d.lines[i].CenterWavelength <= hi; i++ {
		out = append(out, d.lines[i])
	}

	return out
}
