package simulate

import (
	"fmt"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"
)

// motion reports a transmitter's ECEF position in metres.
type motion interface {
	position(t time.Time) (r3.Vec, error)
}

type staticMotion struct {
	pos r3.Vec
}

func (m staticMotion) position(time.Time) (r3.Vec, error) {
	return m.pos, nil
}

// sgp4Motion propagates a two-line element set. go-satellite works in
// kilometres and whole seconds.
type sgp4Motion struct {
	sat satellite.Satellite
}

const tleLineLength = 69

func newSGP4Motion(line1, line2 string) (*sgp4Motion, error) {
	line1, line2 = strings.TrimRight(line1, " \r\n"), strings.TrimRight(line2, " \r\n")
	if len(line1) < tleLineLength || len(line2) < tleLineLength {
		return nil, fmt.Errorf("%w: TLE lines must be %d characters", ErrInvalidScenario, tleLineLength)
	}
	if !strings.HasPrefix(line1, "1 ") || !strings.HasPrefix(line2, "2 ") {
		return nil, fmt.Errorf("%w: TLE lines must start with \"1 \" and \"2 \"", ErrInvalidScenario)
	}
	if line1[2:7] != line2[2:7] {
		return nil, fmt.Errorf("%w: TLE catalogue numbers differ: %q vs %q", ErrInvalidScenario, line1[2:7], line2[2:7])
	}

	return &sgp4Motion{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}, nil
}

func (m *sgp4Motion) position(t time.Time) (r3.Vec, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, minute, sec := t.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, minute, sec)
	jd := satellite.JDay(year, int(month), day, hour, minute, sec)
	posECEF := satellite.ECIToECEF(posECI, satellite.ThetaG_JD(jd))

	const kmToM = 1000.0
	p := r3.Vec{X: posECEF.X * kmToM, Y: posECEF.Y * kmToM, Z: posECEF.Z * kmToM}
	if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
		return r3.Vec{}, fmt.Errorf("%w: SGP4 propagation failed at %s", ErrInvalidScenario, t.Format(time.RFC3339))
	}

	return p, nil
}
