package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// WGS-84 ellipsoid.
const (
	SemiMajorAxis = 6378137.0         // m
	Flattening    = 1 / 298.257223563
)

var (
	eccSq       = Flattening * (2 - Flattening)
	semiMinorAx = SemiMajorAxis * (1 - Flattening)
)

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi

	maxIterations = 10
)

// Geodetic is a WGS-84 position.
type Geodetic struct {
	LatDeg  float64 `yaml:"lat_deg" json:"lat_deg"`
	LonDeg  float64 `yaml:"lon_deg" json:"lon_deg"`
	HeightM float64 `yaml:"height_m" json:"height_m"`
}

// ECEF returns the Earth-centred, Earth-fixed position in metres.
func (g Geodetic) ECEF() r3.Vec {
	lat, lon := g.LatDeg*deg2rad, g.LonDeg*deg2rad
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	n := SemiMajorAxis / math.Sqrt(1-eccSq*sinLat*sinLat)

	return r3.Vec{
		X: (n + g.HeightM) * cosLat * cosLon,
		Y: (n + g.HeightM) * cosLat * sinLon,
		Z: (n*(1-eccSq) + g.HeightM) * sinLat,
	}
}

// FromECEF converts an ECEF position back to geodetic coordinates. The
// latitude is refined by fixed-point iteration, which converges in a few
// steps from the ground up to GNSS orbit heights.
func FromECEF(p r3.Vec) Geodetic {
	lon := math.Atan2(p.Y, p.X)
	rho := math.Hypot(p.X, p.Y)

	if rho == 0 {
		return Geodetic{LatDeg: math.Copysign(90, p.Z), HeightM: math.Abs(p.Z) - semiMinorAx}
	}

	lat := math.Atan2(p.Z, rho*(1-eccSq))
	for range maxIterations {
		sinLat := math.Sin(lat)
		n := SemiMajorAxis / math.Sqrt(1-eccSq*sinLat*sinLat)
		next := math.Atan2(p.Z+eccSq*n*sinLat, rho)
		if math.Abs(next-lat) < 1e-15 {
			lat = next
			break
		}
		lat = next
	}

	sinLat, cosLat := math.Sincos(lat)
	n := SemiMajorAxis / math.Sqrt(1-eccSq*sinLat*sinLat)

	var h float64
	if math.Abs(cosLat) > 1e-10 {
		h = rho/cosLat - n
	} else {
		h = math.Abs(p.Z)/math.Abs(sinLat) - n*(1-eccSq)
	}

	return Geodetic{LatDeg: lat * rad2deg, LonDeg: lon * rad2deg, HeightM: h}
}

// Look is the direction and distance from a receiver to a target.
type Look struct {
	Elevation float64 // deg, 0 = local horizon, 90 = zenith
	Azimuth   float64 // deg clockwise from north, [0, 360)
	Range     float64 // m
}

// ENU rotates the vector from receiver to target into the receiver's local
// east/north/up frame.
func ENU(receiver, target r3.Vec) r3.Vec {
	g := FromECEF(receiver)
	lat, lon := g.LatDeg*deg2rad, g.LonDeg*deg2rad
	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	d := r3.Sub(target, receiver)

	east := r3.Vec{X: -sinLon, Y: cosLon}
	north := r3.Vec{X: -sinLat * cosLon, Y: -sinLat * sinLon, Z: cosLat}
	up := r3.Vec{X: cosLat * cosLon, Y: cosLat * sinLon, Z: sinLat}

	return r3.Vec{X: r3.Dot(d, east), Y: r3.Dot(d, north), Z: r3.Dot(d, up)}
}

// LookAngles returns the elevation, azimuth, and range of target as seen
// from receiver, relative to the ellipsoid normal at the receiver.
func LookAngles(receiver, target r3.Vec) Look {
	enu := ENU(receiver, target)
	rng := r3.Norm(enu)
	if rng == 0 {
		return Look{Elevation: 90}
	}

	el := math.Asin(clamp(enu.Z/rng, -1, 1)) * rad2deg
	az := math.Atan2(enu.X, enu.Y) * rad2deg
	if az < 0 {
		az += 360
	}

	return Look{Elevation: el, Azimuth: az, Range: rng}
}

// Distance returns the straight-line distance between two ECEF points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
