// Package sphere maps geographic coordinates onto a sphere in 3D space.
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Radius presets.
const (
	EarthRadius = 6371.0 // km
	UnitRadius  = 1.0
)

// ToSphere converts longitude/latitude in degrees to a point on a sphere of
// the given radius. Longitude is measured in the x-y plane from +x, latitude
// is the elevation toward +z.
//
// Inputs are not range-checked.
func ToSphere(lon, lat, radius float64) r3.Vector {
	lonRad := (s1.Angle(lon) * s1.Degree).Radians()
	latRad := (s1.Angle(lat) * s1.Degree).Radians()

	cosLat := math.Cos(latRad)
	return r3.Vector{
		X: radius * cosLat * math.Cos(lonRad),
		Y: radius * cosLat * math.Sin(lonRad),
		Z: radius * math.Sin(latRad),
	}
}

// Mapper converts geographic coordinates for a fixed sphere radius.
type Mapper struct {
	Radius float64
}

// NewMapper creates a mapper for radius. A non-positive radius selects
// EarthRadius.
func NewMapper(radius float64) Mapper {
	if radius <= 0 {
		radius = EarthRadius
	}
	return Mapper{Radius: radius}
}

// Point maps lon/lat in degrees onto the mapper's sphere.
func (m Mapper) Point(lon, lat float64) r3.Vector {
	return ToSphere(lon, lat, m.Radius)
}
