package projection

import (
	"math"

	"github.com/golang/geo/r3"
)

// PlanePoint is a point on the light's image plane. Z keeps the sphere z
// (angular mode) or its scaled depth (direct mode).
type PlanePoint struct {
	I, J, Z float64
}

// Finite reports whether both plane coordinates are usable.
func (p PlanePoint) Finite() bool {
	return finite(p.I) && finite(p.J)
}

// Projector casts sphere points from a light on the +x axis onto a plane
// perpendicular to the x axis. The zero value is not usable; use NewProjector.
type Projector struct {
	lightToSphere float64
	lightToImage  float64
	threshold     float64
	mode          Mode
}

// NewProjector builds a projector from cfg. cfg is assumed validated.
func NewProjector(cfg Config) Projector {
	return Projector{
		lightToSphere: cfg.LightToSphere,
		lightToImage:  cfg.LightToImage,
		threshold:     cfg.Threshold(),
		mode:          cfg.Mode,
	}
}

// Mode returns the plane formula in use.
func (pr Projector) Mode() Mode {
	return pr.mode
}

// Threshold returns the visibility cutoff in sphere units.
func (pr Projector) Threshold() float64 {
	return pr.threshold
}

// Visible reports whether p passes the visibility cutoff. A point exactly on
// the cutoff is visible.
func (pr Projector) Visible(p r3.Vector) bool {
	return !(p.X > pr.threshold)
}

// Project casts p onto the image plane. ok is false when p is behind the
// cutoff or the result is not finite.
func (pr Projector) Project(p r3.Vector) (pp PlanePoint, ok bool) {
	if !pr.Visible(p) {
		return PlanePoint{}, false
	}

	switch pr.mode {
	case ModeDirect:
		pp = ProjectDirect(p, pr.lightToSphere, pr.lightToImage)
	default:
		pp = ProjectAngular(p, pr.lightToSphere, pr.lightToImage)
	}

	if !pp.Finite() {
		return PlanePoint{}, false
	}
	return pp, true
}

// ProjectAngular applies the azimuthal light projection with no visibility
// test. The sign(z) factor on I keeps the two polar caps on opposite sides
// of the plane.
func ProjectAngular(p r3.Vector, lightToSphere, lightToImage float64) PlanePoint {
	distCenter := math.Sqrt(p.Y*p.Y + p.Z*p.Z)
	distProj := distCenter / (lightToSphere - p.X) * lightToImage
	theta := math.Atan2(p.Y, p.Z)

	return PlanePoint{
		I: math.Cos(theta) * distProj * sign(p.Z),
		J: math.Sin(theta) * distProj,
		Z: p.Z,
	}
}

// ProjectDirect scales every component by lightToImage/(lightToSphere - x)
// with no visibility test.
func ProjectDirect(p r3.Vector, lightToSphere, lightToImage float64) PlanePoint {
	depth := lightToSphere - p.X
	return PlanePoint{
		I: p.X / depth * lightToImage,
		J: p.Y / depth * lightToImage,
		Z: p.Z / depth * lightToImage,
	}
}

// sign returns -1, 0 or 1. NaN stays NaN.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return v
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
