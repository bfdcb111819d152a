// Package projection casts sphere points through a point light onto a flat
// image plane.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/globewarp/internal/sphere"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid projection config")

// Mode selects the plane formula.
type Mode int

const (
	// ModeAngular projects by distance from the optical axis and the azimuth
	// around it. Used for texture mapping.
	ModeAngular Mode = iota
	// ModeDirect divides every component by the depth from the light.
	ModeDirect
)

// String returns the config name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAngular:
		return "angular"
	case ModeDirect:
		return "direct"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeAngular && m != ModeDirect {
		return nil, fmt.Errorf("unknown projection mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "angular":
		*m = ModeAngular
	case "direct":
		*m = ModeDirect
	default:
		return fmt.Errorf("unknown projection mode %q", string(text))
	}
	return nil
}

// Config holds the projection geometry. Distances are in sphere units.
type Config struct {
	LightToSphere float64 `yaml:"light_to_sphere"` // light to sphere center
	LightToImage  float64 `yaml:"light_to_image"`  // light to image plane
	TextureSize   int     `yaml:"texture_size"`
	RadiusDisplay float64 `yaml:"radius_display"`

	// VisibilityCutoff is a fraction of RadiusDisplay. Points with a larger
	// x are dropped.
	VisibilityCutoff float64 `yaml:"visibility_cutoff"`

	// PlaneExtent is the half-width of the plane window mapped onto the
	// texture. Zero derives it from the geometry (see Extent).
	PlaneExtent float64 `yaml:"plane_extent"`

	Mode Mode `yaml:"mode"`
}

// DefaultConfig returns the unit-sphere display setup.
func DefaultConfig() Config {
	return Config{
		LightToSphere:    6.0,
		LightToImage:     1.0,
		TextureSize:      100,
		RadiusDisplay:    sphere.UnitRadius,
		VisibilityCutoff: 0.2,
		PlaneExtent:      0.203,
		Mode:             ModeAngular,
	}
}

// Threshold returns the largest x coordinate that survives the visibility test.
func (c Config) Threshold() float64 {
	return c.VisibilityCutoff * c.RadiusDisplay
}

// Extent returns the plane half-width used for texture mapping. When
// PlaneExtent is unset it is the largest distance from the optical axis any
// visible point can project to.
func (c Config) Extent() float64 {
	if c.PlaneExtent > 0 {
		return c.PlaneExtent
	}

	r, ls := c.RadiusDisplay, c.LightToSphere
	// sqrt(r²-x²)/(ls-x) peaks at the tangent point x = r²/ls.
	x := r * r / ls
	if th := c.Threshold(); x > th {
		x = th
	}
	return math.Sqrt(r*r-x*x) / (ls - x) * c.LightToImage
}

// Validate reports every problem with the config.
func (c Config) Validate() error {
	var errs error

	if !(c.RadiusDisplay > 0) {
		errs = multierr.Append(errs, fmt.Errorf("radius_display must be positive, got %v", c.RadiusDisplay))
	}
	if !(c.LightToImage > 0) {
		errs = multierr.Append(errs, fmt.Errorf("light_to_image must be positive, got %v", c.LightToImage))
	}
	if c.TextureSize <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("texture_size must be positive, got %d", c.TextureSize))
	}
	if c.VisibilityCutoff < -1 || c.VisibilityCutoff > 1 || math.IsNaN(c.VisibilityCutoff) {
		errs = multierr.Append(errs, fmt.Errorf("visibility_cutoff must be within [-1, 1], got %v", c.VisibilityCutoff))
	}
	if c.PlaneExtent < 0 || math.IsNaN(c.PlaneExtent) || math.IsInf(c.PlaneExtent, 0) {
		errs = multierr.Append(errs, fmt.Errorf("plane_extent must be zero or positive, got %v", c.PlaneExtent))
	}
	if c.Mode != ModeAngular && c.Mode != ModeDirect {
		errs = multierr.Append(errs, fmt.Errorf("unknown mode %d", int(c.Mode)))
	}
	// The light must sit outside the sphere, otherwise the depth (ls - x)
	// reaches zero on the visible cap.
	if !(c.LightToSphere > c.RadiusDisplay) || math.IsInf(c.LightToSphere, 0) {
		errs = multierr.Append(errs, fmt.Errorf("light_to_sphere %v must exceed radius_display %v", c.LightToSphere, c.RadiusDisplay))
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}
