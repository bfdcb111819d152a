// Package camera builds the view and projection matrices shipped alongside
// projected globe geometry.
package camera

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/globewarp/internal/sphere"
	"github.com/Faultbox/globewarp/pkg/math"
)

// ErrInvalidCamera is wrapped by camera validation failures.
var ErrInvalidCamera = errors.New("invalid camera")

// Config describes a perspective camera. FOV is the vertical field of view
// in degrees.
type Config struct {
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	Up       [3]float32 `yaml:"up"`
	FOV      float32    `yaml:"fov"`
	Aspect   float32    `yaml:"aspect"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

// DefaultConfig looks at the unit globe from three radii out on +z, for an
// 800x600 viewport.
func DefaultConfig() Config {
	return Config{
		Position: [3]float32{0, 0, 3},
		Target:   [3]float32{0, 0, 0},
		Up:       [3]float32{0, 1, 0},
		FOV:      45,
		Aspect:   800.0 / 600.0,
		Near:     0.1,
		Far:      100,
	}
}

// Validate checks the camera for a usable frustum and orientation.
func (c Config) Validate() error {
	var errs error
	if !(c.FOV > 0 && c.FOV < 180) {
		errs = multierr.Append(errs, fmt.Errorf("fov must be in (0, 180), got %v", c.FOV))
	}
	if !(c.Aspect > 0) {
		errs = multierr.Append(errs, fmt.Errorf("aspect must be positive, got %v", c.Aspect))
	}
	if !(c.Near > 0) {
		errs = multierr.Append(errs, fmt.Errorf("near must be positive, got %v", c.Near))
	}
	if !(c.Far > c.Near) {
		errs = multierr.Append(errs, fmt.Errorf("far %v must exceed near %v", c.Far, c.Near))
	}
	if err := checkOrientation(vec(c.Position), vec(c.Target), vec(c.Up)); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCamera, errs)
	}
	return nil
}

// parallelTolerance is the sine of the smallest accepted angle between the
// view direction and the up vector.
const parallelTolerance = 1e-6

func checkOrientation(position, target, up math.Vec3) error {
	forward := target.Sub(position)
	if forward.Length() == 0 {
		return errors.New("position and target coincide")
	}
	if up.Length() == 0 {
		return errors.New("up vector is zero")
	}
	if forward.Cross(up).Length() <= parallelTolerance*forward.Length()*up.Length() {
		return errors.New("up vector is parallel to the view direction")
	}
	return nil
}

func vec(a [3]float32) math.Vec3 {
	return math.Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Camera holds a perspective camera's state.
type Camera struct {
	position math.Vec3
	target   math.Vec3
	up       math.Vec3
	fov      float32
	aspect   float32
	near     float32
	far      float32

	log *zap.Logger
}

// New validates cfg and creates a camera. A nil logger discards output.
func New(cfg Config, log *zap.Logger) (*Camera, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Camera{
		position: vec(cfg.Position),
		target:   vec(cfg.Target),
		up:       vec(cfg.Up),
		fov:      cfg.FOV,
		aspect:   cfg.Aspect,
		near:     cfg.Near,
		far:      cfg.Far,
		log:      log,
	}
	log.Debug("camera initialized",
		zap.Any("position", c.position),
		zap.Any("target", c.target),
		zap.Any("up", c.up))
	return c, nil
}

// Position returns the eye position.
func (c *Camera) Position() math.Vec3 { return c.position }

// Target returns the look-at point.
func (c *Camera) Target() math.Vec3 { return c.target }

// Up returns the up vector.
func (c *Camera) Up() math.Vec3 { return c.up }

// ViewMatrix returns the look-at view matrix.
func (c *Camera) ViewMatrix() math.Mat4 {
	return math.LookAt(c.position, c.target, c.up)
}

// ProjectionMatrix returns the perspective projection matrix.
func (c *Camera) ProjectionMatrix() math.Mat4 {
	fovY := float32(float64(c.fov) * gomath.Pi / 180)
	return math.Perspective(fovY, c.aspect, c.near, c.far)
}

// SetPosition moves the eye. The camera is unchanged on error.
func (c *Camera) SetPosition(p math.Vec3) error {
	if err := checkOrientation(p, c.target, c.up); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCamera, err)
	}
	c.position = p
	c.log.Debug("camera position updated", zap.Any("position", p))
	return nil
}

// SetTarget moves the look-at point. The camera is unchanged on error.
func (c *Camera) SetTarget(p math.Vec3) error {
	if err := checkOrientation(c.position, p, c.up); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCamera, err)
	}
	c.target = p
	c.log.Debug("camera target updated", zap.Any("target", p))
	return nil
}

// SetAspect updates the viewport aspect ratio.
func (c *Camera) SetAspect(aspect float32) error {
	if !(aspect > 0) {
		return fmt.Errorf("%w: aspect must be positive, got %v", ErrInvalidCamera, aspect)
	}
	c.aspect = aspect
	return nil
}

// Orbit places the eye above lon/lat (degrees) at distance from the target,
// in the same frame as sphere.ToSphere. The up vector is kept, so the view
// straight down the up axis is rejected.
func (c *Camera) Orbit(lon, lat, distance float64) error {
	if !(distance > 0) {
		return fmt.Errorf("%w: orbit distance must be positive, got %v", ErrInvalidCamera, distance)
	}
	offset := sphere.ToSphere(lon, lat, distance)
	p := c.target.Add(math.Vec3{
		X: float32(offset.X),
		Y: float32(offset.Y),
		Z: float32(offset.Z),
	})
	return c.SetPosition(p)
}
