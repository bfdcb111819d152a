package projection

import (
	"fmt"
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"go.uber.org/zap"

	"github.com/Faultbox/globewarp/internal/sphere"
	"github.com/Faultbox/globewarp/internal/warp"
)

// Setting keys accepted by Settings.Apply.
const (
	KeyLightToSphere    = "light_to_sphere"
	KeyLightToImage     = "light_to_image"
	KeyTextureSize      = "texture_size"
	KeyRadiusDisplay    = "radius_display"
	KeyVisibilityCutoff = "visibility_cutoff"
	KeyPlaneExtent      = "plane_extent"
)

// Settings owns a validated Config together with the sphere mapper and
// projector derived from it. It is not safe for concurrent mutation.
type Settings struct {
	cfg       Config
	mapper    sphere.Mapper
	projector Projector
	log       *zap.Logger
}

// NewSettings validates cfg and builds the derived mapper and projector.
// A nil logger discards output.
func NewSettings(cfg Config, log *zap.Logger) (*Settings, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	s := &Settings{log: log}
	s.install(cfg)
	return s, nil
}

// Config returns a copy of the current config.
func (s *Settings) Config() Config {
	return s.cfg
}

// Mapper returns the sphere mapper for the current display radius.
func (s *Settings) Mapper() sphere.Mapper {
	return s.mapper
}

// Projector returns the projector for the current config.
func (s *Settings) Projector() Projector {
	return s.projector
}

// SetLightToSphere updates the light to sphere-center distance.
func (s *Settings) SetLightToSphere(v float64) error {
	return s.update(func(c *Config) { c.LightToSphere = v })
}

// SetLightToImage updates the light to image-plane distance.
func (s *Settings) SetLightToImage(v float64) error {
	return s.update(func(c *Config) { c.LightToImage = v })
}

// SetTextureSize updates the texture edge length.
func (s *Settings) SetTextureSize(v int) error {
	return s.update(func(c *Config) { c.TextureSize = v })
}

// SetRadiusDisplay updates the display radius and rebuilds the mapper.
func (s *Settings) SetRadiusDisplay(v float64) error {
	return s.update(func(c *Config) { c.RadiusDisplay = v })
}

// SetVisibilityCutoff updates the cutoff fraction.
func (s *Settings) SetVisibilityCutoff(v float64) error {
	return s.update(func(c *Config) { c.VisibilityCutoff = v })
}

// SetPlaneExtent updates the plane half-width mapped onto the texture.
func (s *Settings) SetPlaneExtent(v float64) error {
	return s.update(func(c *Config) { c.PlaneExtent = v })
}

// Apply sets several fields by key in one validated step. Unknown keys are
// logged and skipped. On a validation error nothing changes.
func (s *Settings) Apply(values map[string]float64) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return s.update(func(c *Config) {
		for _, k := range keys {
			v := values[k]
			switch k {
			case KeyLightToSphere:
				c.LightToSphere = v
			case KeyLightToImage:
				c.LightToImage = v
			case KeyTextureSize:
				if v != math.Trunc(v) {
					s.log.Warn("texture_size truncated to an integer", zap.Float64("value", v))
				}
				c.TextureSize = int(v)
			case KeyRadiusDisplay:
				c.RadiusDisplay = v
			case KeyVisibilityCutoff:
				c.VisibilityCutoff = v
			case KeyPlaneExtent:
				c.PlaneExtent = v
			default:
				s.log.Warn("ignoring unknown projection setting", zap.String("key", k), zap.Float64("value", v))
			}
		}
	})
}

// ProjectLonLat maps lon/lat onto the display sphere and projects it.
func (s *Settings) ProjectLonLat(lon, lat float64) (PlanePoint, bool) {
	return s.projector.Project(s.mapper.Point(lon, lat))
}

// Project projects a point already on the display sphere.
func (s *Settings) Project(p r3.Vector) (PlanePoint, bool) {
	return s.projector.Project(p)
}

// TextureCoords maps a plane point from [-extent, extent] onto
// [0, TextureSize]. ok is false for non-finite results.
func (s *Settings) TextureCoords(p PlanePoint) (u, v float64, ok bool) {
	ext := s.cfg.Extent()
	size := float64(s.cfg.TextureSize)

	u, errU := warp.MapChecked(p.I, -ext, ext, 0, size)
	v, errV := warp.MapChecked(p.J, -ext, ext, 0, size)
	if errU != nil || errV != nil {
		return 0, 0, false
	}
	return u, v, true
}

// TextureFromSphere maps sphere x/y from [-R, R] onto [0, TextureSize].
func (s *Settings) TextureFromSphere(x, y float64) (u, v float64) {
	r := s.cfg.RadiusDisplay
	size := float64(s.cfg.TextureSize)
	return warp.Map(x, -r, r, 0, size), warp.Map(y, -r, r, 0, size)
}

func (s *Settings) update(mutate func(*Config)) error {
	next := s.cfg
	mutate(&next)
	if err := next.Validate(); err != nil {
		return fmt.Errorf("updating projection settings: %w", err)
	}

	if next.RadiusDisplay != s.cfg.RadiusDisplay {
		s.log.Debug("display radius changed, rebuilding mapper",
			zap.Float64("old", s.cfg.RadiusDisplay), zap.Float64("new", next.RadiusDisplay))
	}
	s.install(next)
	return nil
}

func (s *Settings) install(cfg Config) {
	s.cfg = cfg
	s.mapper = sphere.NewMapper(cfg.RadiusDisplay)
	s.projector = NewProjector(cfg)
}
