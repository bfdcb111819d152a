package projection

import (
	"errors"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.LightToSphere != 6 || cfg.LightToImage != 1 || cfg.TextureSize != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.VisibilityCutoff != 0.2 || cfg.PlaneExtent != 0.203 {
		t.Errorf("unexpected cutoff/extent defaults: %+v", cfg)
	}
}

func TestValidateRejectsLightInsideSphere(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RadiusDisplay = 6371

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
	}
	if !strings.Contains(err.Error(), "light_to_sphere") {
		t.Errorf("error should name light_to_sphere: %v", err)
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{
		LightToSphere:    0.5,
		LightToImage:     0,
		TextureSize:      -3,
		RadiusDisplay:    1,
		VisibilityCutoff: 2,
		PlaneExtent:      -1,
		Mode:             Mode(7),
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"light_to_sphere", "light_to_image", "texture_size", "visibility_cutoff", "plane_extent", "mode"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error should mention %s: %v", field, err)
		}
	}
}

func TestExtent(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.Extent(); got != 0.203 {
		t.Errorf("Extent() = %v, want configured 0.203", got)
	}

	// Tangent point x = 1/6 is under the 0.2 cutoff, so the extent is the
	// tangent ray: 1/sqrt(35).
	cfg.PlaneExtent = 0
	if got, want := cfg.Extent(), 1/math.Sqrt(35); math.Abs(got-want) > 1e-12 {
		t.Errorf("auto Extent() = %v, want %v", got, want)
	}

	// With a tighter cutoff the extremal visible point is on the cutoff.
	cfg.VisibilityCutoff = 0
	if got, want := cfg.Extent(), 1.0/6; math.Abs(got-want) > 1e-12 {
		t.Errorf("auto Extent() with cutoff 0 = %v, want %v", got, want)
	}
}

func TestModeText(t *testing.T) {
	var cfg struct {
		Mode Mode `yaml:"mode"`
	}
	if err := yaml.Unmarshal([]byte("mode: direct\n"), &cfg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cfg.Mode != ModeDirect {
		t.Errorf("Mode = %v, want direct", cfg.Mode)
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), "mode: direct") {
		t.Errorf("marshalled %q, want mode: direct", out)
	}

	if err := yaml.Unmarshal([]byte("mode: fisheye\n"), &cfg); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestNewSettingsRejectsInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LightToSphere = 1
	if _, err := NewSettings(cfg, nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewSettings() error = %v, want ErrInvalidConfig", err)
	}
}

func TestSetRadiusDisplayRebuildsMapper(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	if s.Mapper().Radius != 1 {
		t.Fatalf("initial mapper radius = %v, want 1", s.Mapper().Radius)
	}

	if err := s.SetRadiusDisplay(2); err != nil {
		t.Fatalf("SetRadiusDisplay(2): %v", err)
	}
	if s.Mapper().Radius != 2 {
		t.Errorf("mapper radius = %v, want 2", s.Mapper().Radius)
	}
	if s.Projector().Threshold() != 0.4 {
		t.Errorf("threshold = %v, want 0.4", s.Projector().Threshold())
	}

	p := s.Mapper().Point(0, 90)
	if math.Abs(p.Z-2) > 1e-12 {
		t.Errorf("Mapper().Point(0, 90).Z = %v, want 2", p.Z)
	}
}

func TestRejectedUpdateLeavesSettingsUnchanged(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}

	if err := s.SetLightToSphere(0.5); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("SetLightToSphere(0.5) = %v, want ErrInvalidConfig", err)
	}
	if got := s.Config().LightToSphere; got != 6 {
		t.Errorf("LightToSphere = %v after rejected update, want 6", got)
	}

	if err := s.SetTextureSize(0); err == nil {
		t.Error("SetTextureSize(0) should fail")
	}
	if err := s.SetLightToImage(2); err != nil {
		t.Errorf("SetLightToImage(2): %v", err)
	}
	if err := s.SetVisibilityCutoff(0.1); err != nil {
		t.Errorf("SetVisibilityCutoff(0.1): %v", err)
	}
	if err := s.SetPlaneExtent(0); err != nil {
		t.Errorf("SetPlaneExtent(0): %v", err)
	}
	if s.Config().LightToImage != 2 || s.Config().VisibilityCutoff != 0.1 {
		t.Errorf("setters not applied: %+v", s.Config())
	}
}

func TestApplyWarnsOnUnknownKeys(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s, err := NewSettings(DefaultConfig(), zap.New(core))
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}

	err = s.Apply(map[string]float64{
		"earth_radius":      6371,
		KeyLightToImage:     2,
		KeyTextureSize:      256,
		KeyLightToSphere:    8,
		KeyRadiusDisplay:    1.5,
		KeyPlaneExtent:      0.3,
		KeyVisibilityCutoff: 0.25,
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if n := logs.FilterMessage("ignoring unknown projection setting").Len(); n != 1 {
		t.Errorf("unknown-key warnings = %d, want 1", n)
	}

	cfg := s.Config()
	if cfg.LightToImage != 2 || cfg.TextureSize != 256 || cfg.LightToSphere != 8 ||
		cfg.RadiusDisplay != 1.5 || cfg.PlaneExtent != 0.3 || cfg.VisibilityCutoff != 0.25 {
		t.Errorf("Apply did not set all fields: %+v", cfg)
	}
	if s.Mapper().Radius != 1.5 {
		t.Errorf("mapper radius = %v, want 1.5", s.Mapper().Radius)
	}
}

func TestApplyIsAtomic(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}

	// Radius 10 is only valid together with a more distant light.
	if err := s.Apply(map[string]float64{KeyRadiusDisplay: 10}); err == nil {
		t.Fatal("expected error for radius beyond the light")
	}
	if s.Config().RadiusDisplay != 1 {
		t.Errorf("radius changed by a rejected Apply: %v", s.Config().RadiusDisplay)
	}

	if err := s.Apply(map[string]float64{KeyRadiusDisplay: 10, KeyLightToSphere: 60}); err != nil {
		t.Fatalf("combined Apply: %v", err)
	}
	if s.Mapper().Radius != 10 {
		t.Errorf("mapper radius = %v, want 10", s.Mapper().Radius)
	}
}

func TestTextureCoords(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}

	tests := []struct {
		p    PlanePoint
		u, v float64
	}{
		{PlanePoint{I: 0, J: 0}, 50, 50},
		{PlanePoint{I: 0.203, J: -0.203}, 100, 0},
		// Beyond the window extrapolates.
		{PlanePoint{I: 0.406, J: 0}, 150, 50},
	}
	for _, tt := range tests {
		u, v, ok := s.TextureCoords(tt.p)
		if !ok {
			t.Fatalf("TextureCoords(%+v) not ok", tt.p)
		}
		if math.Abs(u-tt.u) > 1e-9 || math.Abs(v-tt.v) > 1e-9 {
			t.Errorf("TextureCoords(%+v) = (%v, %v), want (%v, %v)", tt.p, u, v, tt.u, tt.v)
		}
	}

	if _, _, ok := s.TextureCoords(PlanePoint{I: math.Inf(1)}); ok {
		t.Error("infinite plane point should not map")
	}
}

func TestTextureFromSphere(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}
	u, v := s.TextureFromSphere(1, -1)
	if u != 100 || v != 0 {
		t.Errorf("TextureFromSphere(1, -1) = (%v, %v), want (100, 0)", u, v)
	}
}

func TestProjectLonLat(t *testing.T) {
	s, err := NewSettings(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("NewSettings: %v", err)
	}

	if _, ok := s.ProjectLonLat(0, 0); ok {
		t.Error("(0, 0) faces the light and should be dropped")
	}
	pp, ok := s.ProjectLonLat(0, 90)
	if !ok {
		t.Fatal("north pole should be visible")
	}
	if math.Abs(pp.I-1.0/6) > 1e-9 {
		t.Errorf("north pole I = %v, want 1/6", pp.I)
	}
}
