package projection

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/Faultbox/globewarp/internal/sphere"
)

const eps = 1e-12

func TestProjectAngularKnownPoints(t *testing.T) {
	const ls, li = 6.0, 1.0

	tests := []struct {
		name string
		p    r3.Vector
		want PlanePoint
	}{
		// On the optical axis both the distance and the angle collapse to zero.
		{"axis", r3.Vector{X: 1}, PlanePoint{I: 0, J: 0, Z: 0}},
		{"north pole", r3.Vector{Z: 1}, PlanePoint{I: 1.0 / 6, J: 0, Z: 1}},
		// cos(pi) * sign(-1) folds the southern cap onto positive I.
		{"south pole", r3.Vector{Z: -1}, PlanePoint{I: 1.0 / 6, J: 0, Z: -1}},
		{"lon 90", r3.Vector{Y: 1}, PlanePoint{I: 0, J: 1.0 / 6, Z: 0}},
		{"lon -90", r3.Vector{Y: -1}, PlanePoint{I: 0, J: -1.0 / 6, Z: 0}},
		{"far side", r3.Vector{X: -1}, PlanePoint{I: 0, J: 0, Z: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProjectAngular(tt.p, ls, li)
			if math.Abs(got.I-tt.want.I) > eps || math.Abs(got.J-tt.want.J) > eps || got.Z != tt.want.Z {
				t.Errorf("ProjectAngular(%v) = %+v, want %+v", tt.p, got, tt.want)
			}
		})
	}
}

func TestProjectAngularMatchesSimilarTriangles(t *testing.T) {
	const ls, li = 6.0, 1.5
	p := sphere.ToSphere(-120, 35, sphere.UnitRadius)
	got := ProjectAngular(p, ls, li)

	wantDist := math.Hypot(p.Y, p.Z) / (ls - p.X) * li
	if d := math.Hypot(got.I, got.J); math.Abs(d-wantDist) > eps {
		t.Errorf("projected distance = %v, want %v", d, wantDist)
	}
	if got.Z != p.Z {
		t.Errorf("Z = %v, want input z %v", got.Z, p.Z)
	}
}

func TestProjectDirectCardinalScenario(t *testing.T) {
	const ls, li = 6.0, 1.0

	for _, ll := range [][2]float64{{0, 0}, {90, 0}, {0, 90}, {180, 0}} {
		p := sphere.ToSphere(ll[0], ll[1], sphere.UnitRadius)
		got := ProjectDirect(p, ls, li)

		wantX := p.X / (ls - p.X) * li
		wantY := p.Y / (ls - p.X) * li
		wantZ := p.Z / (ls - p.X) * li
		if math.Abs(got.I-wantX) > eps || math.Abs(got.J-wantY) > eps || math.Abs(got.Z-wantZ) > eps {
			t.Errorf("ProjectDirect(toSphere(%v)) = %+v, want (%v, %v, %v)", ll, got, wantX, wantY, wantZ)
		}
	}

	// (0, 0) lands on (1, 0, 0): 1/(6-1) = 0.2.
	got := ProjectDirect(sphere.ToSphere(0, 0, sphere.UnitRadius), ls, li)
	if math.Abs(got.I-0.2) > eps {
		t.Errorf("ProjectDirect origin I = %v, want 0.2", got.I)
	}
}

func TestProjectorDirectMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeDirect
	cfg.VisibilityCutoff = 1

	pr := NewProjector(cfg)
	got, ok := pr.Project(r3.Vector{X: 1})
	if !ok {
		t.Fatal("point on the cutoff should be projected")
	}
	if math.Abs(got.I-0.2) > eps {
		t.Errorf("I = %v, want 0.2", got.I)
	}
}

func TestProjectorVisibilityBoundary(t *testing.T) {
	pr := NewProjector(DefaultConfig())
	th := pr.Threshold()
	if th != 0.2 {
		t.Fatalf("Threshold() = %v, want 0.2", th)
	}

	onCutoff := r3.Vector{X: th, Y: math.Sqrt(1 - th*th)}
	if _, ok := pr.Project(onCutoff); !ok {
		t.Error("point exactly on the cutoff should be kept")
	}

	above := r3.Vector{X: math.Nextafter(th, 1), Y: math.Sqrt(1 - th*th)}
	if _, ok := pr.Project(above); ok {
		t.Error("point just above the cutoff should be dropped")
	}

	if _, ok := pr.Project(r3.Vector{X: -1}); !ok {
		t.Error("far-side point should be kept")
	}
}

func TestProjectorScalesCutoffWithRadius(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RadiusDisplay = 2
	cfg.LightToSphere = 12

	pr := NewProjector(cfg)
	if pr.Threshold() != 0.4 {
		t.Errorf("Threshold() = %v, want 0.4", pr.Threshold())
	}
}

func TestProjectorDiscardsNonFinite(t *testing.T) {
	pr := NewProjector(DefaultConfig())
	if _, ok := pr.Project(r3.Vector{X: 0, Y: math.NaN(), Z: 0.5}); ok {
		t.Error("NaN input should be dropped")
	}

	// The light itself: division by zero.
	pp := ProjectAngular(r3.Vector{X: 6, Y: 1}, 6, 1)
	if pp.Finite() {
		t.Errorf("ProjectAngular at the light = %+v, want non-finite", pp)
	}
	pp = ProjectDirect(r3.Vector{X: 6, Y: 1}, 6, 1)
	if pp.Finite() {
		t.Errorf("ProjectDirect at the light = %+v, want non-finite", pp)
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	for _, mode := range []Mode{ModeAngular, ModeDirect} {
		cfg := DefaultConfig()
		cfg.Mode = mode
		pr := NewProjector(cfg)

		p := sphere.ToSphere(-73.25, 41.5, sphere.UnitRadius)
		a, okA := pr.Project(p)
		b, okB := pr.Project(p)
		if okA != okB || math.Float64bits(a.I) != math.Float64bits(b.I) ||
			math.Float64bits(a.J) != math.Float64bits(b.J) || math.Float64bits(a.Z) != math.Float64bits(b.Z) {
			t.Errorf("%v: projections differ: %+v vs %+v", mode, a, b)
		}
	}
}

func TestSign(t *testing.T) {
	if sign(3) != 1 || sign(-0.5) != -1 || sign(0) != 0 {
		t.Error("sign should return 1, -1, 0")
	}
	if !math.IsNaN(sign(math.NaN())) {
		t.Error("sign(NaN) should be NaN")
	}
}
