// Package globe assembles projected texture rings from geographic polygons
// and flattens them into vertex buffers.
package globe

import (
	"github.com/paulmach/orb"
	"go.uber.org/zap"

	"github.com/Faultbox/globewarp/internal/projection"
)

// MinRingPoints is the fewest accepted points a projected ring may keep.
const MinRingPoints = 4

// Stats counts what a ProjectPolygons call kept and discarded.
type Stats struct {
	Polygons      int // polygons examined
	Rings         int // rings kept
	Points        int // points kept across all kept rings
	DroppedPoints int // back-facing or non-finite points
	DroppedRings  int // rings left with fewer than MinRingPoints
}

// Pipeline runs lon/lat rings through the sphere mapper, the projector and
// the texture range map.
type Pipeline struct {
	settings *projection.Settings
	log      *zap.Logger
}

// NewPipeline creates a pipeline over settings. A nil logger discards output.
func NewPipeline(settings *projection.Settings, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{settings: settings, log: log}
}

// ProjectRing maps every point of ring into texture coordinates. Points
// behind the visibility cutoff and points with non-finite results are
// skipped individually; dropped reports how many.
func (p *Pipeline) ProjectRing(ring orb.Ring) (out orb.Ring, dropped int) {
	out = make(orb.Ring, 0, len(ring))
	for _, pt := range ring {
		pp, ok := p.settings.ProjectLonLat(pt.Lon(), pt.Lat())
		if !ok {
			dropped++
			continue
		}
		u, v, ok := p.settings.TextureCoords(pp)
		if !ok {
			dropped++
			continue
		}
		out = append(out, orb.Point{u, v})
	}
	return out, dropped
}

// ProjectPolygons projects the exterior ring of each polygon. Rings that
// keep fewer than MinRingPoints points are dropped. Holes are ignored.
func (p *Pipeline) ProjectPolygons(polygons []orb.Polygon) ([]orb.Ring, Stats) {
	var stats Stats
	rings := make([]orb.Ring, 0, len(polygons))

	for i, poly := range polygons {
		stats.Polygons++
		if len(poly) == 0 {
			stats.DroppedRings++
			p.log.Debug("dropping polygon without exterior ring", zap.Int("index", i))
			continue
		}

		ring, dropped := p.ProjectRing(poly[0])
		stats.DroppedPoints += dropped
		if len(ring) < MinRingPoints {
			stats.DroppedRings++
			p.log.Debug("dropping degenerate ring",
				zap.Int("index", i),
				zap.Int("points", len(ring)),
				zap.Int("dropped_points", dropped))
			continue
		}

		rings = append(rings, ring)
		stats.Rings++
		stats.Points += len(ring)
	}
	return rings, stats
}
