// Package geodata reads landmass geometry from GeoJSON and writes projected
// rings back out.
package geodata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MaxBodyBytes caps a downloaded GeoJSON document.
const MaxBodyBytes = 256 << 20

// DefaultTimeout bounds a URL fetch when the caller's context has no deadline.
const DefaultTimeout = 60 * time.Second

// Parse decodes a GeoJSON FeatureCollection.
func Parse(data []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing geojson: %w", err)
	}
	return fc, nil
}

// LoadFile reads a FeatureCollection from disk.
func LoadFile(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geojson: %w", err)
	}
	return Parse(data)
}

// LoadURL fetches a FeatureCollection over HTTP(S). A nil client uses
// http.DefaultClient.
func LoadURL(ctx context.Context, client *http.Client, url string) (*geojson.FeatureCollection, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if len(data) > MaxBodyBytes {
		return nil, fmt.Errorf("fetching %s: body exceeds %d bytes", url, MaxBodyBytes)
	}
	return Parse(data)
}

// Load reads source as a URL when it has an http or https scheme and as a
// file path otherwise.
func Load(ctx context.Context, source string) (*geojson.FeatureCollection, error) {
	if IsURL(source) {
		return LoadURL(ctx, nil, source)
	}
	return LoadFile(source)
}

// IsURL reports whether source names an HTTP(S) resource.
func IsURL(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Polygons is the polygon content of a FeatureCollection.
type Polygons struct {
	Polygons []orb.Polygon

	// Skipped counts features by geometry type that carried no polygons.
	Skipped map[string]int
}

// SkippedTotal returns the number of skipped features.
func (p Polygons) SkippedTotal() int {
	n := 0
	for _, c := range p.Skipped {
		n += c
	}
	return n
}

// Flatten collects every Polygon in fc, splitting MultiPolygons into their
// members and descending into geometry collections.
func Flatten(fc *geojson.FeatureCollection) Polygons {
	out := Polygons{Skipped: make(map[string]int)}
	if fc == nil {
		return out
	}

	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			out.Skipped["null"]++
			continue
		}
		before := len(out.Polygons)
		out.Polygons = appendPolygons(out.Polygons, f.Geometry)
		if len(out.Polygons) == before {
			out.Skipped[f.Geometry.GeoJSONType()]++
		}
	}
	return out
}

func appendPolygons(dst []orb.Polygon, g orb.Geometry) []orb.Polygon {
	switch g := g.(type) {
	case orb.Polygon:
		return append(dst, g)
	case orb.MultiPolygon:
		return append(dst, g...)
	case orb.Collection:
		for _, member := range g {
			dst = appendPolygons(dst, member)
		}
	}
	return dst
}

// RingCollection wraps each ring as a Polygon feature. Feature properties
// record the ring's position in rings.
func RingCollection(rings []orb.Ring) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, r := range rings {
		f := geojson.NewFeature(orb.Polygon{r})
		f.Properties["ring"] = i
		f.Properties["points"] = len(r)
		fc.Append(f)
	}
	return fc
}

// WriteRings encodes rings as a GeoJSON FeatureCollection.
func WriteRings(w io.Writer, rings []orb.Ring) error {
	data, err := RingCollection(rings).MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding rings: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing rings: %w", err)
	}
	return nil
}

// SaveRings writes rings to path as GeoJSON.
func SaveRings(path string, rings []orb.Ring) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return WriteRings(f, rings)
}
