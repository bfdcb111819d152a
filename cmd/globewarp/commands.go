package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/globewarp/internal/camera"
	"github.com/Faultbox/globewarp/internal/config"
	"github.com/Faultbox/globewarp/internal/geodata"
	"github.com/Faultbox/globewarp/internal/globe"
	"github.com/Faultbox/globewarp/internal/mesh"
	"github.com/Faultbox/globewarp/internal/projection"
	"github.com/Faultbox/globewarp/internal/raster"
	"github.com/Faultbox/globewarp/internal/warp"
)

var errUnknownCommand = errors.New("unknown command")

// app carries the loaded config and logger into each command.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	stdout io.Writer
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "project":
		return a.cmdProject(ctx, args)
	case "mesh":
		return a.cmdMesh(ctx, args)
	case "warp":
		return a.cmdWarp(ctx, args)
	case "config":
		return a.cmdConfig(args)
	default:
		return fmt.Errorf("%w: %s", errUnknownCommand, command)
	}
}

// settingValues collects repeated -set key=value flags.
type settingValues map[string]float64

func (s settingValues) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strconv.FormatFloat(s[k], 'g', -1, 64))
	}
	return strings.Join(parts, ",")
}

func (s settingValues) Set(v string) error {
	key, value, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", v)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	s[strings.TrimSpace(key)] = f
	return nil
}

// sourceFlags registers the flags shared by project and mesh.
func (a *app) sourceFlags(fs *flag.FlagSet) (in *string, overrides settingValues) {
	in = fs.String("in", a.cfg.Data.GeoJSON, "GeoJSON file or URL")
	overrides = settingValues{}
	fs.Var(overrides, "set", "Projection setting override key=value (repeatable)")
	return in, overrides
}

// projectRings loads polygons from source and projects them to texture rings.
func (a *app) projectRings(ctx context.Context, source string, overrides settingValues) ([]orb.Ring, error) {
	settings, err := projection.NewSettings(a.cfg.Projection, a.log)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := settings.Apply(overrides); err != nil {
			return nil, err
		}
	}

	a.log.Info("loading geometry", zap.String("source", source))
	fc, err := geodata.Load(ctx, source)
	if err != nil {
		return nil, err
	}

	polys := geodata.Flatten(fc)
	for kind, n := range polys.Skipped {
		a.log.Debug("skipped features without polygons", zap.String("type", kind), zap.Int("count", n))
	}

	rings, stats := globe.NewPipeline(settings, a.log).ProjectPolygons(polys.Polygons)
	a.log.Info("projected polygons",
		zap.Int("polygons", stats.Polygons),
		zap.Int("rings", stats.Rings),
		zap.Int("points", stats.Points),
		zap.Int("dropped_points", stats.DroppedPoints),
		zap.Int("dropped_rings", stats.DroppedRings),
		zap.Int("skipped_features", polys.SkippedTotal()))
	return rings, nil
}

func (a *app) cmdProject(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project", flag.ContinueOnError)
	in, overrides := a.sourceFlags(fs)
	out := fs.String("out", filepath.Join(a.cfg.Data.OutputDir, "rings.geojson"), "Output GeoJSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rings, err := a.projectRings(ctx, *in, overrides)
	if err != nil {
		return err
	}
	if err := geodata.SaveRings(*out, rings); err != nil {
		return err
	}

	a.log.Info("wrote rings", zap.String("path", *out), zap.Int("rings", len(rings)))
	return nil
}

// orbitFlag parses "lon,lat,distance".
type orbitFlag struct {
	lon, lat, distance float64
	set                bool
}

func (o *orbitFlag) String() string {
	if o == nil || !o.set {
		return ""
	}
	return fmt.Sprintf("%g,%g,%g", o.lon, o.lat, o.distance)
}

func (o *orbitFlag) Set(v string) error {
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected lon,lat,distance, got %q", v)
	}
	var vals [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return fmt.Errorf("parsing orbit: %w", err)
		}
		vals[i] = f
	}
	o.lon, o.lat, o.distance = vals[0], vals[1], vals[2]
	o.set = true
	return nil
}

func (a *app) cmdMesh(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mesh", flag.ContinueOnError)
	in, overrides := a.sourceFlags(fs)
	out := fs.String("out", filepath.Join(a.cfg.Data.OutputDir, "globe.mesh"), "Output mesh file")
	flat := fs.Bool("2d", false, "Write (u, v) pairs instead of (u, v, 0) triples")
	compress := fs.Bool("gzip", a.cfg.Data.CompressMesh, "Gzip the mesh file")
	var orbit orbitFlag
	fs.Var(&orbit, "orbit", "Place the camera at lon,lat,distance around its target")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cam, err := camera.New(a.cfg.Camera, a.log)
	if err != nil {
		return err
	}
	if orbit.set {
		if err := cam.Orbit(orbit.lon, orbit.lat, orbit.distance); err != nil {
			return err
		}
	}

	rings, err := a.projectRings(ctx, *in, overrides)
	if err != nil {
		return err
	}

	buf := globe.Flatten3D(rings)
	if *flat {
		buf = globe.Flatten2D(rings)
	}

	m := mesh.Mesh{
		View:       cam.ViewMatrix(),
		Projection: cam.ProjectionMatrix(),
		Buffer:     buf,
	}
	if err := mesh.WriteFile(*out, m, *compress); err != nil {
		return err
	}

	a.log.Info("wrote mesh",
		zap.String("path", *out),
		zap.Int("vertices", buf.VertexCount()),
		zap.Int("rings", len(buf.Offsets)),
		zap.Bool("gzip", *compress))
	return nil
}

func (a *app) cmdWarp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("warp", flag.ContinueOnError)
	out := fs.String("out", "", "Output PNG (default <output_dir>/<name>_warped.png)")
	bulgeOnly := fs.Bool("bulge-only", false, "Skip the blurred proxy; the input must be square")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: globewarp warp [-out file] [-bulge-only] <image>")
	}
	input := fs.Arg(0)
	if *out == "" {
		*out = raster.OutputPath(a.cfg.Data.OutputDir, input, "_warped")
	}

	src, format, err := raster.Load(input)
	if err != nil {
		return err
	}
	a.log.Info("warping image",
		zap.String("path", input),
		zap.String("format", format),
		zap.Int("width", src.Bounds().Dx()),
		zap.Int("height", src.Bounds().Dy()))

	opts := a.cfg.WarpOptions()
	a.log.Debug("bulge parameters",
		zap.Float64("factor", opts.Bulge.Factor),
		zap.Float64("exponent", opts.Bulge.Exponent),
		zap.Stringer("sampling", opts.Bulge.Sampling))

	var result *image.RGBA
	if *bulgeOnly {
		result, err = warp.BulgeContext(ctx, warp.ToRGBA(src), opts.Bulge)
	} else {
		result, err = warp.Warp(ctx, src, opts)
	}
	if err != nil {
		return err
	}
	if err := raster.SavePNG(*out, result); err != nil {
		return err
	}

	a.log.Info("wrote warped image", zap.String("path", *out))
	return nil
}

func (a *app) cmdConfig(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: globewarp config show|save [path]|path")
	}

	switch args[0] {
	case "show":
		enc := yaml.NewEncoder(a.stdout)
		enc.SetIndent(2)
		if err := enc.Encode(a.cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		return enc.Close()
	case "save":
		path := filepath.Join(config.ConfigDir(), config.FileName)
		if len(args) > 1 {
			path = args[1]
		}
		if err := a.cfg.SaveTo(path); err != nil {
			return err
		}
		a.log.Info("saved config", zap.String("path", path))
		return nil
	case "path":
		path := config.ConfigPath()
		if path == "" {
			path = filepath.Join(config.ConfigDir(), config.FileName)
		}
		_, err := fmt.Fprintln(a.stdout, path)
		return err
	default:
		return fmt.Errorf("%w: config %s", errUnknownCommand, args[0])
	}
}
