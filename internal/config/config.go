// Package config handles globewarp configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/Faultbox/globewarp/internal/camera"
	"github.com/Faultbox/globewarp/internal/logger"
	"github.com/Faultbox/globewarp/internal/projection"
	"github.com/Faultbox/globewarp/internal/warp"
)

// DefaultGeoJSON is the country outline collection used when no source is
// configured.
const DefaultGeoJSON = "https://raw.githubusercontent.com/johan/world.geo.json/master/countries.geo.json"

// Config holds all globewarp settings.
type Config struct {
	Projection projection.Config `yaml:"projection"`
	Warp       WarpConfig        `yaml:"warp"`
	Proxy      warp.ProxyOptions `yaml:"proxy"`
	Data       DataConfig        `yaml:"data"`
	Camera     camera.Config     `yaml:"camera"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// WarpConfig holds bulge settings. A positive Stretch replaces Factor and
// Exponent with values derived from it.
type WarpConfig struct {
	Stretch           float64 `yaml:"stretch"`
	warp.BulgeOptions `yaml:",inline"`
}

// DataConfig holds input and output locations.
type DataConfig struct {
	// GeoJSON is a file path or an http(s) URL.
	GeoJSON      string `yaml:"geojson"`
	OutputDir    string `yaml:"output_dir"`
	CompressMesh bool   `yaml:"compress_mesh"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Projection: projection.DefaultConfig(),
		Warp: WarpConfig{
			BulgeOptions: warp.ParamsFromStretch(warp.DefaultStretch),
		},
		Proxy: warp.DefaultProxyOptions(),
		Data: DataConfig{
			GeoJSON:   DefaultGeoJSON,
			OutputDir: ".",
		},
		Camera: camera.DefaultConfig(),
		Logging: LoggingConfig{
			Level: "info",
			File:  logger.DefaultFileConfig(""),
		},
	}
}

// Options resolves the effective bulge options.
func (w WarpConfig) Options() warp.BulgeOptions {
	opts := w.BulgeOptions
	if w.Stretch > 0 {
		p := warp.ParamsFromStretch(w.Stretch)
		opts.Factor = p.Factor
		opts.Exponent = p.Exponent
	}
	return opts
}

// WarpOptions returns the full raster warp configuration.
func (c *Config) WarpOptions() warp.Options {
	return warp.Options{
		Proxy: c.Proxy,
		Bulge: c.Warp.Options(),
	}
}

// Validate reports every invalid section at once.
func (c *Config) Validate() error {
	var errs error
	if err := c.Projection.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("projection: %w", err))
	}
	if !(c.Warp.Stretch >= 0) {
		errs = multierr.Append(errs, fmt.Errorf("warp: stretch must be >= 0, got %v", c.Warp.Stretch))
	}
	if err := c.WarpOptions().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("warp: %w", err))
	}
	if err := c.Camera.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("camera: %w", err))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("logging: %w", err))
	}
	return errs
}
