package config

import (
	"flag"
	"strconv"
)

var (
	flagConfig        = flag.String("config", "", "Path to config file")
	flagDebug         = flag.Bool("debug", false, "Enable debug logging")
	flagLightToSphere = flag.Float64("light-to-sphere", 0, "Light source to sphere center distance")
	flagLightToImage  = flag.Float64("light-to-image", 0, "Light source to image plane distance")
	flagTextureSize   = flag.Int("texture-size", 0, "Texture edge length in pixels")
	flagRadius        = flag.Float64("radius", 0, "Display sphere radius")
	flagStretch       = flag.Float64("stretch", 0, "Derive bulge factor and exponent from a display stretch")
	flagWorkers       = flag.Int("workers", 0, "Concurrent bulge row bands (0 = GOMAXPROCS)")

	flagBulgeFactor   optionalFloat
	flagBulgeExponent optionalFloat
)

func init() {
	flag.Var(&flagBulgeFactor, "bulge-factor", "Bulge radius adjustment factor (overrides stretch)")
	flag.Var(&flagBulgeExponent, "bulge-exponent", "Bulge radius exponent (overrides stretch)")
}

// optionalFloat is a float flag that remembers whether it was given, so zero
// can be set explicitly.
type optionalFloat struct {
	value float64
	set   bool
}

func (f *optionalFloat) String() string {
	if f == nil || !f.set {
		return ""
	}
	return strconv.FormatFloat(f.value, 'g', -1, 64)
}

func (f *optionalFloat) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.value = v
	f.set = true
	return nil
}

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the arguments left after flag parsing.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagLightToSphere > 0 {
		cfg.Projection.LightToSphere = *flagLightToSphere
	}
	if *flagLightToImage > 0 {
		cfg.Projection.LightToImage = *flagLightToImage
	}
	if *flagTextureSize > 0 {
		cfg.Projection.TextureSize = *flagTextureSize
	}
	if *flagRadius > 0 {
		cfg.Projection.RadiusDisplay = *flagRadius
	}
	if *flagStretch > 0 {
		cfg.Warp.Stretch = *flagStretch
	}
	if *flagWorkers > 0 {
		cfg.Warp.Workers = *flagWorkers
	}

	// Explicit bulge parameters win over any stretch.
	if flagBulgeFactor.set || flagBulgeExponent.set {
		cfg.Warp.BulgeOptions = cfg.Warp.Options()
		cfg.Warp.Stretch = 0
		if flagBulgeFactor.set {
			cfg.Warp.Factor = flagBulgeFactor.value
		}
		if flagBulgeExponent.set {
			cfg.Warp.Exponent = flagBulgeExponent.value
		}
	}
}
