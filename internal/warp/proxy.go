package warp

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ProxyOptions configures the blurred-background composite fed to Bulge.
type ProxyOptions struct {
	// ScaleDown shrinks the sharp foreground: its edge is size/ScaleDown.
	ScaleDown float64 `yaml:"scale_down"`

	// BlurSigma is the Gaussian sigma of the background. Zero disables blur.
	BlurSigma float64 `yaml:"blur_sigma"`
}

// DefaultProxyOptions matches the display calibration images.
func DefaultProxyOptions() ProxyOptions {
	return ProxyOptions{
		ScaleDown: 1.01,
		BlurSigma: 5,
	}
}

// Validate checks the options.
func (o ProxyOptions) Validate() error {
	if !(o.ScaleDown > 0) || math.IsInf(o.ScaleDown, 0) {
		return fmt.Errorf("%w: scale_down must be positive, got %v", ErrInvalidOptions, o.ScaleDown)
	}
	if !(o.BlurSigma >= 0) || math.IsInf(o.BlurSigma, 0) {
		return fmt.Errorf("%w: blur_sigma must be >= 0, got %v", ErrInvalidOptions, o.BlurSigma)
	}
	return nil
}

// Proxy squares src to max(width, height), then centers a downscaled sharp
// copy over a blurred full-size copy. Resampling is Lanczos.
func Proxy(src image.Image, opts ProxyOptions) (*image.RGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	b := src.Bounds()
	size := max(b.Dx(), b.Dy())
	if size == 0 {
		return nil, fmt.Errorf("proxy: empty source image")
	}

	square := imaging.Resize(src, size, size, imaging.Lanczos)

	var background image.Image = square
	if opts.BlurSigma > 0 {
		background = imaging.Blur(square, opts.BlurSigma)
	}

	scaled := int(float64(size) / opts.ScaleDown)
	if scaled < 1 {
		scaled = 1
	}
	foreground := imaging.Resize(square, scaled, scaled, imaging.Lanczos)

	offset := (size - scaled) / 2
	composite := imaging.Paste(background, foreground, image.Pt(offset, offset))

	return ToRGBA(composite), nil
}

// Options bundles the full warp: proxy composite then bulge.
type Options struct {
	Proxy ProxyOptions `yaml:"proxy"`
	Bulge BulgeOptions `yaml:"bulge"`
}

// DefaultOptions returns the calibrated display warp.
func DefaultOptions() Options {
	return Options{
		Proxy: DefaultProxyOptions(),
		Bulge: ParamsFromStretch(DefaultStretch),
	}
}

// Validate checks both stages.
func (o Options) Validate() error {
	if err := o.Proxy.Validate(); err != nil {
		return err
	}
	return o.Bulge.Validate()
}

// Warp builds the proxy composite of src and bulges it.
func Warp(ctx context.Context, src image.Image, opts Options) (*image.RGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	proxy, err := Proxy(src, opts.Proxy)
	if err != nil {
		return nil, err
	}
	return BulgeContext(ctx, proxy, opts.Bulge)
}
