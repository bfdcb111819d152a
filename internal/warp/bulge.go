package warp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"runtime"
	"strings"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidOptions is wrapped by option validation failures.
var ErrInvalidOptions = errors.New("invalid warp options")

// Sampling selects how a source pixel is read.
type Sampling int

const (
	// SampleNearest truncates the source position to a pixel. Compressed
	// regions duplicate pixels.
	SampleNearest Sampling = iota
	// SampleBilinear blends the four neighbouring pixels.
	SampleBilinear
)

// String returns the config name of the sampling mode.
func (s Sampling) String() string {
	switch s {
	case SampleNearest:
		return "nearest"
	case SampleBilinear:
		return "bilinear"
	default:
		return fmt.Sprintf("sampling(%d)", int(s))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Sampling) MarshalText() ([]byte, error) {
	if s != SampleNearest && s != SampleBilinear {
		return nil, fmt.Errorf("unknown sampling %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Sampling) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "nearest":
		*s = SampleNearest
	case "bilinear":
		*s = SampleBilinear
	default:
		return fmt.Errorf("unknown sampling %q", string(text))
	}
	return nil
}

// BulgeOptions configures the radial resampler.
type BulgeOptions struct {
	// Factor scales the radius adjustment. Negative values push content
	// outward, positive values pull it toward the center.
	Factor float64 `yaml:"factor"`

	// Exponent is the power of r in the adjustment term.
	Exponent float64 `yaml:"exponent"`

	Sampling Sampling `yaml:"sampling"`

	// Workers caps concurrent row bands. Zero uses GOMAXPROCS.
	Workers int `yaml:"workers"`
}

// Validate checks the options.
func (o BulgeOptions) Validate() error {
	var errs error
	if math.IsNaN(o.Factor) || math.IsInf(o.Factor, 0) {
		errs = multierr.Append(errs, fmt.Errorf("factor must be finite, got %v", o.Factor))
	}
	if !(o.Exponent >= 0) || math.IsInf(o.Exponent, 0) {
		errs = multierr.Append(errs, fmt.Errorf("exponent must be finite and >= 0, got %v", o.Exponent))
	}
	if o.Sampling != SampleNearest && o.Sampling != SampleBilinear {
		errs = multierr.Append(errs, fmt.Errorf("unknown sampling %d", int(o.Sampling)))
	}
	if o.Workers < 0 {
		errs = multierr.Append(errs, fmt.Errorf("workers must be >= 0, got %d", o.Workers))
	}
	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOptions, errs)
	}
	return nil
}

// Bulge radially resamples a square image into a new image of the same size.
// Only the inscribed unit disk is filled; everything outside stays zero.
func Bulge(src *image.RGBA, opts BulgeOptions) (*image.RGBA, error) {
	return BulgeContext(context.Background(), src, opts)
}

// BulgeContext is Bulge with cancellation checked between row bands.
func BulgeContext(ctx context.Context, src *image.RGBA, opts BulgeOptions) (*image.RGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	size, err := squareSize(src)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if size == 0 {
		return dst, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	// Rows crossing the disk center cost more than rows near its edge, so
	// split into several bands per worker.
	band := size / (workers * 4)
	if band < 1 {
		band = 1
	}

	r := resampler{
		src:      src,
		dst:      dst,
		size:     size,
		center:   float64(size) / 2,
		factor:   opts.Factor,
		exponent: opts.Exponent,
		sampling: opts.Sampling,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y0 := 0; y0 < size; y0 += band {
		y1 := min(y0+band, size)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.rows(y0, y1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dst, nil
}

// resampler holds one bulge pass. Each rows call writes only its own
// destination rows.
type resampler struct {
	src, dst *image.RGBA
	size     int
	center   float64
	factor   float64
	exponent float64
	sampling Sampling
}

// source returns the continuous source position for destination pixel
// (i, j), or ok == false when the pixel lies outside the unit disk.
func (r *resampler) source(i, j int) (x, y float64, ok bool) {
	c := r.center
	nx := (float64(i) - c) / c
	ny := (float64(j) - c) / c

	rad := math.Sqrt(nx*nx + ny*ny)
	if rad > 1 {
		return 0, 0, false
	}

	theta := math.Atan2(ny, nx)
	adjusted := rad * (1 - r.factor*math.Pow(rad, r.exponent))
	if adjusted < 0 {
		adjusted = 0
	}

	x = c + adjusted*math.Cos(theta)*c
	y = c + adjusted*math.Sin(theta)*c
	return x, y, true
}

func (r *resampler) rows(y0, y1 int) {
	last := r.size - 1
	for j := y0; j < y1; j++ {
		for i := 0; i < r.size; i++ {
			x, y, ok := r.source(i, j)
			if !ok {
				continue
			}

			d := r.dst.PixOffset(i, j)
			switch r.sampling {
			case SampleBilinear:
				r.bilinear(r.dst.Pix[d:d+4:d+4], x, y)
			default:
				sx := clampInt(int(x), 0, last)
				sy := clampInt(int(y), 0, last)
				s := r.srcOffset(sx, sy)
				copy(r.dst.Pix[d:d+4], r.src.Pix[s:s+4])
			}
		}
	}
}

func (r *resampler) srcOffset(x, y int) int {
	b := r.src.Bounds()
	return r.src.PixOffset(b.Min.X+x, b.Min.Y+y)
}

// bilinear blends the pixels around (x, y), taking pixel centers at +0.5.
func (r *resampler) bilinear(out []uint8, x, y float64) {
	last := r.size - 1
	fx := x - 0.5
	fy := y - 0.5
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clampInt(x0+1, 0, last)
	y1 := clampInt(y0+1, 0, last)
	x0 = clampInt(x0, 0, last)
	y0 = clampInt(y0, 0, last)

	p00 := r.srcOffset(x0, y0)
	p10 := r.srcOffset(x1, y0)
	p01 := r.srcOffset(x0, y1)
	p11 := r.srcOffset(x1, y1)
	pix := r.src.Pix

	for c := 0; c < 4; c++ {
		top := float64(pix[p00+c])*(1-tx) + float64(pix[p10+c])*tx
		bottom := float64(pix[p01+c])*(1-tx) + float64(pix[p11+c])*tx
		v := top*(1-ty) + bottom*ty
		out[c] = uint8(math.Round(math.Min(math.Max(v, 0), 255)))
	}
}
