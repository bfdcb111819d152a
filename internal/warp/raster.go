// Package warp maps projected coordinates into texture space and resamples
// raster images for display on a curved surface.
package warp

import (
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ErrNotSquare is returned when a square raster is required.
var ErrNotSquare = errors.New("raster is not square")

// ToRGBA converts any image to an *image.RGBA anchored at the origin.
// An *image.RGBA already at the origin is returned as is.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// squareSize returns the edge length of a square image, or ErrNotSquare.
func squareSize(img image.Image) (int, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return 0, ErrNotSquare
	}
	return b.Dx(), nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
