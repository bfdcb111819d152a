package warp

import (
	"errors"
	"math"
)

// ErrDegenerateRange is returned by MapChecked when the source range is empty.
var ErrDegenerateRange = errors.New("degenerate source range")

// Map linearly maps x from [oldMin, oldMax] onto [newMin, newMax].
// Values outside the source range extrapolate; nothing is clamped.
// An empty source range yields ±Inf or NaN.
func Map(x, oldMin, oldMax, newMin, newMax float64) float64 {
	ratio := (x - oldMin) / (oldMax - oldMin)
	return newMin + ratio*(newMax-newMin)
}

// MapChecked is Map that reports an empty source range or a non-finite
// result as ErrDegenerateRange.
func MapChecked(x, oldMin, oldMax, newMin, newMax float64) (float64, error) {
	if oldMin == oldMax {
		return 0, ErrDegenerateRange
	}
	v := Map(x, oldMin, oldMax, newMin, newMax)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrDegenerateRange
	}
	return v, nil
}
