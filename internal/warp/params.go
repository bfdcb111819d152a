package warp

// DefaultStretch is the stretch factor of the reference display.
const DefaultStretch = 6.5

// ParamsFromStretch derives bulge parameters from a display stretch factor:
// exponent s/4 and factor -(exponent*s)/100.
func ParamsFromStretch(stretch float64) BulgeOptions {
	exponent := stretch / 4
	return BulgeOptions{
		Factor:   -(exponent * stretch) / 100,
		Exponent: exponent,
	}
}
