package compositor

import (
	"image/color"
	"math"

	"pixed/pkg/types"
)

type rgb [3]float64

// Over composites src onto dst with the given blend mode and layer
// opacity, following the W3C compositing model: the blend function mixes
// the colours where both are present, then the result is laid over the
// backdrop with source-over alpha.
func Over(mode types.BlendMode, dst, src color.NRGBA, opacity float64) color.NRGBA {
	as := float64(src.A) / 255 * opacity
	if as <= 0 {
		return dst
	}
	ab := float64(dst.A) / 255
	cs := rgb{float64(src.R) / 255, float64(src.G) / 255, float64(src.B) / 255}
	cb := rgb{float64(dst.R) / 255, float64(dst.G) / 255, float64(dst.B) / 255}

	mixed := cs
	if ab > 0 && mode != types.BlendNormal {
		b := blend(mode, cb, cs)
		for i := range mixed {
			mixed[i] = (1-ab)*cs[i] + ab*b[i]
		}
	}

	ao := as + ab*(1-as)
	var out rgb
	for i := range out {
		out[i] = (as*mixed[i] + ab*cb[i]*(1-as)) / ao
	}
	return color.NRGBA{R: to8(out[0]), G: to8(out[1]), B: to8(out[2]), A: to8(ao)}
}

func to8(v float64) uint8 {
	return uint8(math.Round(types.Clamp(v, 0, 1) * 255))
}

func blend(mode types.BlendMode, cb, cs rgb) rgb {
	switch mode {
	case types.BlendHue:
		return setLum(setSat(cs, sat(cb)), lum(cb))
	case types.BlendSaturation:
		return setLum(setSat(cb, sat(cs)), lum(cb))
	case types.BlendColor:
		return setLum(cs, lum(cb))
	case types.BlendLuminosity:
		return setLum(cb, lum(cs))
	}
	var out rgb
	for i := range out {
		out[i] = separable(mode, cb[i], cs[i])
	}
	return out
}

func separable(mode types.BlendMode, b, s float64) float64 {
	switch mode {
	case types.BlendMultiply:
		return b * s
	case types.BlendScreen:
		return screen(b, s)
	case types.BlendOverlay:
		return hardLight(s, b)
	case types.BlendDarken:
		return math.Min(b, s)
	case types.BlendLighten:
		return math.Max(b, s)
	case types.BlendColorDodge:
		switch {
		case b == 0:
			return 0
		case s >= 1:
			return 1
		default:
			return math.Min(1, b/(1-s))
		}
	case types.BlendColorBurn:
		switch {
		case b >= 1:
			return 1
		case s <= 0:
			return 0
		default:
			return 1 - math.Min(1, (1-b)/s)
		}
	case types.BlendHardLight:
		return hardLight(b, s)
	case types.BlendSoftLight:
		if s <= 0.5 {
			return b - (1-2*s)*b*(1-b)
		}
		var d float64
		if b <= 0.25 {
			d = ((16*b-12)*b + 4) * b
		} else {
			d = math.Sqrt(b)
		}
		return b + (2*s-1)*(d-b)
	case types.BlendDifference:
		return math.Abs(b - s)
	case types.BlendExclusion:
		return b + s - 2*b*s
	default:
		return s
	}
}

func screen(b, s float64) float64 {
	return b + s - b*s
}

func hardLight(b, s float64) float64 {
	if s <= 0.5 {
		return b * 2 * s
	}
	return screen(b, 2*s-1)
}

func lum(c rgb) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func clipColor(c rgb) rgb {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	if n < 0 {
		for i := range c {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
	}
	if x > 1 {
		for i := range c {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c rgb, l float64) rgb {
	d := l - lum(c)
	return clipColor(rgb{c[0] + d, c[1] + d, c[2] + d})
}

func sat(c rgb) float64 {
	return math.Max(c[0], math.Max(c[1], c[2])) - math.Min(c[0], math.Min(c[1], c[2]))
}

func setSat(c rgb, s float64) rgb {
	// order the channels so that c[lo] <= c[mid] <= c[hi]
	lo, mid, hi := 0, 1, 2
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}
	if c[mid] > c[hi] {
		mid, hi = hi, mid
	}
	if c[lo] > c[mid] {
		lo, mid = mid, lo
	}

	var out rgb
	if c[hi] > c[lo] {
		out[mid] = (c[mid] - c[lo]) * s / (c[hi] - c[lo])
		out[hi] = s
	}
	return out
}
