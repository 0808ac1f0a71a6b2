package compositor

import (
	"image/color"
	"testing"

	"pixed/pkg/types"

	"github.com/stretchr/testify/assert"
)

func nrgba(r, g, b, a uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

func TestOverNormal(t *testing.T) {
	white := nrgba(255, 255, 255, 255)
	red := nrgba(255, 0, 0, 255)

	assert.Equal(t, red, Over(types.BlendNormal, white, red, 1))
	assert.Equal(t, white, Over(types.BlendNormal, white, red, 0))
	assert.Equal(t, nrgba(255, 128, 128, 255), Over(types.BlendNormal, white, red, 0.5))

	// onto nothing the source keeps its own colour, scaled alpha
	assert.Equal(t, nrgba(255, 0, 0, 128), Over(types.BlendNormal, color.NRGBA{}, red, 0.5))
}

func TestOverSeparableModes(t *testing.T) {
	grey := nrgba(128, 128, 128, 255)
	light := nrgba(204, 204, 204, 255)
	white := nrgba(255, 255, 255, 255)
	black := nrgba(0, 0, 0, 255)

	tests := []struct {
		mode     types.BlendMode
		dst, src color.NRGBA
		want     color.NRGBA
	}{
		{types.BlendMultiply, white, grey, grey},
		{types.BlendMultiply, black, grey, black},
		{types.BlendScreen, black, grey, grey},
		{types.BlendScreen, white, grey, white},
		{types.BlendDarken, light, grey, grey},
		{types.BlendLighten, light, grey, light},
		{types.BlendDifference, white, white, black},
		{types.BlendDifference, white, black, white},
		{types.BlendExclusion, white, white, black},
		{types.BlendColorDodge, black, grey, black},
		{types.BlendColorDodge, grey, white, white},
		{types.BlendColorBurn, white, grey, white},
		{types.BlendColorBurn, grey, black, black},
		{types.BlendHardLight, grey, black, black},
		{types.BlendHardLight, grey, white, white},
		{types.BlendOverlay, black, grey, black},
		{types.BlendOverlay, white, grey, white},
		{types.BlendSoftLight, black, white, black},
		{types.BlendSoftLight, white, black, white},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Over(tt.mode, tt.dst, tt.src, 1))
		})
	}
}

func TestOverNonSeparableModes(t *testing.T) {
	red := nrgba(255, 0, 0, 255)
	grey := nrgba(128, 128, 128, 255)

	// a grey source has no saturation to give: red's luminosity as grey
	desat := Over(types.BlendSaturation, red, grey, 1)
	assert.Equal(t, desat.R, desat.G)
	assert.Equal(t, desat.G, desat.B)
	assert.InDelta(t, 76.5, float64(desat.R), 1)

	// luminosity of grey onto grey is unchanged
	assert.Equal(t, grey, Over(types.BlendLuminosity, grey, grey, 1))

	// colour keeps the backdrop luminosity
	got := Over(types.BlendColor, grey, red, 1)
	assert.InDelta(t, lum(rgb{0.5, 0.5, 0.5}), lum(rgb{float64(got.R) / 255, float64(got.G) / 255, float64(got.B) / 255}), 0.01)
	assert.Greater(t, got.R, got.G)

	// hue from red, saturation and luminosity from the backdrop
	hue := Over(types.BlendHue, grey, red, 1)
	assert.Equal(t, grey, hue, "grey backdrop has no saturation to keep")
}

func TestOverBlendOntoTransparentIsNormal(t *testing.T) {
	src := nrgba(10, 200, 30, 255)
	for _, m := range types.BlendModes() {
		assert.Equal(t, src, Over(m, color.NRGBA{}, src, 1), m.String())
	}
}

func TestSetSat(t *testing.T) {
	out := setSat(rgb{0.2, 0.8, 0.5}, 0.3)
	assert.InDelta(t, 0.0, out[0], 1e-9)
	assert.InDelta(t, 0.3, out[1], 1e-9)
	assert.InDelta(t, 0.15, out[2], 1e-9)

	assert.Equal(t, rgb{}, setSat(rgb{0.4, 0.4, 0.4}, 1))
}

func TestClipColor(t *testing.T) {
	c := clipColor(rgb{1.2, 0.5, 0.5})
	for _, v := range c {
		assert.LessOrEqual(t, v, 1.0+1e-9)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
