package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlendModeRoundTrip(t *testing.T) {
	modes := BlendModes()
	require.Len(t, modes, 16)

	for _, m := range modes {
		parsed, err := ParseBlendMode(m.String())
		require.NoError(t, err, m.String())
		assert.Equal(t, m, parsed)
	}
}

func TestParseBlendMode(t *testing.T) {
	m, err := ParseBlendMode("  Color-Dodge ")
	require.NoError(t, err)
	assert.Equal(t, BlendColorDodge, m)

	m, err = ParseBlendMode("source-over")
	require.NoError(t, err)
	assert.Equal(t, BlendNormal, m)

	_, err = ParseBlendMode("plus-lighter")
	assert.Error(t, err)
}

func TestBlendModeSeparable(t *testing.T) {
	assert.True(t, BlendExclusion.IsSeparable())
	assert.False(t, BlendHue.IsSeparable())
	assert.False(t, BlendLuminosity.IsSeparable())
	assert.Equal(t, "unknown", BlendMode(99).String())
	assert.False(t, BlendMode(-1).Valid())
}

func TestToolString(t *testing.T) {
	assert.Equal(t, "move", ToolMove.String())
	assert.Equal(t, "generative-fill", ToolGenerativeFill.String())
	assert.Equal(t, []Tool{ToolMove, ToolGenerativeFill, ToolRemoveBackground}, Tools())
}
