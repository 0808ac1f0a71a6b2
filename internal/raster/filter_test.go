package raster

import (
	"testing"

	"pixed/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilter(t *testing.T) {
	f, err := NewSourceFilter([]string{"*.{png,jpg}", "scan-*"})
	require.NoError(t, err)

	assert.True(t, f.Allow("/tmp/photo.png"))
	assert.True(t, f.Allow("shots/cat.jpg"))
	assert.True(t, f.Allow("scan-0001.tiff"))
	assert.False(t, f.Allow("notes.txt"))

	err = f.Check("notes.txt")
	require.Error(t, err)
	assert.Equal(t, errors.UnsupportedSource, errors.KindOf(err))
	assert.NoError(t, f.Check("a.png"))
}

func TestSourceFilterEmptyAcceptsAll(t *testing.T) {
	f, err := NewSourceFilter(nil)
	require.NoError(t, err)
	assert.True(t, f.Allow("anything.xyz"))

	var none *SourceFilter
	assert.True(t, none.Allow("anything.xyz"))
}

func TestSourceFilterBadPattern(t *testing.T) {
	_, err := NewSourceFilter([]string{"*.[png"})
	assert.Error(t, err)
}
