package testutils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteAndReadPNG(t *testing.T) {
	c := color.NRGBA{R: 10, G: 20, B: 30, A: 128}
	path := WritePNG(t, t.TempDir(), "x.png", 3, 2, c)
	img := ReadPNG(t, path)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
	assert.Equal(t, c, PixelAt(img, 2, 1))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "hello", StripANSI("\x1b[1;32mhello\x1b[0m"))
	assert.Equal(t, "plain", StripANSI("plain"))
}
