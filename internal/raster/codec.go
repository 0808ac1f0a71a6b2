package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"

	"pixed/internal/errors"
	"pixed/internal/log"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Decode reads one image in any registered format.
func Decode(r io.Reader, source string) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.NewRasterError("decode failed", source, errors.DecodeFailed, err)
	}
	return img, nil
}

// DecodeBytes decodes data into a settled handle: Ready on success, Failed
// otherwise.
func DecodeBytes(data []byte, source string) *Handle {
	h := NewPending(source)
	img, err := Decode(bytes.NewReader(data), source)
	if err != nil {
		h.Fail(err)
		return h
	}
	h.Resolve(img)
	return h
}

// Open returns a Pending handle and decodes path in the background.
// Decode errors leave the handle Failed and are logged.
func Open(ctx context.Context, path string) *Handle {
	h := NewPending(path)
	go func() {
		img, err := readFile(ctx, path)
		if err != nil {
			log.LogWithError(err).Warn("could not load raster")
			h.Fail(err)
			return
		}
		h.Resolve(img)
	}()
	return h
}

func readFile(ctx context.Context, path string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewRasterError("load cancelled", path, errors.DecodeFailed, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewRasterError("cannot open source", path, errors.DecodeFailed, err)
	}
	defer f.Close()
	return Decode(f, path)
}

// EncodePNG writes the handle's pixels as PNG.
func (h *Handle) EncodePNG(w io.Writer) error {
	img := h.Image()
	if img == nil {
		return errors.NewRasterError("raster is not ready", h.source, errors.RasterNotReady, nil)
	}
	return EncodePNG(w, img)
}

// PNG returns the handle's pixels as PNG bytes.
func (h *Handle) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return errors.NewRasterError("encode failed", "png", errors.EncodeFailed, err)
	}
	return nil
}

// DataURL formats data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURL splits a base64 data URL into its MIME type and payload.
func ParseDataURL(url string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return "", nil, errors.NewRasterError("not a data URL", "data-url", errors.UnsupportedSource, nil)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.NewRasterError("data URL has no payload", "data-url", errors.UnsupportedSource, nil)
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, errors.NewRasterError("only base64 data URLs are supported", "data-url", errors.UnsupportedSource, nil)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, errors.NewRasterError("bad base64 payload", "data-url", errors.DecodeFailed, err)
	}
	return mimeType, data, nil
}
