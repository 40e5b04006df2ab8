package imagerender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// ColorMode defines the color mode for rendering
type ColorMode string

const (
	ColorRGB  ColorMode = "rgb"
	ColorGray ColorMode = "gray"
)

// RenderPagePNG renders one page (0-based) of an open document as PNG.
func RenderPagePNG(doc *fitz.Document, pageIndex, dpi int, mode ColorMode) ([]byte, error) {
	img, err := doc.ImageDPI(pageIndex, float64(dpi))
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageIndex+1, err)
	}
	out, err := EncodePNG(img, mode)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("page", pageIndex+1).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Int("dpi", dpi).
		Str("color", string(mode)).
		Int("png_size", len(out)).
		Msg("rendered page to PNG")
	return out, nil
}

// EncodePNG encodes img, converting to grayscale first when asked.
func EncodePNG(img image.Image, mode ColorMode) ([]byte, error) {
	if mode == ColorGray {
		bounds := img.Bounds()
		gray := image.NewGray(bounds)
		draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
		img = gray
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeToBase64 converts binary data to base64 string
func EncodeToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
