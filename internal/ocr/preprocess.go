package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth = 2000
	DefaultContrast = 20
)

// Preprocess decodes an image, applies EXIF orientation, caps its width, converts it to
// 8-bit grayscale with a contrast boost and returns PNG bytes ready for OCR.
func Preprocess(data []byte, maxWidth int, contrast float64) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}
	adjusted := imaging.AdjustContrast(imaging.Grayscale(img), contrast)

	gray := image.NewGray(adjusted.Bounds())
	draw.Draw(gray, gray.Bounds(), adjusted, adjusted.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
