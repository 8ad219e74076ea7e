// Package imageutil converts uploaded images to bounded-size WebP.
//
// Media uploads are recompressed so stored blobs stay small: the image is
// scaled to fit 800x600 (never enlarged) and encoded as WebP, stepping the
// quality down until the result fits the size budget.
package imageutil

import (
	"bytes"
	"fmt"
	"image"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// MaxEncodedSize is the size budget for converted images (100 KiB).
const MaxEncodedSize = 100 * 1024

const (
	maxWidth  = 800
	maxHeight = 600

	startQuality = 80
	minQuality   = 10
	qualityStep  = 10

	// Fallback bounds when the budget cannot be met at minimum quality
	fallbackWidth   = 400
	fallbackHeight  = 300
	fallbackQuality = 50
)

// ContentType is the MIME type of converted images.
const ContentType = "image/webp"

// ToWebP decodes src (JPEG, PNG, GIF, TIFF, or BMP), scales it to fit
// 800x600 without enlarging, and encodes WebP. Quality starts at 80 and
// drops in steps of 10 until the output is at most MaxEncodedSize or
// quality reaches 10; if still over budget, the image is rescaled to
// 400x300 at quality 50 and returned regardless of size.
func ToWebP(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	fitted := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	quality := startQuality
	out, err := encode(fitted, quality)
	if err != nil {
		return nil, err
	}

	for len(out) > MaxEncodedSize && quality > minQuality {
		quality -= qualityStep
		out, err = encode(fitted, quality)
		if err != nil {
			return nil, err
		}
	}

	if len(out) > MaxEncodedSize {
		small := imaging.Fit(img, fallbackWidth, fallbackHeight, imaging.Lanczos)
		out, err = encode(small, fallbackQuality)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}
