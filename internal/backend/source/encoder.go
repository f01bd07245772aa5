package source

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DefaultJPEGQuality matches a lossless-as-possible JPEG output.
const DefaultJPEGQuality = 100

// EncodeJPEG encodes img as JPEG with quality in [1, 100].
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality < 1 || quality > 100 {
		return nil, fmt.Errorf("jpeg quality must be within [1, 100], got %d", quality)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("cannot encode empty image")
	}

	var buf bytes.Buffer
	buf.Grow(b.Dx() * b.Dy() / 4)
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG image: %w", err)
	}
	return buf.Bytes(), nil
}
