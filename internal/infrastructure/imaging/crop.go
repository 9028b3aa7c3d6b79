package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/karake-shoya/cheflens/internal/domain"
)

// Cropper produces per-region crops for the fusion pipeline. The source
// image is decoded once via Load and cropped per region; crop buffers are
// plain byte slices scoped to the caller's loop iteration.
type Cropper struct {
	jpegQuality int
}

// NewCropper creates a cropper. Crops are re-encoded as JPEG before being
// sent back to the recognition service.
func NewCropper() *Cropper {
	return &Cropper{jpegQuality: 90}
}

// Load decodes an image payload
func (c *Cropper) Load(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}
	return img, nil
}

// Crop extracts the region described by a normalized bounding box.
// Boxes are clamped to the image bounds; a crop under minSize pixels on
// either edge returns ErrCropTooSmall.
func (c *Cropper) Crop(img image.Image, box domain.BoundingBox, minSize int) ([]byte, error) {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	x0 := bounds.Min.X + int(box.X0*w)
	y0 := bounds.Min.Y + int(box.Y0*h)
	x1 := bounds.Min.X + int(box.X1*w)
	y1 := bounds.Min.Y + int(box.Y1*h)

	x0 = clamp(x0, bounds.Min.X, bounds.Max.X)
	y0 = clamp(y0, bounds.Min.Y, bounds.Max.Y)
	x1 = clamp(x1, bounds.Min.X, bounds.Max.X)
	y1 = clamp(y1, bounds.Min.Y, bounds.Max.Y)

	if x0 >= x1 || y0 >= y1 {
		return nil, fmt.Errorf("%w: degenerate crop region (%d,%d)-(%d,%d)", domain.ErrImageProcessing, x0, y0, x1, y1)
	}
	if x1-x0 < minSize || y1-y0 < minSize {
		return nil, fmt.Errorf("%w: %dx%d below %d", domain.ErrCropTooSmall, x1-x0, y1-y0, minSize)
	}

	cropped := imaging.Crop(img, image.Rect(x0, y0, x1, y1))

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.JPEG, imaging.JPEGQuality(c.jpegQuality)); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrImageProcessing, err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
