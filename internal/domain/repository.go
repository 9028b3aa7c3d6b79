package domain

import (
	"context"
	"image"
)

// RecognitionClient defines the interface for the external image-recognition
// service. One call per feature type; all calls honor context cancellation.
type RecognitionClient interface {
	DetectLabels(ctx context.Context, img []byte, maxResults int) ([]LabelResult, error)
	LocalizeObjects(ctx context.Context, img []byte, maxResults int) ([]DetectedRegion, error)
	DetectWeb(ctx context.Context, img []byte, maxResults int) (*WebResult, error)
	DetectText(ctx context.Context, img []byte) (*TextResult, error)
}

// ImageCropper decodes a source image once and produces per-region crops.
// Crop returns ErrCropTooSmall when the denormalized box is below minSize
// on either edge, and ErrImageProcessing for invalid geometry.
type ImageCropper interface {
	Load(data []byte) (image.Image, error)
	Crop(img image.Image, box BoundingBox, minSize int) ([]byte, error)
}
