package usecase

import (
	"context"

	"github.com/karake-shoya/cheflens/internal/domain"
)

const defaultObjectRequests = 10

// ObjectDetectionService localizes objects in an image. Raw localization
// and confidence filtering are separate steps so callers can inspect both.
type ObjectDetectionService struct {
	client           domain.RecognitionClient
	confidenceThresh float64
	requestResults   int
}

// NewObjectDetectionService creates an object-mode extractor
func NewObjectDetectionService(client domain.RecognitionClient, confidenceThreshold float64) *ObjectDetectionService {
	return &ObjectDetectionService{
		client:           client,
		confidenceThresh: confidenceThreshold,
		requestResults:   defaultObjectRequests,
	}
}

// Localize returns every detected region, unfiltered
func (s *ObjectDetectionService) Localize(ctx context.Context, img []byte) ([]domain.DetectedRegion, error) {
	return s.client.LocalizeObjects(ctx, img, s.requestResults)
}

// FilterRegions keeps regions at or above the object confidence threshold
func (s *ObjectDetectionService) FilterRegions(regions []domain.DetectedRegion) []domain.DetectedRegion {
	var kept []domain.DetectedRegion
	for _, r := range regions {
		if r.Score >= s.confidenceThresh {
			kept = append(kept, r)
		}
	}
	return kept
}
