package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing is returned when a required configuration key or
	// catalog table is absent. Fatal at startup, never retried.
	ErrConfigMissing = errors.New("required configuration missing")

	// ErrTransport is returned when the recognition service cannot be reached
	ErrTransport = errors.New("recognition service unreachable")

	// ErrImageProcessing is returned when an image cannot be decoded or a
	// crop has invalid geometry. Non-fatal at crop granularity.
	ErrImageProcessing = errors.New("image processing failed")

	// ErrCropTooSmall is returned when a region crop is below the minimum
	// edge length in either dimension. The region is skipped, not failed.
	ErrCropTooSmall = errors.New("crop below minimum size")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
)

// ProviderError is a structured error payload returned by the recognition
// service, carrying the provider's HTTP-like status code and message.
type ProviderError struct {
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("recognition provider error (status %d): %s", e.StatusCode, e.Message)
}
