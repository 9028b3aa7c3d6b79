package http

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/karake-shoya/cheflens/internal/domain"
)

// FusionDetector runs the combined high-accuracy pipeline
type FusionDetector interface {
	DetectWithDiagnostics(ctx context.Context, img []byte) (*domain.DetectionReport, error)
}

// ModeDetector runs a single-mode extraction
type ModeDetector interface {
	Detect(ctx context.Context, img []byte) ([]domain.Candidate, error)
}

// ObjectLocalizer exposes raw and filtered object localization
type ObjectLocalizer interface {
	Localize(ctx context.Context, img []byte) ([]domain.DetectedRegion, error)
	FilterRegions(regions []domain.DetectedRegion) []domain.DetectedRegion
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	fusion  FusionDetector
	labels  ModeDetector
	webs    ModeDetector
	texts   ModeDetector
	objects ObjectLocalizer
}

// NewHandler creates a new HTTP handler
func NewHandler(fusion FusionDetector, labels, webs, texts ModeDetector, objects ObjectLocalizer) *Handler {
	return &Handler{
		fusion:  fusion,
		labels:  labels,
		webs:    webs,
		texts:   texts,
		objects: objects,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cheflens-engine",
		"version": "1.0.0",
	})
}

// detectRequest is the body of POST /api/v1/ingredients/detect
type detectRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
	Mode        string `json:"mode,omitempty"`
}

// DetectIngredients handles ingredient detection requests. Mode "accurate"
// (the default) runs the fusion pipeline and returns weight diagnostics;
// the simple modes return names only.
func (h *Handler) DetectIngredients(c *gin.Context) {
	var req detectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is required"})
		return
	}

	img, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil || len(img) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image_base64 is not valid base64"})
		return
	}

	mode := strings.ToLower(req.Mode)
	if mode == "" {
		mode = "accurate"
	}

	switch mode {
	case "accurate":
		report, err := h.fusion.DetectWithDiagnostics(c.Request.Context(), img)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"ingredients": report.Ingredients,
			"weights":     report.Weights,
		})
	case "label", "web", "text":
		detector := h.modeDetector(mode)
		candidates, err := detector.Detect(c.Request.Context(), img)
		if err != nil {
			h.writeError(c, err)
			return
		}
		// Simple modes expose names only, no scores
		names := make([]string, 0, len(candidates))
		for _, cand := range candidates {
			names = append(names, cand.Name)
		}
		c.JSON(http.StatusOK, gin.H{"ingredients": names})
	case "object":
		regions, err := h.objects.Localize(c.Request.Context(), img)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"regions":  regions,
			"filtered": h.objects.FilterRegions(regions),
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be one of: accurate, label, web, text, object"})
	}
}

func (h *Handler) modeDetector(mode string) ModeDetector {
	switch mode {
	case "label":
		return h.labels
	case "web":
		return h.webs
	default:
		return h.texts
	}
}

// writeError maps engine errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	var providerErr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrImageProcessing):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrTransport):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.As(err, &providerErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "recognition provider error",
			"provider_status": providerErr.StatusCode,
			"provider_error":  providerErr.Message,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
