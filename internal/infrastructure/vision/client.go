package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/karake-shoya/cheflens/internal/domain"
	"golang.org/x/time/rate"
)

// Client talks to the external image-recognition service. One annotate
// call carries exactly one feature, matching how the engine consumes the
// modes independently.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a recognition client. The provider allows 1800
// requests per minute per key; 25/sec with a small burst stays under it.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(25), 10),
	}
}

// SetDebug toggles request/response logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns the wait before retry attempt n
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(250<<attempt) * time.Millisecond
}

// annotate performs one feature request against the provider and returns
// the single validated image response.
func (c *Client) annotate(ctx context.Context, img []byte, featureType string, maxResults int) (*imageResponse, error) {
	reqBody := annotateRequest{
		Requests: []imageRequest{
			{
				Image:    imagePayload{Content: base64.StdEncoding.EncodeToString(img)},
				Features: []feature{{Type: featureType, MaxResults: maxResults}},
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v1/images:annotate?key=%s", c.baseURL, c.apiKey)

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "ChefLens/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrTransport, err)
			if c.debug {
				log.Printf("[VISION] %s attempt %d transport error: %v", featureType, attempt, err)
			}
			time.Sleep(exponentialBackoff(attempt))
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 500 {
			lastErr = &domain.ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
			if c.debug {
				log.Printf("[VISION] %s attempt %d status %d", featureType, attempt, resp.StatusCode)
			}
			time.Sleep(exponentialBackoff(attempt))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &domain.ProviderError{StatusCode: resp.StatusCode, Message: string(body)}
		}

		return parseAnnotateResponse(body)
	}

	return nil, lastErr
}

// parseAnnotateResponse decodes and validates the provider payload,
// failing fast on a missing responses array or an embedded error.
func parseAnnotateResponse(body []byte) (*imageResponse, error) {
	var decoded annotateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Responses) == 0 {
		return nil, &domain.ProviderError{StatusCode: http.StatusBadGateway, Message: "empty responses array"}
	}

	first := decoded.Responses[0]
	if first.Error != nil {
		return nil, &domain.ProviderError{StatusCode: first.Error.Code, Message: first.Error.Message}
	}
	return &first, nil
}

// DetectLabels requests label detection and returns scored labels
func (c *Client) DetectLabels(ctx context.Context, img []byte, maxResults int) ([]domain.LabelResult, error) {
	resp, err := c.annotate(ctx, img, featureLabelDetection, maxResults)
	if err != nil {
		return nil, err
	}

	labels := make([]domain.LabelResult, 0, len(resp.LabelAnnotations))
	for _, a := range resp.LabelAnnotations {
		if a.Description == "" {
			continue
		}
		labels = append(labels, domain.LabelResult{Description: a.Description, Score: a.Score})
	}
	if c.debug {
		log.Printf("[VISION] label detection returned %d labels", len(labels))
	}
	return labels, nil
}

// LocalizeObjects requests object localization and returns detected
// regions with normalized bounding boxes. Objects missing a usable
// bounding poly are dropped.
func (c *Client) LocalizeObjects(ctx context.Context, img []byte, maxResults int) ([]domain.DetectedRegion, error) {
	resp, err := c.annotate(ctx, img, featureObjectLocalization, maxResults)
	if err != nil {
		return nil, err
	}

	regions := make([]domain.DetectedRegion, 0, len(resp.LocalizedObjectAnnotations))
	for _, obj := range resp.LocalizedObjectAnnotations {
		box, ok := boxFromPoly(obj.BoundingPoly)
		if !ok || obj.Name == "" {
			continue
		}
		regions = append(regions, domain.DetectedRegion{Label: obj.Name, Score: obj.Score, Box: box})
	}
	if c.debug {
		log.Printf("[VISION] object localization returned %d regions", len(regions))
	}
	return regions, nil
}

// boxFromPoly converts a normalized vertex polygon into an axis-aligned
// bounding box.
func boxFromPoly(poly boundingPoly) (domain.BoundingBox, bool) {
	if len(poly.NormalizedVertices) < 3 {
		return domain.BoundingBox{}, false
	}

	box := domain.BoundingBox{X0: 1, Y0: 1, X1: 0, Y1: 0}
	for _, v := range poly.NormalizedVertices {
		if v.X < box.X0 {
			box.X0 = v.X
		}
		if v.Y < box.Y0 {
			box.Y0 = v.Y
		}
		if v.X > box.X1 {
			box.X1 = v.X
		}
		if v.Y > box.Y1 {
			box.Y1 = v.Y
		}
	}
	if box.Width() <= 0 || box.Height() <= 0 {
		return domain.BoundingBox{}, false
	}
	return box, true
}

// DetectWeb requests web detection and returns best guesses plus scored
// web entities.
func (c *Client) DetectWeb(ctx context.Context, img []byte, maxResults int) (*domain.WebResult, error) {
	resp, err := c.annotate(ctx, img, featureWebDetection, maxResults)
	if err != nil {
		return nil, err
	}
	if resp.WebDetection == nil {
		return &domain.WebResult{}, nil
	}

	result := &domain.WebResult{}
	for _, g := range resp.WebDetection.BestGuessLabels {
		if g.Label != "" {
			result.BestGuesses = append(result.BestGuesses, g.Label)
		}
	}
	for _, e := range resp.WebDetection.WebEntities {
		if e.Description == "" {
			continue
		}
		result.Entities = append(result.Entities, domain.LabelResult{Description: e.Description, Score: e.Score})
	}
	if c.debug {
		log.Printf("[VISION] web detection returned %d guesses, %d entities", len(result.BestGuesses), len(result.Entities))
	}
	return result, nil
}

// DetectText requests OCR. The first annotation is the full text block;
// the rest are individual fragments.
func (c *Client) DetectText(ctx context.Context, img []byte) (*domain.TextResult, error) {
	resp, err := c.annotate(ctx, img, featureTextDetection, 0)
	if err != nil {
		return nil, err
	}
	if len(resp.TextAnnotations) == 0 {
		return &domain.TextResult{}, nil
	}

	result := &domain.TextResult{FullText: resp.TextAnnotations[0].Description}
	for _, a := range resp.TextAnnotations[1:] {
		if a.Description == "" {
			continue
		}
		result.Fragments = append(result.Fragments, domain.TextFragment{Text: a.Description})
	}
	if c.debug {
		log.Printf("[VISION] text detection returned %d fragments", len(result.Fragments))
	}
	return result, nil
}
