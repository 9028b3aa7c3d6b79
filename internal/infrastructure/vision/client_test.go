package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/karake-shoya/cheflens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://vision.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://vision.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestSetDebug(t *testing.T) {
	client := NewClient("test-api-key", "https://vision.example.com")

	assert.False(t, client.debug)

	client.SetDebug(true)
	assert.True(t, client.debug)

	client.SetDebug(false)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// annotateServer returns a test server replying with the given single image
// response for every annotate call.
func annotateServer(t *testing.T, wantFeature string, response imageResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images:annotate", r.URL.Path)
		assert.Equal(t, "test-api-key", r.URL.Query().Get("key"))

		var req annotateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 1)
		require.Len(t, req.Requests[0].Features, 1)
		assert.Equal(t, wantFeature, req.Requests[0].Features[0].Type)

		decoded, err := base64.StdEncoding.DecodeString(req.Requests[0].Image.Content)
		require.NoError(t, err)
		assert.Equal(t, []byte("image-data"), decoded)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(annotateResponse{Responses: []imageResponse{response}})
	}))
}

func TestDetectLabels_Success(t *testing.T) {
	server := annotateServer(t, featureLabelDetection, imageResponse{
		LabelAnnotations: []entityAnnotation{
			{Description: "Tomato", Score: 0.92},
			{Description: "", Score: 0.5},
			{Description: "Vegetable", Score: 0.81},
		},
	})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	labels, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, domain.LabelResult{Description: "Tomato", Score: 0.92}, labels[0])
	assert.Equal(t, domain.LabelResult{Description: "Vegetable", Score: 0.81}, labels[1])
}

func TestLocalizeObjects_Success(t *testing.T) {
	server := annotateServer(t, featureObjectLocalization, imageResponse{
		LocalizedObjectAnnotations: []localizedObject{
			{
				Name:  "Packaged goods",
				Score: 0.82,
				BoundingPoly: boundingPoly{NormalizedVertices: []normalizedVertex{
					{X: 0.1, Y: 0.2}, {X: 0.6, Y: 0.2}, {X: 0.6, Y: 0.7}, {X: 0.1, Y: 0.7},
				}},
			},
			{
				// too few vertices, dropped
				Name:  "Food",
				Score: 0.6,
				BoundingPoly: boundingPoly{NormalizedVertices: []normalizedVertex{
					{X: 0.1, Y: 0.1}, {X: 0.2, Y: 0.2},
				}},
			},
			{
				// no name, dropped
				Score: 0.9,
				BoundingPoly: boundingPoly{NormalizedVertices: []normalizedVertex{
					{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
				}},
			},
		},
	})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	regions, err := client.LocalizeObjects(context.Background(), []byte("image-data"), 10)

	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "Packaged goods", regions[0].Label)
	assert.InDelta(t, 0.82, regions[0].Score, 1e-9)
	assert.Equal(t, domain.BoundingBox{X0: 0.1, Y0: 0.2, X1: 0.6, Y1: 0.7}, regions[0].Box)
}

func TestDetectWeb_Success(t *testing.T) {
	server := annotateServer(t, featureWebDetection, imageResponse{
		WebDetection: &webDetection{
			BestGuessLabels: []bestGuessLabel{{Label: "Canned mackerel"}, {Label: ""}},
			WebEntities: []entityAnnotation{
				{Description: "Mackerel", Score: 0.77},
				{Description: "", Score: 0.9},
			},
		},
	})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	result, err := client.DetectWeb(context.Background(), []byte("image-data"), 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"Canned mackerel"}, result.BestGuesses)
	require.Len(t, result.Entities, 1)
	assert.Equal(t, domain.LabelResult{Description: "Mackerel", Score: 0.77}, result.Entities[0])
}

func TestDetectWeb_NoDetection(t *testing.T) {
	server := annotateServer(t, featureWebDetection, imageResponse{})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	result, err := client.DetectWeb(context.Background(), []byte("image-data"), 10)

	require.NoError(t, err)
	assert.Empty(t, result.BestGuesses)
	assert.Empty(t, result.Entities)
}

func TestDetectText_Success(t *testing.T) {
	server := annotateServer(t, featureTextDetection, imageResponse{
		TextAnnotations: []textAnnotation{
			{Description: "さば水煮\n内容量190g"},
			{Description: "さば水煮"},
			{Description: "内容量190g"},
			{Description: ""},
		},
	})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	result, err := client.DetectText(context.Background(), []byte("image-data"))

	require.NoError(t, err)
	assert.Equal(t, "さば水煮\n内容量190g", result.FullText)
	require.Len(t, result.Fragments, 2)
	assert.Equal(t, "さば水煮", result.Fragments[0].Text)
	assert.Equal(t, "内容量190g", result.Fragments[1].Text)
}

func TestDetectText_Empty(t *testing.T) {
	server := annotateServer(t, featureTextDetection, imageResponse{})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	result, err := client.DetectText(context.Background(), []byte("image-data"))

	require.NoError(t, err)
	assert.Empty(t, result.FullText)
	assert.Empty(t, result.Fragments)
}

func TestAnnotate_EmbeddedError(t *testing.T) {
	server := annotateServer(t, featureLabelDetection, imageResponse{
		Error: &providerStatus{Code: 403, Message: "permission denied"},
	})
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	_, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, 403, provErr.StatusCode)
	assert.Equal(t, "permission denied", provErr.Message)
}

func TestAnnotate_EmptyResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(annotateResponse{})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	_, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadGateway, provErr.StatusCode)
}

func TestAnnotate_ClientErrorNoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	_, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusBadRequest, provErr.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestAnnotate_RetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(annotateResponse{Responses: []imageResponse{
			{LabelAnnotations: []entityAnnotation{{Description: "Tomato", Score: 0.9}}},
		}})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	labels, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, labels, 1)
	assert.Equal(t, "Tomato", labels[0].Description)
}

func TestAnnotate_ExhaustedRetries(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL)
	_, err := client.DetectLabels(context.Background(), []byte("image-data"), 10)

	var provErr *domain.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusServiceUnavailable, provErr.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestBoxFromPoly(t *testing.T) {
	t.Run("axis aligned box from vertices", func(t *testing.T) {
		box, ok := boxFromPoly(boundingPoly{NormalizedVertices: []normalizedVertex{
			{X: 0.5, Y: 0.1}, {X: 0.2, Y: 0.8}, {X: 0.9, Y: 0.4},
		}})
		require.True(t, ok)
		assert.Equal(t, domain.BoundingBox{X0: 0.2, Y0: 0.1, X1: 0.9, Y1: 0.8}, box)
	})

	t.Run("too few vertices", func(t *testing.T) {
		_, ok := boxFromPoly(boundingPoly{NormalizedVertices: []normalizedVertex{{X: 0.1, Y: 0.1}}})
		assert.False(t, ok)
	})

	t.Run("degenerate box", func(t *testing.T) {
		_, ok := boxFromPoly(boundingPoly{NormalizedVertices: []normalizedVertex{
			{X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.4}, {X: 0.5, Y: 0.8},
		}})
		assert.False(t, ok)
	})
}

func TestAnnotate_ContextCancelled(t *testing.T) {
	server := annotateServer(t, featureLabelDetection, imageResponse{})
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("test-api-key", server.URL)
	_, err := client.DetectLabels(ctx, []byte("image-data"), 10)

	assert.True(t, errors.Is(err, context.Canceled))
}