package usecase

import (
	"context"
	"log"
	"sort"

	"github.com/karake-shoya/cheflens/internal/domain"
)

// Defaults for the label-mode heuristics. The gap values come from the
// historical tuning of the source data set and are overridable per config.
const (
	defaultScoreGap      = 0.05
	defaultCategoryGap   = 0.09
	defaultMaxResults    = 5
	defaultLabelRequests = 10
)

// LabelConfig holds tuning for label-mode extraction
type LabelConfig struct {
	ConfidenceThreshold float64
	// ScoreGap is the top-two score gap below which the image is treated as
	// containing multiple distinct ingredients
	ScoreGap float64
	// CategoryGap is the score lead a kept label needs to suppress a
	// same-category label in single-ingredient mode
	CategoryGap        float64
	MaxResults         int
	RequestResults     int
	EnableDebugLogging bool
}

// LabelDetectionService extracts ingredient candidates from label detection
type LabelDetectionService struct {
	client             domain.RecognitionClient
	classifier         *Classifier
	translator         *Translator
	confidenceThresh   float64
	scoreGap           float64
	categoryGap        float64
	maxResults         int
	requestResults     int
	enableDebugLogging bool
}

// NewLabelDetectionService creates a label-mode extractor
func NewLabelDetectionService(
	client domain.RecognitionClient,
	classifier *Classifier,
	translator *Translator,
	config LabelConfig,
) *LabelDetectionService {
	scoreGap := config.ScoreGap
	if scoreGap <= 0 {
		scoreGap = defaultScoreGap
	}
	categoryGap := config.CategoryGap
	if categoryGap <= 0 {
		categoryGap = defaultCategoryGap
	}
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	requestResults := config.RequestResults
	if requestResults <= 0 {
		requestResults = defaultLabelRequests
	}

	return &LabelDetectionService{
		client:             client,
		classifier:         classifier,
		translator:         translator,
		confidenceThresh:   config.ConfidenceThreshold,
		scoreGap:           scoreGap,
		categoryGap:        categoryGap,
		maxResults:         maxResults,
		requestResults:     requestResults,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Detect runs label detection and filters the result down to at most
// MaxResults translated ingredient candidates.
func (s *LabelDetectionService) Detect(ctx context.Context, img []byte) ([]domain.Candidate, error) {
	labels, err := s.client.DetectLabels(ctx, img, s.requestResults)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Score > labels[j].Score
	})

	multi := s.isMultiIngredient(labels)
	if s.enableDebugLogging {
		log.Printf("[LABEL] %d labels, multi-ingredient=%v", len(labels), multi)
	}

	kept := s.filterLabels(labels, multi)

	seen := make(map[string]bool, len(kept))
	var result []domain.Candidate
	for _, l := range kept {
		name := s.translator.ToDisplayName(l.Description)
		if seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, domain.Candidate{Name: name, Score: l.Score, Source: domain.SourceLabel})
		if len(result) >= s.maxResults {
			break
		}
	}

	if s.enableDebugLogging {
		log.Printf("[LABEL] kept %d of %d labels", len(result), len(labels))
	}
	return result, nil
}

// isMultiIngredient decides between single- and multi-ingredient mode:
// with at least two food-related labels above the confidence threshold and
// a top-two gap below ScoreGap, the image holds multiple distinct
// ingredients rather than one dominant one with near-duplicate detections.
func (s *LabelDetectionService) isMultiIngredient(sorted []domain.LabelResult) bool {
	var scores []float64
	for _, l := range sorted {
		if l.Score >= s.confidenceThresh && s.classifier.IsFoodRelated(l.Description) {
			scores = append(scores, l.Score)
			if len(scores) == 2 {
				break
			}
		}
	}
	return len(scores) == 2 && scores[0]-scores[1] < s.scoreGap
}

// filterLabels applies the sequential keep/drop rules over score-sorted
// labels. The first surviving label is always kept; later labels are
// dropped when similar to a kept one, and in single-ingredient mode also
// when a kept same-category label outscores them by CategoryGap or more.
func (s *LabelDetectionService) filterLabels(sorted []domain.LabelResult, multi bool) []domain.LabelResult {
	var kept []domain.LabelResult

next:
	for _, l := range sorted {
		if l.Score < s.confidenceThresh {
			continue
		}
		if !s.classifier.IsFoodRelated(l.Description) {
			if s.enableDebugLogging {
				log.Printf("[LABEL] drop %q: not food related", l.Description)
			}
			continue
		}
		if len(kept) == 0 {
			kept = append(kept, l)
			continue
		}
		for _, k := range kept {
			if s.classifier.IsSimilar(k.Description, l.Description) {
				if s.enableDebugLogging {
					log.Printf("[LABEL] drop %q: similar to %q", l.Description, k.Description)
				}
				continue next
			}
			if !multi && k.Score-l.Score >= s.categoryGap && s.sameCategory(k.Description, l.Description) {
				if s.enableDebugLogging {
					log.Printf("[LABEL] drop %q: same category as %q with %.2f lead", l.Description, k.Description, k.Score-l.Score)
				}
				continue next
			}
		}
		kept = append(kept, l)
	}

	return kept
}

func (s *LabelDetectionService) sameCategory(a, b string) bool {
	catA, okA := s.classifier.CategoryOf(a)
	catB, okB := s.classifier.CategoryOf(b)
	return okA && okB && catA == catB
}
