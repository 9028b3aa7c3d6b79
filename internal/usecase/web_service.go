package usecase

import (
	"context"
	"log"
	"regexp"
	"sort"
	"strings"

	"github.com/karake-shoya/cheflens/internal/domain"
)

const (
	defaultWebEntityThreshold = 0.5
	defaultWebRequests        = 10
	bestGuessScore            = 1.0
	// foreignScriptLimit rejects best-guess labels dominated by a script
	// that is neither ASCII nor Japanese, a sign of mis-detected packaging
	// text from unrelated product photos on the web.
	foreignScriptLimit = 0.3
)

// fallbackGenericPatterns screens out best-guess labels too generic to name
// an ingredient when the catalog configures no patterns of its own.
var fallbackGenericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(vegetable|fruit|food|produce|grocery|dish|meal|cuisine|ingredient|fridge|refrigerator|kitchen)s?\b`),
	regexp.MustCompile(`(?i)\b\S+\s+(in|with|on|and)\s+\S+`),
}

// WebConfig holds tuning for web-mode extraction
type WebConfig struct {
	// EntityThreshold is the minimum web-entity score kept
	EntityThreshold    float64
	RequestResults     int
	MaxResults         int
	EnableDebugLogging bool
}

// WebDetectionService extracts ingredient candidates from web detection:
// best-guess labels (trusted, score 1.0) and scored web entities.
type WebDetectionService struct {
	client             domain.RecognitionClient
	classifier         *Classifier
	translator         *Translator
	genericPatterns    []*regexp.Regexp
	genericKeywords    []string
	foodNames          []string
	entityThreshold    float64
	requestResults     int
	maxResults         int
	enableDebugLogging bool
}

// NewWebDetectionService creates a web-mode extractor
func NewWebDetectionService(
	client domain.RecognitionClient,
	classifier *Classifier,
	translator *Translator,
	catalog *domain.Catalog,
	config WebConfig,
) *WebDetectionService {
	patterns := fallbackGenericPatterns
	if len(catalog.GenericPatterns) > 0 {
		patterns = make([]*regexp.Regexp, 0, len(catalog.GenericPatterns))
		for _, p := range catalog.GenericPatterns {
			// patterns are compile-checked by Catalog.Validate
			patterns = append(patterns, regexp.MustCompile(p))
		}
	}

	keywords := make([]string, 0, len(catalog.GenericKeywords))
	for _, kw := range catalog.GenericKeywords {
		keywords = append(keywords, strings.ToLower(kw))
	}

	threshold := config.EntityThreshold
	if threshold <= 0 {
		threshold = defaultWebEntityThreshold
	}
	requestResults := config.RequestResults
	if requestResults <= 0 {
		requestResults = defaultWebRequests
	}
	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &WebDetectionService{
		client:             client,
		classifier:         classifier,
		translator:         translator,
		genericPatterns:    patterns,
		genericKeywords:    keywords,
		foodNames:          lowerAll(catalog.AllFoodNames()),
		entityThreshold:    threshold,
		requestResults:     requestResults,
		maxResults:         maxResults,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Detect runs web detection and returns translated, deduplicated candidates
func (s *WebDetectionService) Detect(ctx context.Context, img []byte) ([]domain.Candidate, error) {
	res, err := s.client.DetectWeb(ctx, img, s.requestResults)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	var candidates []domain.Candidate

	for _, guess := range res.BestGuesses {
		if s.isTooGeneric(guess) {
			if s.enableDebugLogging {
				log.Printf("[WEB] drop best guess %q: too generic", guess)
			}
			continue
		}
		if !s.classifier.IsFoodRelated(guess) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Name:   s.translator.ToDisplayName(guess),
			Score:  bestGuessScore,
			Source: domain.SourceWeb,
		})
	}

	for _, entity := range res.Entities {
		if entity.Score < s.entityThreshold {
			continue
		}
		if !s.classifier.IsFoodRelated(entity.Description) {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Name:   s.translator.ToDisplayName(entity.Description),
			Score:  entity.Score,
			Source: domain.SourceWeb,
		})
	}

	return s.dedupeByScore(candidates), nil
}

// isTooGeneric rejects best-guess labels that cannot name a concrete
// ingredient: configured (or fallback) generic patterns, a generic keyword
// without any specific food name longer than 3 runes, or a label dominated
// by a foreign script with no native-script characters at all.
func (s *WebDetectionService) isTooGeneric(label string) bool {
	lower := strings.ToLower(label)

	for _, p := range s.genericPatterns {
		if p.MatchString(lower) {
			return true
		}
	}

	for _, kw := range s.genericKeywords {
		if strings.Contains(lower, kw) && !s.containsSpecificFood(lower) {
			return true
		}
	}

	if !containsJapanese(label) && foreignScriptRatio(label) > foreignScriptLimit {
		return true
	}

	return false
}

func (s *WebDetectionService) containsSpecificFood(lower string) bool {
	for _, name := range s.foodNames {
		if len([]rune(name)) > 3 && strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

// dedupeByScore applies similarity filtering pairwise in score-descending
// order: of two similar candidates, only the higher scorer survives.
func (s *WebDetectionService) dedupeByScore(candidates []domain.Candidate) []domain.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	var kept []domain.Candidate
next:
	for _, c := range candidates {
		for _, k := range kept {
			if strings.EqualFold(k.Name, c.Name) || s.classifier.IsSimilar(k.Name, c.Name) {
				continue next
			}
		}
		kept = append(kept, c)
		if len(kept) >= s.maxResults {
			break
		}
	}
	return kept
}

func lowerAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, strings.ToLower(n))
	}
	return out
}
