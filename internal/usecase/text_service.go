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
	// fragmentJoinWindow is how many following OCR fragments are joined to
	// the current one before matching, to catch product names split across
	// text boxes.
	fragmentJoinWindow = 2
	// patternConsumeRadius marks this many fragments on each side of a
	// product-pattern hit as consumed, so packaging text around a
	// recognized product cannot spawn spurious extra ingredients.
	patternConsumeRadius = 10
)

// compiledTextPattern is a TextPattern ready for matching
type compiledTextPattern struct {
	re           *regexp.Regexp
	name         string
	priority     int
	suppressedBy []string
}

type variantEntry struct {
	variant string
	name    string
}

// TextConfig holds tuning for text-mode extraction
type TextConfig struct {
	MaxResults         int
	EnableDebugLogging bool
}

// TextDetectionService extracts ingredient names from OCR text. Packaging
// text is messy, so extraction runs a strict per-span cascade: product
// patterns, keyword suppression, display-name lookup, spelling variants,
// then source-language names.
type TextDetectionService struct {
	client             domain.RecognitionClient
	classifier         *Classifier
	translator         *Translator
	patterns           []compiledTextPattern // sorted by ascending priority
	falsePositives     []*regexp.Regexp
	productKeywords    []string
	variants           []variantEntry // sorted by descending variant length
	displayNames       []string       // sorted by descending length
	sourceNames        []string       // sorted by descending length
	maxResults         int
	enableDebugLogging bool
}

// NewTextDetectionService creates a text-mode extractor over the catalog's
// pattern tables and dictionary.
func NewTextDetectionService(
	client domain.RecognitionClient,
	classifier *Classifier,
	translator *Translator,
	catalog *domain.Catalog,
	config TextConfig,
) *TextDetectionService {
	patterns := make([]compiledTextPattern, 0, len(catalog.TextPatterns))
	for _, tp := range catalog.TextPatterns {
		patterns = append(patterns, compiledTextPattern{
			re:           regexp.MustCompile(tp.Pattern),
			name:         tp.Name,
			priority:     tp.Priority,
			suppressedBy: tp.SuppressedBy,
		})
	}
	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].priority < patterns[j].priority
	})

	falsePositives := make([]*regexp.Regexp, 0, len(catalog.FalsePositivePatterns))
	for _, p := range catalog.FalsePositivePatterns {
		falsePositives = append(falsePositives, regexp.MustCompile(p))
	}

	variants := make([]variantEntry, 0, len(catalog.TextVariants))
	for v, name := range catalog.TextVariants {
		variants = append(variants, variantEntry{variant: v, name: name})
	}
	sortByRuneLenDesc(variants, func(e variantEntry) string { return e.variant })

	displaySet := make(map[string]bool, len(catalog.Dictionary))
	var displayNames []string
	for _, display := range catalog.Dictionary {
		if !displaySet[display] {
			displaySet[display] = true
			displayNames = append(displayNames, display)
		}
	}
	sortByRuneLenDesc(displayNames, func(s string) string { return s })

	sourceNames := make([]string, 0, len(catalog.Dictionary))
	for source := range catalog.Dictionary {
		sourceNames = append(sourceNames, strings.ToLower(source))
	}
	sortByRuneLenDesc(sourceNames, func(s string) string { return s })

	maxResults := config.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &TextDetectionService{
		client:             client,
		classifier:         classifier,
		translator:         translator,
		patterns:           patterns,
		falsePositives:     falsePositives,
		productKeywords:    catalog.ProductKeywords,
		variants:           variants,
		displayNames:       displayNames,
		sourceNames:        sourceNames,
		maxResults:         maxResults,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Detect runs text detection and extracts ingredient names as candidates
func (s *TextDetectionService) Detect(ctx context.Context, img []byte) ([]domain.Candidate, error) {
	res, err := s.client.DetectText(ctx, img)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	names := s.ExtractNames(res)
	candidates := make([]domain.Candidate, 0, len(names))
	for _, n := range names {
		candidates = append(candidates, domain.Candidate{Name: n, Score: 1.0, Source: domain.SourceText})
	}
	return candidates, nil
}

// ExtractNames pulls ingredient names out of a recognized text block.
// The full text is scanned first, then individual fragments with up to
// fragmentJoinWindow following fragments appended. A product-pattern hit
// consumes the surrounding fragments.
func (s *TextDetectionService) ExtractNames(res *domain.TextResult) []string {
	matched := make(map[string]bool)
	var accepted []string

	fullText := normalizeText(res.FullText)
	if fullText != "" {
		if name, _ := s.extractFromSpan(fullText, matched); name != "" {
			accepted = s.acceptName(accepted, name)
		}
	}

	fragments := make([]string, len(res.Fragments))
	for i, f := range res.Fragments {
		fragments[i] = normalizeText(f.Text)
	}

	consumed := make([]bool, len(fragments))
	for i := range fragments {
		if consumed[i] || fragments[i] == "" {
			continue
		}

		span := fragments[i]
		for w := 0; ; w++ {
			name, byPattern := s.extractFromSpan(span, matched)
			if name != "" {
				if byPattern {
					s.consumeAround(consumed, i)
				}
				accepted = s.acceptName(accepted, name)
				break
			}
			if w >= fragmentJoinWindow || i+w+1 >= len(fragments) {
				break
			}
			span = span + fragments[i+w+1]
		}
	}

	if len(accepted) > s.maxResults {
		accepted = accepted[:s.maxResults]
	}
	if s.enableDebugLogging {
		log.Printf("[TEXT] extracted %d names from %d fragments", len(accepted), len(fragments))
	}
	return accepted
}

// extractFromSpan runs the extraction cascade over one text span and
// returns the first hit. byPattern reports a product-pattern match, which
// callers treat with wider consumption. An empty name with no pattern hit
// means the span yields nothing — including the deliberate suppression
// cases (false-positive pattern, product keyword).
func (s *TextDetectionService) extractFromSpan(span string, matched map[string]bool) (name string, byPattern bool) {
	for _, fp := range s.falsePositives {
		if fp.MatchString(span) {
			return "", false
		}
	}

	// Stage 1: product-name patterns by priority. A pattern is skipped when
	// a product it defers to already matched anywhere in this text.
nextPattern:
	for _, p := range s.patterns {
		for _, suppressor := range p.suppressedBy {
			if matched[suppressor] {
				continue nextPattern
			}
		}
		if p.re.MatchString(span) {
			matched[p.name] = true
			return p.name, true
		}
	}

	// Stage 2: a product keyword anywhere in the span means the span is
	// packaging text for a product stage 1 already covers; extract nothing.
	lowerSpan := strings.ToLower(span)
	for _, kw := range s.productKeywords {
		if strings.Contains(span, kw) || strings.Contains(lowerSpan, strings.ToLower(kw)) {
			return "", false
		}
	}

	// Stage 3: longest display name contained in the span
	for _, dn := range s.displayNames {
		if strings.Contains(span, dn) {
			return dn, false
		}
	}

	// Stage 4: curated spelling/script variants
	for _, v := range s.variants {
		if strings.Contains(span, v.variant) {
			return v.name, false
		}
	}

	// Stage 5: longest source-language food name, gated on food-relatedness
	for _, sn := range s.sourceNames {
		if strings.Contains(lowerSpan, sn) && s.classifier.IsFoodRelated(sn) {
			return s.translator.ToDisplayName(sn), false
		}
	}

	return "", false
}

// acceptName adds a newly extracted name unless it duplicates an accepted
// one. When two accepted names are similar, the similarity group's
// preferred name wins; without a group the longer name does.
func (s *TextDetectionService) acceptName(accepted []string, name string) []string {
	for i, a := range accepted {
		if strings.EqualFold(a, name) {
			return accepted
		}
		if s.classifier.IsSimilar(a, name) {
			if preferred, ok := s.classifier.PreferredName(a, name); ok {
				accepted[i] = preferred
			} else if len([]rune(name)) > len([]rune(a)) {
				accepted[i] = name
			}
			return accepted
		}
	}
	return append(accepted, name)
}

func (s *TextDetectionService) consumeAround(consumed []bool, center int) {
	lo := center - patternConsumeRadius
	if lo < 0 {
		lo = 0
	}
	hi := center + patternConsumeRadius
	if hi > len(consumed)-1 {
		hi = len(consumed) - 1
	}
	for i := lo; i <= hi; i++ {
		consumed[i] = true
	}
}

// sortByRuneLenDesc sorts entries by descending rune length of their key,
// with lexical order as tie-break for determinism.
func sortByRuneLenDesc[T any](items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		li, lj := len([]rune(ki)), len([]rune(kj))
		if li != lj {
			return li > lj
		}
		return ki < kj
	})
}
