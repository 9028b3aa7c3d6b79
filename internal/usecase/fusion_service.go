package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sort"
	"strings"

	"github.com/karake-shoya/cheflens/internal/domain"
)

const (
	// defaultTextModeWeight scales text-mode names per crop: on-package
	// text is the most trusted signal, worth 0.9 of the region confidence
	defaultTextModeWeight = 0.9
	// defaultLabelModeScore is the fixed confidence assigned to label-mode
	// output at crop granularity, where labels carry no calibrated score
	defaultLabelModeScore = 0.8
)

// FusionConfig holds tuning for the combined high-accuracy pipeline
type FusionConfig struct {
	MinCropSize        int
	TextModeWeight     float64
	LabelModeScore     float64
	MaxFallbackResults int
	EnableDebugLogging bool
}

// detectionStage is one step of the per-crop cascade: a pure detection
// function plus the rule for deriving a mode score from its candidates.
type detectionStage struct {
	name string
	run  func(ctx context.Context, crop []byte) ([]domain.Candidate, error)
	// modeScore derives the per-candidate mode confidence given the
	// region's object score
	modeScore func(cand domain.Candidate, regionScore float64) float64
}

// FusionService is the combined high-accuracy pipeline: localize objects,
// crop each region, cascade text → web → label detection per crop, then
// aggregate weighted evidence, merge synonyms, and rank.
//
// Regions are processed sequentially; aggregation is commutative over
// count/max, so a bounded worker pool with a mutex around updateWeight
// would preserve results if per-region parallelism is ever needed.
type FusionService struct {
	objects            *ObjectDetectionService
	texts              *TextDetectionService
	webs               *WebDetectionService
	labels             *LabelDetectionService
	cropper            domain.ImageCropper
	classifier         *Classifier
	translator         *Translator
	stages             []detectionStage
	minCropSize        int
	maxFallbackResults int
	enableDebugLogging bool
}

// NewFusionService creates the fusion orchestrator
func NewFusionService(
	objects *ObjectDetectionService,
	texts *TextDetectionService,
	webs *WebDetectionService,
	labels *LabelDetectionService,
	cropper domain.ImageCropper,
	classifier *Classifier,
	translator *Translator,
	config FusionConfig,
) *FusionService {
	textWeight := config.TextModeWeight
	if textWeight <= 0 {
		textWeight = defaultTextModeWeight
	}
	labelScore := config.LabelModeScore
	if labelScore <= 0 {
		labelScore = defaultLabelModeScore
	}
	maxFallback := config.MaxFallbackResults
	if maxFallback <= 0 {
		maxFallback = defaultMaxResults
	}

	s := &FusionService{
		objects:            objects,
		texts:              texts,
		webs:               webs,
		labels:             labels,
		cropper:            cropper,
		classifier:         classifier,
		translator:         translator,
		minCropSize:        config.MinCropSize,
		maxFallbackResults: maxFallback,
		enableDebugLogging: config.EnableDebugLogging,
	}

	// Strict fallback order per crop: on-package text first, then web
	// matches, then generic labels.
	s.stages = []detectionStage{
		{
			name: "text",
			run:  texts.Detect,
			modeScore: func(_ domain.Candidate, regionScore float64) float64 {
				return textWeight * regionScore
			},
		},
		{
			name: "web",
			run:  webs.Detect,
			modeScore: func(cand domain.Candidate, _ float64) float64 {
				return cand.Score
			},
		},
		{
			name: "label",
			run:  labels.Detect,
			modeScore: func(_ domain.Candidate, _ float64) float64 {
				return labelScore
			},
		},
	}

	return s
}

// Detect returns the ranked display-name ingredient list for an image
func (s *FusionService) Detect(ctx context.Context, img []byte) ([]string, error) {
	report, err := s.DetectWithDiagnostics(ctx, img)
	if err != nil {
		return nil, err
	}
	return report.Ingredients, nil
}

// DetectWithDiagnostics runs the full pipeline and returns the ranked
// names together with the per-name weight aggregates.
func (s *FusionService) DetectWithDiagnostics(ctx context.Context, img []byte) (*domain.DetectionReport, error) {
	if len(img) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	regions, err := s.objects.Localize(ctx, img)
	if err != nil {
		// Localization failure is not terminal: the whole-image pass can
		// still serve the request. Only a fallback failure propagates.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("[FUSION] object localization failed, using whole-image fallback: %v", err)
		return s.wholeImageFallback(ctx, img)
	}

	filtered := s.objects.FilterRegions(regions)
	if s.enableDebugLogging {
		log.Printf("[FUSION] %d regions localized, %d above threshold", len(regions), len(filtered))
	}
	if len(filtered) == 0 {
		return s.wholeImageFallback(ctx, img)
	}

	decoded, err := s.cropper.Load(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImageProcessing, err)
	}

	weights := make(map[string]*domain.IngredientWeight)
	var order []string

	for _, region := range filtered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.processRegion(ctx, decoded, region, weights, &order); err != nil {
			// One failing region never aborts the others
			log.Printf("[FUSION] region %q skipped: %v", region.Label, err)
		}
	}

	merged := s.mergeSynonyms(weights, order)
	ranked := rankWeights(merged)

	if len(ranked) == 0 {
		return s.wholeImageFallback(ctx, img)
	}

	names := make([]string, 0, len(ranked))
	for _, w := range ranked {
		names = append(names, w.Name)
	}
	return &domain.DetectionReport{Ingredients: names, Weights: ranked}, nil
}

// processRegion crops one localized region and runs the stage cascade over
// the crop. The crop buffer is scoped to this call.
func (s *FusionService) processRegion(
	ctx context.Context,
	decoded image.Image,
	region domain.DetectedRegion,
	weights map[string]*domain.IngredientWeight,
	order *[]string,
) error {
	crop, err := s.cropper.Crop(decoded, region.Box, s.minCropSize)
	if err != nil {
		if errors.Is(err, domain.ErrCropTooSmall) && s.enableDebugLogging {
			log.Printf("[FUSION] region %q below minimum crop size", region.Label)
		}
		return err
	}

	for _, stage := range s.stages {
		candidates, err := stage.run(ctx, crop)
		if err != nil {
			return fmt.Errorf("%s stage: %w", stage.name, err)
		}
		if len(candidates) == 0 {
			continue
		}
		if s.enableDebugLogging {
			log.Printf("[FUSION] region %q resolved by %s stage (%d candidates)", region.Label, stage.name, len(candidates))
		}
		for _, cand := range candidates {
			modeScore := stage.modeScore(cand, region.Score)
			updateWeight(weights, order, s.translator.ToDisplayName(cand.Name), region.Score, modeScore)
		}
		return nil
	}

	return nil
}

// updateWeight folds one (name, objectScore, modeScore) sighting into the
// running aggregates. Count always increments; the recorded score pair is
// the one that produced the highest integrated score.
func updateWeight(
	weights map[string]*domain.IngredientWeight,
	order *[]string,
	name string,
	objectScore, modeScore float64,
) {
	integrated := objectScore * modeScore

	w, ok := weights[name]
	if !ok {
		w = &domain.IngredientWeight{Name: name}
		weights[name] = w
		*order = append(*order, name)
	}
	w.Count++
	if integrated > w.MaxIntegratedScore {
		w.MaxIntegratedScore = integrated
		w.MaxObjectScore = objectScore
		w.MaxModeScore = modeScore
	}
}

// mergeSynonyms collapses aggregates whose names are similar. The group's
// preferred name keeps its own aggregate and the other is dropped
// outright; with no applicable group the higher occurrence count survives.
func (s *FusionService) mergeSynonyms(weights map[string]*domain.IngredientWeight, order []string) []domain.IngredientWeight {
	var kept []*domain.IngredientWeight

next:
	for _, name := range order {
		w := weights[name]
		for i, k := range kept {
			if !s.classifier.IsSimilar(k.Name, w.Name) {
				continue
			}
			if preferred, ok := s.classifier.PreferredName(k.Name, w.Name); ok {
				if nameMatches(w.Name, preferred) && !nameMatches(k.Name, preferred) {
					kept[i] = w
				}
			} else if w.Count > k.Count {
				kept[i] = w
			}
			continue next
		}
		kept = append(kept, w)
	}

	out := make([]domain.IngredientWeight, 0, len(kept))
	for _, k := range kept {
		out = append(out, *k)
	}
	return out
}

func nameMatches(name, preferred string) bool {
	return strings.EqualFold(name, preferred) ||
		strings.Contains(strings.ToLower(name), strings.ToLower(preferred))
}

// rankWeights orders aggregates by occurrence count, then integrated score
func rankWeights(weights []domain.IngredientWeight) []domain.IngredientWeight {
	sort.SliceStable(weights, func(i, j int) bool {
		if weights[i].Count != weights[j].Count {
			return weights[i].Count > weights[j].Count
		}
		return weights[i].MaxIntegratedScore > weights[j].MaxIntegratedScore
	})
	return weights
}

// wholeImageFallback is the terminal stage: a combined Text+Web pass over
// the uncropped image. Text results are authoritative; web results are
// appended when not similar to an accepted name. A failure here is the one
// case that propagates, since no further fallback exists.
func (s *FusionService) wholeImageFallback(ctx context.Context, img []byte) (*domain.DetectionReport, error) {
	textCands, err := s.texts.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	webCands, err := s.webs.Detect(ctx, img)
	if err != nil {
		return nil, err
	}

	var names []string
	var weights []domain.IngredientWeight

	appendCand := func(cand domain.Candidate) {
		for _, n := range names {
			if strings.EqualFold(n, cand.Name) || s.classifier.IsSimilar(n, cand.Name) {
				return
			}
		}
		names = append(names, cand.Name)
		weights = append(weights, domain.IngredientWeight{
			Name:               cand.Name,
			Count:              1,
			MaxObjectScore:     1.0,
			MaxModeScore:       cand.Score,
			MaxIntegratedScore: cand.Score,
		})
	}

	for _, c := range textCands {
		appendCand(c)
	}
	for _, c := range webCands {
		appendCand(c)
	}

	if len(names) > s.maxFallbackResults {
		names = names[:s.maxFallbackResults]
		weights = weights[:s.maxFallbackResults]
	}

	if s.enableDebugLogging {
		log.Printf("[FUSION] whole-image fallback produced %d names", len(names))
	}
	return &domain.DetectionReport{Ingredients: names, Weights: weights}, nil
}
