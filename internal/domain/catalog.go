package domain

import (
	"fmt"
	"regexp"
)

// SimilarityGroup is a configured cluster of alternate names for one
// ingredient. Membership is symmetric: any two names drawn from
// {Primary} ∪ Synonyms are similar regardless of query order.
type SimilarityGroup struct {
	Primary  string   `json:"primary"`
	Synonyms []string `json:"synonyms"`
	Note     string   `json:"note,omitempty"`
}

// TextPattern is one product-name pattern for text detection.
// Lower Priority values are tried first. SuppressedBy lists product names
// whose earlier match anywhere in the text skips this pattern, which keeps
// visually similar packaging (e.g. two canned-fish products) apart without
// hardcoding species logic.
type TextPattern struct {
	Pattern      string   `json:"pattern"`
	Name         string   `json:"name"`
	Priority     int      `json:"priority"`
	SuppressedBy []string `json:"suppressed_by,omitempty"`
}

// Catalog is the static ingredient-knowledge document the engine runs on.
// Loaded once at startup and treated as immutable; safe to share across
// concurrent detection requests.
type Catalog struct {
	// Categories maps a food category to its specific food names
	Categories map[string][]string `json:"categories"`

	ConfidenceThreshold       float64 `json:"confidence_threshold"`
	ObjectConfidenceThreshold float64 `json:"object_confidence_threshold"`
	MinCropSize               int     `json:"min_crop_size"`

	ExcludeKeywords   []string `json:"exclude_keywords"`
	GenericCategories []string `json:"generic_categories"`
	GenericPatterns   []string `json:"generic_patterns"`
	GenericKeywords   []string `json:"generic_keywords"`

	SimilarityGroups []SimilarityGroup `json:"similarity_groups"`

	// Dictionary maps a source-language label to its display name
	Dictionary map[string]string `json:"dictionary"`

	TextPatterns          []TextPattern     `json:"text_patterns,omitempty"`
	TextVariants          map[string]string `json:"text_variants,omitempty"`
	ProductKeywords       []string          `json:"product_keywords,omitempty"`
	FalsePositivePatterns []string          `json:"false_positive_patterns,omitempty"`
}

// Validate checks that the catalog carries every required table and that
// all configured regex patterns compile. Called once at load time so the
// engine can fail fast instead of at first request.
func (c *Catalog) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("%w: categories", ErrConfigMissing)
	}
	if len(c.Dictionary) == 0 {
		return fmt.Errorf("%w: dictionary", ErrConfigMissing)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold >= 1 {
		return fmt.Errorf("%w: confidence_threshold must be in (0,1), got %v", ErrConfigMissing, c.ConfidenceThreshold)
	}
	if c.ObjectConfidenceThreshold <= 0 || c.ObjectConfidenceThreshold >= 1 {
		return fmt.Errorf("%w: object_confidence_threshold must be in (0,1), got %v", ErrConfigMissing, c.ObjectConfidenceThreshold)
	}
	if c.MinCropSize <= 0 {
		return fmt.Errorf("%w: min_crop_size must be positive, got %d", ErrConfigMissing, c.MinCropSize)
	}

	for _, p := range c.GenericPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid generic pattern %q: %w", p, err)
		}
	}
	for _, p := range c.FalsePositivePatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid false-positive pattern %q: %w", p, err)
		}
	}
	for _, tp := range c.TextPatterns {
		if tp.Name == "" {
			return fmt.Errorf("%w: text pattern %q has no name", ErrConfigMissing, tp.Pattern)
		}
		if _, err := regexp.Compile(tp.Pattern); err != nil {
			return fmt.Errorf("invalid text pattern %q: %w", tp.Pattern, err)
		}
	}
	for _, g := range c.SimilarityGroups {
		if g.Primary == "" {
			return fmt.Errorf("%w: similarity group with empty primary", ErrConfigMissing)
		}
	}

	return nil
}

// AllFoodNames returns every configured specific food name across categories
func (c *Catalog) AllFoodNames() []string {
	var names []string
	for _, list := range c.Categories {
		names = append(names, list...)
	}
	return names
}
