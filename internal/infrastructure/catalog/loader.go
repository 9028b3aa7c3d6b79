package catalog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/karake-shoya/cheflens/internal/domain"
)

// Load reads and validates the ingredient catalog document. The catalog is
// loaded once at startup and injected into the services as an immutable
// object; there is no global cached instance.
func Load(path string) (*domain.Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: catalog path", domain.ErrConfigMissing)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var cat domain.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}

	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}

	log.Printf("[CATALOG] loaded %s: %d categories, %d dictionary entries, %d similarity groups, %d text patterns",
		path, len(cat.Categories), len(cat.Dictionary), len(cat.SimilarityGroups), len(cat.TextPatterns))

	return &cat, nil
}
