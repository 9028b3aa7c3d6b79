package usecase

import (
	"sort"
	"strings"
)

// Translator maps detected source-language labels to display names using
// the catalog's bilingual dictionary. Lookups never fail: an unknown label
// passes through unchanged.
type Translator struct {
	// lowercased source label -> display name
	dict map[string]string
	// dictionary keys sorted by descending length, for substring fallback
	keysByLen []string
}

// NewTranslator creates a translator from the catalog dictionary
func NewTranslator(dictionary map[string]string) *Translator {
	dict := make(map[string]string, len(dictionary))
	keys := make([]string, 0, len(dictionary))
	for k, v := range dictionary {
		lower := strings.ToLower(k)
		dict[lower] = v
		keys = append(keys, lower)
	}

	// Longer keys first so a specific multi-word entry ("cherry tomato")
	// wins over a shorter generic one ("tomato"). Secondary lexical order
	// keeps the scan deterministic across equal lengths.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	return &Translator{dict: dict, keysByLen: keys}
}

// ToDisplayName resolves a detected label to its display name.
// Exact case-insensitive lookup first, then the longest dictionary key
// contained in the label, then pass-through.
func (t *Translator) ToDisplayName(label string) string {
	lower := strings.ToLower(label)
	if display, ok := t.dict[lower]; ok {
		return display
	}
	for _, key := range t.keysByLen {
		if strings.Contains(lower, key) {
			return t.dict[key]
		}
	}
	return label
}

// ToSourceName reverse-maps a display name to its source-language label.
// Returns false when no dictionary entry maps to that display name.
func (t *Translator) ToSourceName(displayName string) (string, bool) {
	for _, key := range t.keysByLen {
		if strings.EqualFold(t.dict[key], displayName) {
			return key, true
		}
	}
	return "", false
}
