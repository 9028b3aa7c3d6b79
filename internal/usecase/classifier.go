package usecase

import (
	"strings"

	"github.com/karake-shoya/cheflens/internal/domain"
)

// tokenStopWords are modifier words too common to establish similarity on
// their own when comparing token sets.
var tokenStopWords = map[string]bool{
	"salad":   true,
	"soup":    true,
	"dish":    true,
	"meal":    true,
	"recipe":  true,
	"cooking": true,
	"food":    true,
}

// minTokenLen is the shortest token considered in token-overlap similarity
const minTokenLen = 4

// similarityGroup is a SimilarityGroup preprocessed for membership tests
type similarityGroup struct {
	primary string
	members map[string]bool // lowercased {primary} ∪ synonyms
}

// Classifier decides whether a label names a food item and whether two
// names refer to the same or closely related food. All decisions are pure
// functions of the immutable catalog, so one instance is safely shared
// across concurrent requests.
type Classifier struct {
	foodNames         []string            // lowercased specific food names
	categories        map[string][]string // category -> lowercased names
	excludeKeywords   []string
	genericCategories map[string]bool
	groups            []similarityGroup
	translator        *Translator
}

// NewClassifier creates a classifier over the catalog tables
func NewClassifier(catalog *domain.Catalog, translator *Translator) *Classifier {
	categories := make(map[string][]string, len(catalog.Categories))
	var foodNames []string
	for cat, names := range catalog.Categories {
		lowered := make([]string, 0, len(names))
		for _, n := range names {
			l := strings.ToLower(n)
			lowered = append(lowered, l)
			foodNames = append(foodNames, l)
		}
		categories[cat] = lowered
	}

	exclude := make([]string, 0, len(catalog.ExcludeKeywords))
	for _, kw := range catalog.ExcludeKeywords {
		exclude = append(exclude, strings.ToLower(kw))
	}

	generic := make(map[string]bool, len(catalog.GenericCategories))
	for _, g := range catalog.GenericCategories {
		generic[strings.ToLower(g)] = true
	}

	groups := make([]similarityGroup, 0, len(catalog.SimilarityGroups))
	for _, g := range catalog.SimilarityGroups {
		members := make(map[string]bool, len(g.Synonyms)+1)
		members[strings.ToLower(g.Primary)] = true
		for _, s := range g.Synonyms {
			members[strings.ToLower(s)] = true
		}
		groups = append(groups, similarityGroup{primary: g.Primary, members: members})
	}

	return &Classifier{
		foodNames:         foodNames,
		categories:        categories,
		excludeKeywords:   exclude,
		genericCategories: generic,
		groups:            groups,
		translator:        translator,
	}
}

// IsFoodRelated reports whether a detected label names a food item.
// Exclude keywords and bare generic-category words are rejected first;
// acceptance requires a configured specific food name as a substring, or,
// for compound labels, a first token that matches one.
func (c *Classifier) IsFoodRelated(label string) bool {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return false
	}

	for _, kw := range c.excludeKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if c.genericCategories[lower] {
		return false
	}

	for _, name := range c.foodNames {
		if strings.Contains(lower, name) {
			return true
		}
	}

	// Compound labels like "leaf vegetable salad" are accepted via their
	// first token matching "leaf vegetable", while bare "salad" stays out
	// through the generic-category check above.
	tokens := splitCompound(lower)
	if len(tokens) > 1 {
		return c.matchesFoodName(tokens[0])
	}

	return false
}

// matchesFoodName reports whether a token substring-matches any configured
// food name, in either direction. Tokens under 3 runes are too ambiguous.
func (c *Classifier) matchesFoodName(token string) bool {
	if len([]rune(token)) < 3 {
		return false
	}
	for _, name := range c.foodNames {
		if strings.Contains(name, token) || strings.Contains(token, name) {
			return true
		}
	}
	return false
}

// IsSimilar reports whether two names refer to the same or closely related
// food. Symmetric in its arguments. Both names are normalized to display
// form before comparison so a source-language label matches its
// translation.
func (c *Classifier) IsSimilar(name1, name2 string) bool {
	a := strings.ToLower(c.translator.ToDisplayName(name1))
	b := strings.ToLower(c.translator.ToDisplayName(name2))
	if a == "" || b == "" {
		return false
	}

	if a == b {
		return true
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	if c.inSameGroup(a, b) {
		return true
	}

	// Compound refinement: when each name's first token independently names
	// a known food, similarity is decided on those first tokens alone. Two
	// different foods sharing only a modifier word must not merge.
	ta := firstToken(a)
	tb := firstToken(b)
	if ta != a || tb != b {
		if c.matchesFoodName(ta) && c.matchesFoodName(tb) {
			return ta == tb || strings.Contains(ta, tb) || strings.Contains(tb, ta)
		}
	}

	return tokenSetsOverlap(a, b)
}

// inSameGroup reports whether two lowercased names co-occur in any
// configured similarity group.
func (c *Classifier) inSameGroup(a, b string) bool {
	for _, g := range c.groups {
		if g.members[a] && g.members[b] {
			return true
		}
	}
	return false
}

// PreferredName resolves which of two similar names should survive a merge.
// It returns the primary of the similarity group containing both names
// (directly or via their translated counterparts) when one of the two
// equals or contains that primary. ok=false tells the caller to fall back
// to its own tie-break.
func (c *Classifier) PreferredName(name1, name2 string) (string, bool) {
	forms1 := c.nameForms(name1)
	forms2 := c.nameForms(name2)

	for _, g := range c.groups {
		if !anyMember(g.members, forms1) || !anyMember(g.members, forms2) {
			continue
		}
		primary := strings.ToLower(g.primary)
		for _, f := range append(forms1, forms2...) {
			if f == primary || strings.Contains(f, primary) {
				return g.primary, true
			}
		}
	}
	return "", false
}

// nameForms returns the lowercased name plus its translated counterpart
func (c *Classifier) nameForms(name string) []string {
	forms := []string{strings.ToLower(name)}
	display := strings.ToLower(c.translator.ToDisplayName(name))
	if display != forms[0] {
		forms = append(forms, display)
	}
	if source, ok := c.translator.ToSourceName(name); ok {
		forms = append(forms, source)
	}
	return forms
}

// CategoryOf returns the catalog category of the first configured food name
// contained in the label. Display-language labels are resolved through their
// source-language form, since category tables hold source-language names.
func (c *Classifier) CategoryOf(label string) (string, bool) {
	forms := []string{strings.ToLower(label)}
	if source, ok := c.translator.ToSourceName(label); ok {
		forms = append(forms, source)
	}
	for cat, names := range c.categories {
		for _, name := range names {
			for _, f := range forms {
				if strings.Contains(f, name) {
					return cat, true
				}
			}
		}
	}
	return "", false
}

func anyMember(members map[string]bool, forms []string) bool {
	for _, f := range forms {
		if members[f] {
			return true
		}
	}
	return false
}

// splitCompound splits a label on whitespace, hyphens, and underscores
func splitCompound(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_'
	})
}

func firstToken(s string) string {
	tokens := splitCompound(s)
	if len(tokens) == 0 {
		return s
	}
	return tokens[0]
}

// tokenSetsOverlap compares whitespace-delimited token sets, ignoring
// short tokens and common modifier stop words.
func tokenSetsOverlap(a, b string) bool {
	setA := significantTokens(a)
	if len(setA) == 0 {
		return false
	}
	for t := range significantTokens(b) {
		if setA[t] {
			return true
		}
	}
	return false
}

func significantTokens(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		if len([]rune(t)) < minTokenLen || tokenStopWords[t] {
			continue
		}
		set[t] = true
	}
	return set
}
