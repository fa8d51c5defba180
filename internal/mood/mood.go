// Package mood resolves free-text mood tags into a shading palette.
package mood

import (
	"strings"

	"github.com/guidoenr/chromafield/internal/palette"
)

// Match is one rule that contributed to a resolved palette.
type Match struct {
	Rule   string
	Hits   int
	Weight float64
}

// Resolver blends the palettes of every rule whose keywords match a tag set.
type Resolver struct {
	rules []Rule
}

// NewResolver uses DefaultRules when rules is empty.
func NewResolver(rules []Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	normalized := make([]Rule, len(rules))
	for i, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = normalize(kw); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized[i] = Rule{Name: r.Name, Keywords: kws, Palette: r.Palette}
	}
	return &Resolver{rules: normalized}
}

// Resolve returns the blended palette for tags, or false when no rule
// matches and the caller should fall back to HashPalette.
func (r *Resolver) Resolve(tags []string) (palette.Palette, bool) {
	p, matches := r.Explain(tags)
	return p, len(matches) > 0
}

// Explain is Resolve plus the per-rule weights that produced the palette.
func (r *Resolver) Explain(tags []string) (palette.Palette, []Match) {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = normalize(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	if len(cleaned) == 0 {
		return palette.Palette{}, nil
	}

	var (
		matches  []Match
		palettes []palette.Palette
		total    int
	)
	for _, rule := range r.rules {
		hits := countHits(rule.Keywords, cleaned)
		if hits == 0 {
			continue
		}
		matches = append(matches, Match{Rule: rule.Name, Hits: hits})
		palettes = append(palettes, rule.Palette)
		total += hits
	}
	if total == 0 {
		return palette.Palette{}, nil
	}

	weights := make([]float64, len(matches))
	for i := range matches {
		matches[i].Weight = float64(matches[i].Hits) / float64(total)
		weights[i] = matches[i].Weight
	}
	return palette.Blend(palettes, weights), matches
}

// countHits counts keywords that match at least one tag, where a match is
// either string containing the other.
func countHits(keywords, tags []string) int {
	hits := 0
	for _, kw := range keywords {
		for _, tag := range tags {
			if strings.Contains(kw, tag) || strings.Contains(tag, kw) {
				hits++
				break
			}
		}
	}
	return hits
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
