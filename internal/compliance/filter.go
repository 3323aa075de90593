// Package compliance contains the two brand-safety checks of the pipeline:
// a pre-flight prohibited-term filter over the campaign brief text, and a
// post-hoc vision check that the brand name appears in generated banners.
package compliance

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Prohibited terms grouped by policy category. Matching is case-insensitive
// and word-bounded, so "guaranteed" never fires on "guard" and multi-word
// phrases only fire when they occur contiguously.
var prohibitedTerms = []string{
	// misleading claims
	"guaranteed",
	"100% free",
	"risk-free",
	"no risk",
	"miracle",
	"instant results",
	"scientifically proven",
	// violence and weapons
	"weapon",
	"firearm",
	"ammunition",
	"explosive",
	"violence",
	// controlled substances
	"cocaine",
	"heroin",
	"methamphetamine",
	"cannabis",
	"marijuana",
	"anabolic steroids",
	// discriminatory terms
	"whites only",
	"no foreigners",
	"men only",
	// unverified health claims
	"cures cancer",
	"cure-all",
	"lose weight fast",
	"fountain of youth",
	"detox miracle",
	// financial-scam language
	"get rich quick",
	"double your money",
	"guaranteed returns",
	"ponzi",
	"pyramid scheme",
	// adult content
	"xxx",
	"explicit content",
	"nude",
	// gambling
	"casino",
	"jackpot",
	"betting odds",
	"gambling",
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

var termPatterns = compileTerms(prohibitedTerms)

func compileTerms(terms []string) []termPattern {
	patterns := make([]termPattern, 0, len(terms))
	for _, term := range terms {
		words := strings.Fields(strings.ToLower(term))
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		re := regexp.MustCompile(`\b` + strings.Join(words, `\s+`) + `\b`)
		patterns = append(patterns, termPattern{term: strings.ToLower(term), re: re})
	}
	return patterns
}

// Result aggregates the outcome of a prohibited-term scan. It is immutable
// once produced: IsCompliant holds exactly when ProhibitedWordsFound is empty.
type Result struct {
	IsCompliant          bool                `json:"is_compliant"`
	ProhibitedWordsFound []string            `json:"prohibited_words_found"`
	Violations           map[string][]string `json:"violations"`
}

// Rejection is returned when a brief contains prohibited terms. It carries
// the sorted, deduplicated union of every matched term across all fields.
type Rejection struct {
	Words []string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("compliance: prohibited terms found: %s", strings.Join(r.Words, ", "))
}

// Check scans each named field for prohibited terms. The returned Result is
// always populated; the error is a *Rejection when any field matched. This
// gate runs before any external call is made, never after.
func Check(fields map[string]string) (Result, error) {
	result := Result{
		IsCompliant: true,
		Violations:  map[string][]string{},
	}
	seen := map[string]struct{}{}
	for name, text := range fields {
		lowered := strings.ToLower(text)
		var matched []string
		for _, p := range termPatterns {
			if p.re.MatchString(lowered) {
				matched = append(matched, p.term)
				seen[p.term] = struct{}{}
			}
		}
		if len(matched) > 0 {
			result.Violations[name] = matched
		}
	}
	if len(seen) == 0 {
		return result, nil
	}
	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	result.IsCompliant = false
	result.ProhibitedWordsFound = words
	return result, &Rejection{Words: words}
}
