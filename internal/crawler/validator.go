package crawler

import (
	"strings"

	"sjsage522/listingwatch/helpers"
)

// Validate reports whether text actually mentions the search term.
// Single terms accept the name or any variation as a case-insensitive substring.
// Composite terms require every member to match; an empty term list never matches.
func Validate(text string, term SearchTerm) bool {
	text = strings.ToLower(helpers.CollapseSpace(text))
	if text == "" {
		return false
	}

	if term.IsComposite() {
		return matchAll(text, term.Terms)
	}
	if len(term.Terms) == 0 && term.Name == "" && len(term.Variations) == 0 {
		return false
	}

	for _, name := range append([]string{term.Name}, term.Variations...) {
		name = strings.ToLower(helpers.CollapseSpace(name))
		if name != "" && strings.Contains(text, name) {
			return true
		}
	}
	return false
}

func matchAll(text string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	squashedText := squash(text)
	for _, t := range terms {
		t = strings.ToLower(helpers.CollapseSpace(t))
		if t == "" {
			return false
		}
		if strings.Contains(text, t) {
			continue
		}
		if st := squash(t); st != "" && strings.Contains(squashedText, st) {
			continue
		}
		return false
	}
	return true
}

// squash drops spaces and hyphens so "PP 550", "PP-550" and "PP550" compare equal
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}
