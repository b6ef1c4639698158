// Package categorize assigns a document category from keywords found in its
// title and extracted text.
package categorize

import "strings"

// Uncategorized is returned when no rule matches.
const Uncategorized = "uncategorized"

// Rule maps a category label to the keywords that select it.
type Rule struct {
	Label    string
	Keywords []string
}

// DefaultRules is evaluated in order; the first rule with a matching keyword wins.
// Keywords match as plain substrings, so "pos" also hits "purpose".
var DefaultRules = []Rule{
	{Label: "invoice", Keywords: []string{"invoice", "billed", "amount due"}},
	{Label: "receipt", Keywords: []string{"receipt", "store", "pos", "total", "cash", "change"}},
	{Label: "tax", Keywords: []string{"tax", "irs", "government"}},
	{Label: "legal", Keywords: []string{"contract", "agreement", "nda"}},
}

// Categorizer applies an ordered rule table.
type Categorizer struct {
	rules    []Rule
	fallback string
}

// New builds a Categorizer over rules with keywords lower-cased up front.
func New(rules []Rule) *Categorizer {
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, Rule{Label: r.Label, Keywords: kws})
	}
	return &Categorizer{rules: normalized, fallback: Uncategorized}
}

// Categorize returns the label of the first rule with a keyword contained in
// title + " " + text, compared case-insensitively.
func (c *Categorizer) Categorize(title, text string) string {
	haystack := strings.ToLower(title + " " + text)
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(haystack, kw) {
				return r.Label
			}
		}
	}
	return c.fallback
}

var defaultCategorizer = New(DefaultRules)

// Categorize applies DefaultRules.
func Categorize(title, text string) string {
	return defaultCategorizer.Categorize(title, text)
}
