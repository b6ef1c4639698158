package documents

import "strings"

const (
	DefaultSearchLimit = 25
	MaxSearchLimit     = 200
)

// SearchFilter narrows an owner's documents. Empty fields do not filter.
type SearchFilter struct {
	// Query matches title, category, tags or latest extracted text, case-insensitively.
	Query string
	// Category must equal the document category exactly.
	Category string
	// Tag matches the raw tags string case-insensitively.
	Tag    string
	Limit  int
	Offset int
}

// Normalize trims the terms and clamps paging.
func (f SearchFilter) Normalize() SearchFilter {
	f.Query = strings.TrimSpace(f.Query)
	f.Category = strings.TrimSpace(f.Category)
	f.Tag = strings.TrimSpace(f.Tag)
	if f.Limit <= 0 {
		f.Limit = DefaultSearchLimit
	}
	if f.Limit > MaxSearchLimit {
		f.Limit = MaxSearchLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether doc, whose latest version has latestText, passes the filter.
func (f SearchFilter) Matches(doc Document, latestText string) bool {
	category := ""
	if doc.Category != nil {
		category = *doc.Category
	}
	if f.Category != "" && category != f.Category {
		return false
	}
	if f.Tag != "" && !containsFold(doc.Tags, f.Tag) {
		return false
	}
	if f.Query != "" {
		return containsFold(doc.Title, f.Query) ||
			containsFold(category, f.Query) ||
			containsFold(doc.Tags, f.Query) ||
			containsFold(latestText, f.Query)
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
