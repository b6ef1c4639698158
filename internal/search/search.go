package search

import (
	"context"

	"receipt-backend/internal/documents"
)

// Query is a caller's search request. Empty terms do not filter.
type Query struct {
	Q        string
	Category string
	Tag      string
	Limit    int
	Offset   int
}

func (q Query) filter() documents.SearchFilter {
	return documents.SearchFilter{
		Query:    q.Q,
		Category: q.Category,
		Tag:      q.Tag,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}.Normalize()
}

// Searcher runs a filter over one owner's documents.
type Searcher interface {
	Search(ctx context.Context, ownerID string, filter documents.SearchFilter) ([]documents.Document, error)
}

// Service answers owner-scoped document searches.
type Service struct {
	Docs Searcher
}

func NewService(docs Searcher) *Service {
	return &Service{Docs: docs}
}

// Search returns the owner's matching documents, most recently updated first.
func (s *Service) Search(ctx context.Context, ownerID string, q Query) ([]documents.Document, error) {
	return s.Docs.Search(ctx, ownerID, q.filter())
}
