package documents

import (
	"context"
	"time"
)

// DocumentsRepo defines persistence operations for documents and their versions.
type DocumentsRepo interface {
	// CreateWithVersion stores a document, its first version and the owner
	// association atomically. doc.LatestVersionID must point at version.
	CreateWithVersion(ctx context.Context, doc Document, version Version) error
	// AddVersion stores version and makes it the document's latest.
	AddVersion(ctx context.Context, version Version) error
	Get(ctx context.Context, documentID string) (Document, error)
	GetForOwner(ctx context.Context, ownerID, documentID string) (Document, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error)
	ListAll(ctx context.Context, limit, offset int) ([]Document, error)
	Search(ctx context.Context, ownerID string, filter SearchFilter) ([]Document, error)
	// Delete removes the document with its versions and associations and
	// returns the removed versions.
	Delete(ctx context.Context, documentID string) ([]Version, error)
	GetVersion(ctx context.Context, versionID string) (Version, error)
	ListVersions(ctx context.Context, documentID string) ([]Version, error)
	// RecordExtraction writes extraction output once per version.
	RecordExtraction(ctx context.Context, versionID, text string, meta map[string]any, at time.Time) error
	SetCategory(ctx context.Context, documentID, category string, at time.Time) error
	Ownerships(ctx context.Context, documentID string) ([]Ownership, error)
}
