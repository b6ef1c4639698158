package documents

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of DocumentsRepo.
type MemoryRepo struct {
	mu         sync.RWMutex
	docs       map[string]Document
	versions   map[string]Version
	byDocument map[string][]string // documentID -> version IDs in insert order
	owners     map[string][]Ownership
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:       make(map[string]Document),
		versions:   make(map[string]Version),
		byDocument: make(map[string][]string),
		owners:     make(map[string][]Ownership),
	}
}

func (r *MemoryRepo) CreateWithVersion(ctx context.Context, doc Document, version Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if version.DocumentID != doc.ID || doc.LatestVersionID == nil || *doc.LatestVersionID != version.ID {
		return ErrInvalidInput
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = cloneDocument(doc)
	r.versions[version.ID] = cloneVersion(version)
	r.byDocument[doc.ID] = []string{version.ID}
	r.owners[doc.ID] = []Ownership{{UserID: doc.OwnerID, DocumentID: doc.ID, Role: RoleOwner, CreatedAt: doc.CreatedAt}}
	return nil
}

func (r *MemoryRepo) AddVersion(ctx context.Context, version Version) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[version.DocumentID]
	if !ok {
		return ErrNotFound
	}
	r.versions[version.ID] = cloneVersion(version)
	r.byDocument[doc.ID] = append(r.byDocument[doc.ID], version.ID)
	id := version.ID
	doc.LatestVersionID = &id
	doc.UpdatedAt = version.CreatedAt
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) Get(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (r *MemoryRepo) GetForOwner(ctx context.Context, ownerID, documentID string) (Document, error) {
	doc, err := r.Get(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.OwnerID != ownerID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.OwnerID == ownerID {
			out = append(out, cloneDocument(doc))
		}
	}
	sortByUpdated(out)
	return paginate(out, limit, offset), nil
}

func (r *MemoryRepo) ListAll(ctx context.Context, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		out = append(out, cloneDocument(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, limit, offset), nil
}

func (r *MemoryRepo) Search(ctx context.Context, ownerID string, filter SearchFilter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		latestText := ""
		if doc.LatestVersionID != nil {
			if v, ok := r.versions[*doc.LatestVersionID]; ok && v.ExtractedText != nil {
				latestText = *v.ExtractedText
			}
		}
		if filter.Matches(doc, latestText) {
			out = append(out, cloneDocument(doc))
		}
	}
	sortByUpdated(out)
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, documentID string) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return nil, ErrNotFound
	}
	var removed []Version
	for _, id := range r.byDocument[documentID] {
		removed = append(removed, r.versions[id])
		delete(r.versions, id)
	}
	delete(r.byDocument, documentID)
	delete(r.owners, documentID)
	delete(r.docs, documentID)
	return removed, nil
}

func (r *MemoryRepo) GetVersion(ctx context.Context, versionID string) (Version, error) {
	if err := ctx.Err(); err != nil {
		return Version{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[versionID]
	if !ok {
		return Version{}, ErrVersionNotFound
	}
	return cloneVersion(v), nil
}

// ListVersions returns a document's versions, newest first.
func (r *MemoryRepo) ListVersions(ctx context.Context, documentID string) ([]Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byDocument[documentID]
	out := make([]Version, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, cloneVersion(r.versions[ids[i]]))
	}
	return out, nil
}

func (r *MemoryRepo) RecordExtraction(ctx context.Context, versionID, text string, meta map[string]any, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.versions[versionID]
	if !ok {
		return ErrVersionNotFound
	}
	if v.ExtractedAt != nil {
		return ErrAlreadyExtracted
	}
	v.ExtractedText = &text
	v.ExtractionMeta = maps.Clone(meta)
	v.ExtractedAt = &at
	r.versions[versionID] = v
	return nil
}

func (r *MemoryRepo) SetCategory(ctx context.Context, documentID, category string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.Category = &category
	doc.UpdatedAt = at
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) Ownerships(ctx context.Context, documentID string) ([]Ownership, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Ownership(nil), r.owners[documentID]...), nil
}

func sortByUpdated(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
	})
}

func paginate(docs []Document, limit, offset int) []Document {
	if offset >= len(docs) {
		return []Document{}
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs
}

func cloneDocument(doc Document) Document {
	if doc.Category != nil {
		c := *doc.Category
		doc.Category = &c
	}
	if doc.LatestVersionID != nil {
		id := *doc.LatestVersionID
		doc.LatestVersionID = &id
	}
	return doc
}

func cloneVersion(v Version) Version {
	if v.ExtractedText != nil {
		t := *v.ExtractedText
		v.ExtractedText = &t
	}
	if v.ExtractedAt != nil {
		at := *v.ExtractedAt
		v.ExtractedAt = &at
	}
	v.ExtractionMeta = maps.Clone(v.ExtractionMeta)
	return v
}
