package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"

	"receipt-backend/internal/shared/metrics"
	"receipt-backend/internal/shared/storage/object"
	"receipt-backend/internal/shared/telemetry"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 200
)

// JobTracker receives processing work for stored versions.
type JobTracker interface {
	// Submit records a job for the version and dispatches it. Failures of
	// the job itself are recorded on the job, not returned.
	Submit(ctx context.Context, ownerID, documentID, versionID string) error
	// PurgeDocument removes every job of the document.
	PurgeDocument(ctx context.Context, documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store object.ObjectStore
	Repo  DocumentsRepo
	Jobs  JobTracker
	// AllowedExtensions holds lower-case extensions without the dot.
	AllowedExtensions map[string]struct{}
	Now               func() time.Time
}

// NewService constructs a Service accepting the given extensions.
func NewService(store object.ObjectStore, repo DocumentsRepo, jobs JobTracker, allowed []string) *Service {
	set := make(map[string]struct{}, len(allowed))
	for _, ext := range allowed {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			set[ext] = struct{}{}
		}
	}
	return &Service{
		Store:             store,
		Repo:              repo,
		Jobs:              jobs,
		AllowedExtensions: set,
		Now:               func() time.Time { return time.Now().UTC() },
	}
}

// UploadInput carries a new document and its first file.
type UploadInput struct {
	OwnerID     string
	Title       string
	Description string
	Tags        string
	FileName    string
	// ContentType is the client-declared type, used when the extension is unknown.
	ContentType string
	Body        io.Reader
}

// Upload stores the file, records the document with its first version and
// runs the processing job. The returned document reflects the job outcome.
func (s *Service) Upload(ctx context.Context, in UploadInput) (Document, error) {
	if in.Body == nil || strings.TrimSpace(in.FileName) == "" {
		return Document{}, ErrNoFile
	}
	ext, err := s.checkExtension(in.FileName)
	if err != nil {
		return Document{}, err
	}
	title := strings.TrimSpace(in.Title)
	if in.OwnerID == "" || title == "" {
		return Document{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	docID := uuid.NewString()
	obj, err := s.Store.Save(ctx, in.OwnerID, docID, in.FileName, in.Body)
	if err != nil {
		return Document{}, fmt.Errorf("store file: %w", err)
	}

	now := s.now()
	version := Version{
		ID:         uuid.NewString(),
		DocumentID: docID,
		StorageKey: obj.Key,
		Checksum:   obj.Checksum,
		SizeBytes:  obj.SizeBytes,
		CreatedAt:  now,
	}
	latest := version.ID
	doc := Document{
		ID:              docID,
		OwnerID:         in.OwnerID,
		Title:           title,
		FileName:        in.FileName,
		MimeType:        mimeForExtension(ext, in.ContentType),
		Extension:       ext,
		Tags:            strings.TrimSpace(in.Tags),
		Description:     strings.TrimSpace(in.Description),
		LatestVersionID: &latest,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.Repo.CreateWithVersion(ctx, doc, version); err != nil {
		s.removeBlob(ctx, obj.Key)
		return Document{}, err
	}
	metrics.AddUpload(obj.SizeBytes)
	telemetry.Info("document.uploaded", map[string]any{
		"user_id":     in.OwnerID,
		"document_id": doc.ID,
		"version_id":  version.ID,
		"size_bytes":  obj.SizeBytes,
	})

	return s.process(ctx, doc, version.ID)
}

// AddVersion stores a new file for an owned document, makes it the latest
// version and runs the processing job.
func (s *Service) AddVersion(ctx context.Context, ownerID, documentID, fileName string, body io.Reader) (Document, error) {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return Document{}, err
	}
	if body == nil || strings.TrimSpace(fileName) == "" {
		return Document{}, ErrNoFile
	}
	if _, err := s.checkExtension(fileName); err != nil {
		return Document{}, err
	}

	obj, err := s.Store.Save(ctx, ownerID, doc.ID, fileName, body)
	if err != nil {
		return Document{}, fmt.Errorf("store file: %w", err)
	}
	version := Version{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		StorageKey: obj.Key,
		Checksum:   obj.Checksum,
		SizeBytes:  obj.SizeBytes,
		CreatedAt:  s.now(),
	}
	if err := s.Repo.AddVersion(ctx, version); err != nil {
		s.removeBlob(ctx, obj.Key)
		return Document{}, err
	}
	metrics.AddUpload(obj.SizeBytes)
	telemetry.Info("document.version_added", map[string]any{
		"user_id":     ownerID,
		"document_id": doc.ID,
		"version_id":  version.ID,
		"size_bytes":  obj.SizeBytes,
	})

	latest := version.ID
	doc.LatestVersionID = &latest
	doc.UpdatedAt = version.CreatedAt
	return s.process(ctx, doc, version.ID)
}

// Get returns a document owned by ownerID. Foreign documents are reported
// as ErrNotFound.
func (s *Service) Get(ctx context.Context, ownerID, documentID string) (Document, error) {
	if !validID(documentID) {
		return Document{}, ErrNotFound
	}
	return s.Repo.GetForOwner(ctx, ownerID, documentID)
}

// List returns the owner's documents, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	return s.Repo.ListByOwner(ctx, ownerID, limit, offset)
}

// ListAll returns every document, newest first.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	return s.Repo.ListAll(ctx, limit, offset)
}

// Search returns the owner's documents matching filter.
func (s *Service) Search(ctx context.Context, ownerID string, filter SearchFilter) ([]Document, error) {
	return s.Repo.Search(ctx, ownerID, filter.Normalize())
}

// Versions lists an owned document's versions, newest first.
func (s *Service) Versions(ctx context.Context, ownerID, documentID string) ([]Version, error) {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListVersions(ctx, doc.ID)
}

// Delete removes an owned document with its versions, jobs and blobs.
// Blob removal is best effort.
func (s *Service) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return err
	}
	if s.Jobs != nil {
		if err := s.Jobs.PurgeDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("purge jobs: %w", err)
		}
	}
	removed, err := s.Repo.Delete(ctx, doc.ID)
	if err != nil {
		return err
	}
	for _, v := range removed {
		s.removeBlob(ctx, v.StorageKey)
	}
	telemetry.Info("document.deleted", map[string]any{
		"user_id":     ownerID,
		"document_id": doc.ID,
		"versions":    len(removed),
	})
	return nil
}

// Download is an open handle on a document's latest blob.
type Download struct {
	Document Document
	Version  Version
	Body     io.ReadCloser
}

// OpenLatest opens the latest version's blob of an owned document.
func (s *Service) OpenLatest(ctx context.Context, ownerID, documentID string) (Download, error) {
	doc, err := s.Get(ctx, ownerID, documentID)
	if err != nil {
		return Download{}, err
	}
	if doc.LatestVersionID == nil {
		return Download{}, ErrVersionNotFound
	}
	version, err := s.Repo.GetVersion(ctx, *doc.LatestVersionID)
	if err != nil {
		return Download{}, err
	}
	body, err := s.Store.Open(ctx, version.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Download{}, ErrFileMissing
		}
		return Download{}, err
	}
	return Download{Document: doc, Version: version, Body: body}, nil
}

// process runs the job for versionID and reloads the document so the
// response carries its category.
func (s *Service) process(ctx context.Context, doc Document, versionID string) (Document, error) {
	if s.Jobs == nil {
		return doc, nil
	}
	if err := s.Jobs.Submit(ctx, doc.OwnerID, doc.ID, versionID); err != nil {
		telemetry.Error("job.submit_failed", map[string]any{
			"document_id": doc.ID,
			"version_id":  versionID,
			"error":       err,
		})
		return doc, nil
	}
	refreshed, err := s.Repo.Get(ctx, doc.ID)
	if err != nil {
		return doc, nil
	}
	return refreshed, nil
}

func (s *Service) checkExtension(fileName string) (string, error) {
	ext := Extension(fileName)
	if _, ok := s.AllowedExtensions[ext]; !ok || ext == "" {
		return "", ErrTypeNotAllowed
	}
	return ext, nil
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("storage.delete_failed", map[string]any{
			"storage_key": key,
			"error":       err,
		})
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// Extension returns the lower-cased text after the last dot of name, or "".
func Extension(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// mime.TypeByExtension relies on the host tables, which miss these.
var knownMimeTypes = map[string]string{
	"txt":  "text/plain",
	"tif":  "image/tiff",
	"tiff": "image/tiff",
	"bmp":  "image/bmp",
	"heic": "image/heic",
}

func mimeForExtension(ext, declared string) string {
	if t, ok := knownMimeTypes[ext]; ok {
		return t
	}
	if ext != "" {
		if t := mime.TypeByExtension("." + ext); t != "" {
			t, _, _ = strings.Cut(t, ";")
			return strings.TrimSpace(t)
		}
	}
	if declared != "" {
		if t, _, err := mime.ParseMediaType(declared); err == nil {
			return t
		}
	}
	return "application/octet-stream"
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
