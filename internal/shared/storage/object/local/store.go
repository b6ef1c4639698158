package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"receipt-backend/internal/shared/storage/object"
	"receipt-backend/internal/shared/util"
)

const maxCreateAttempts = 5

// Store implements ObjectStore using the local filesystem.
type Store struct {
	baseDir string
	now     func() time.Time
}

// New creates a new local object store rooted at baseDir.
func New(baseDir string) *Store {
	if abs, err := filepath.Abs(baseDir); err == nil {
		baseDir = abs
	}
	return &Store{baseDir: baseDir, now: time.Now}
}

// WithClock overrides the clock used to stamp object keys.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Save streams r into a new file, hashing it on the way, and never
// overwrites an existing object.
func (s *Store) Save(ctx context.Context, ownerID, documentID, fileName string, r io.Reader) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	key, err := object.BuildKey(ownerID, documentID, fileName, s.now())
	if err != nil {
		return object.Object{}, err
	}

	dirPath := filepath.Join(s.baseDir, filepath.FromSlash(path.Dir(key)))
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return object.Object{}, fmt.Errorf("mkdir: %w", err)
	}

	f, key, err := s.createExclusive(key)
	if err != nil {
		return object.Object{}, err
	}

	cr := util.NewChecksumReader(r)
	if _, err := io.Copy(f, cr); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return object.Object{}, fmt.Errorf("write body: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return object.Object{}, fmt.Errorf("close file: %w", err)
	}

	return object.Object{Key: key, SizeBytes: cr.Size(), Checksum: cr.Sum()}, nil
}

// createExclusive opens key for writing, adding a random suffix to the
// stamp when another save in the same second already took the name.
func (s *Store) createExclusive(key string) (*os.File, string, error) {
	candidate := key
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		f, err := os.OpenFile(s.fullPath(candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("open file: %w", err)
		}
		candidate = object.AltKey(key)
	}
	return nil, "", fmt.Errorf("open file: too many collisions for %s", key)
}

// Open opens a stored object for reading.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.fullPath(clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", object.ErrNotFound, key)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes a stored object. Missing objects are ignored.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	clean, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(s.fullPath(clean)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Resolve returns the absolute filesystem path for key.
func (s *Store) Resolve(key string) string {
	return s.fullPath(key)
}

func (s *Store) fullPath(key string) string {
	return filepath.Join(s.baseDir, filepath.FromSlash(key))
}

func cleanKey(key string) (string, error) {
	clean := path.Clean(strings.ReplaceAll(key, "\\", "/"))
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return "", fmt.Errorf("%w: %s", object.ErrInvalidKey, key)
	}
	return clean, nil
}

var _ object.ObjectStore = (*Store)(nil)
