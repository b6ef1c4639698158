package object

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"receipt-backend/internal/shared/util"
)

var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid storage key")
)

// Object describes a stored blob.
type Object struct {
	Key       string
	SizeBytes int64
	Checksum  string
}

// ObjectStore defines the contract for saving and retrieving document blobs.
type ObjectStore interface {
	// Save persists r under the owner's and document's namespace. Two saves
	// never share a key.
	Save(ctx context.Context, ownerID, documentID, fileName string, r io.Reader) (Object, error)
	// Open returns ErrNotFound when no blob exists for key.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob; a missing blob is not an error.
	Delete(ctx context.Context, key string) error
	// Resolve maps a key to the backend's absolute locator.
	Resolve(key string) string
}

const keyTimeLayout = "20060102150405"

// BuildKey returns user_<owner>/doc_<document>/<UTC stamp>__<base name>.
func BuildKey(ownerID, documentID, fileName string, at time.Time) (string, error) {
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("sanitize file name: %w", err)
	}
	if ownerID == "" || documentID == "" {
		return "", fmt.Errorf("%w: owner and document are required", ErrInvalidKey)
	}
	return path.Join(
		"user_"+ownerID,
		"doc_"+documentID,
		at.UTC().Format(keyTimeLayout)+"__"+name,
	), nil
}

// AltKey derives a sibling of key with a random suffix on its timestamp,
// for retrying a save whose key is already taken.
func AltKey(key string) string {
	dir, name := path.Split(key)
	suffix := randomSuffix()
	stamp, rest, ok := strings.Cut(name, "__")
	if !ok {
		return key + "-" + suffix
	}
	return dir + stamp + "-" + suffix + "__" + rest
}

func randomSuffix() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
