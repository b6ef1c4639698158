package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-backend/internal/shared/storage/object"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, time.February, 3, 10, 11, 12, 0, time.UTC)
	return func() time.Time { return at }
}

func TestSaveLayoutAndChecksum(t *testing.T) {
	dir := t.TempDir()
	s := New(dir).WithClock(fixedClock())
	payload := "hello world"

	obj, err := s.Save(context.Background(), "u1", "d1", "notes.txt", strings.NewReader(payload))
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(payload))
	assert.Equal(t, "user_u1/doc_d1/20260203101112__notes.txt", obj.Key)
	assert.Equal(t, int64(len(payload)), obj.SizeBytes)
	assert.Equal(t, hex.EncodeToString(sum[:]), obj.Checksum)
	assert.Equal(t, filepath.Join(dir, "user_u1", "doc_d1", "20260203101112__notes.txt"), s.Resolve(obj.Key))

	rc, err := s.Open(context.Background(), obj.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestSaveSameSecondGetsDistinctKeys(t *testing.T) {
	s := New(t.TempDir()).WithClock(fixedClock())
	ctx := context.Background()

	first, err := s.Save(ctx, "u1", "d1", "a.txt", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := s.Save(ctx, "u1", "d1", "a.txt", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.True(t, strings.HasSuffix(second.Key, "__a.txt"), second.Key)

	rc, err := s.Open(ctx, first.Key)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(data))
}

func TestOpenMissingAndTraversal(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	_, err := s.Open(ctx, "user_u1/doc_d1/missing.txt")
	assert.ErrorIs(t, err, object.ErrNotFound)

	_, err = s.Open(ctx, "../../etc/passwd")
	assert.ErrorIs(t, err, object.ErrInvalidKey)
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	obj, err := s.Save(ctx, "u1", "d1", "a.txt", strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, obj.Key))
	require.NoError(t, s.Delete(ctx, obj.Key))

	_, err = s.Open(ctx, obj.Key)
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestSaveHonorsCanceledContext(t *testing.T) {
	s := New(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Save(ctx, "u1", "d1", "a.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
