package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"receipt-backend/internal/shared/storage/object/local"
)

func TestStubReportsResolvedPath(t *testing.T) {
	store := local.New(t.TempDir())
	obj, err := store.Save(context.Background(), "u1", "d1", "scan.png", strings.NewReader("\x89PNG"))
	require.NoError(t, err)

	res, err := New(EngineStub, store).Extract(context.Background(), obj.Key, "image/png")
	require.NoError(t, err)

	assert.Equal(t, "OCR processed content from: "+store.Resolve(obj.Key), res.Text)
	assert.Equal(t, EngineStub, res.Metadata["engine"])
	assert.Equal(t, 0.75, res.Metadata["confidence"])
	assert.Equal(t, 1, res.Metadata["pages"])
}

func TestStubMissingFileIsUnreadable(t *testing.T) {
	store := local.New(t.TempDir())

	_, err := New("", store).Extract(context.Background(), "user_u1/doc_d1/gone.png", "image/png")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.False(t, errors.Is(err, ErrUnsupported))
}

func TestTextLayerReadsPlainText(t *testing.T) {
	store := local.New(t.TempDir())
	obj, err := store.Save(context.Background(), "u1", "d1", "note.txt", strings.NewReader("Amount due: 10.00"))
	require.NoError(t, err)

	res, err := New(EngineTextLayer, store).Extract(context.Background(), obj.Key, "")
	require.NoError(t, err)

	assert.Equal(t, "Amount due: 10.00", res.Text)
	assert.Equal(t, EngineTextLayer, res.Metadata["engine"])
}

func TestTextLayerFallsBackForImagesAndBrokenPDFs(t *testing.T) {
	store := local.New(t.TempDir())
	ctx := context.Background()
	img, err := store.Save(ctx, "u1", "d1", "photo.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	broken, err := store.Save(ctx, "u1", "d1", "bad.pdf", strings.NewReader("not a pdf"))
	require.NoError(t, err)

	ex := New(EngineTextLayer, store)

	res, err := ex.Extract(ctx, img.Key, "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, EngineStub, res.Metadata["engine"])

	res, err = ex.Extract(ctx, broken.Key, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, EngineStub, res.Metadata["engine"])
}

func TestTextLayerRejectsBinaryText(t *testing.T) {
	store := local.New(t.TempDir())
	obj, err := store.Save(context.Background(), "u1", "d1", "blob.txt", strings.NewReader("\xff\xfe\xfd"))
	require.NoError(t, err)

	_, err = New(EngineTextLayer, store).Extract(context.Background(), obj.Key, "text/plain")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestNormalizeMimeType(t *testing.T) {
	assert.Equal(t, "application/pdf", normalizeMimeType("Application/PDF; charset=binary", "x"))
	assert.Equal(t, "application/pdf", normalizeMimeType("", "user_u1/doc_d1/1__scan.PDF"))
	assert.Equal(t, "text/plain", normalizeMimeType("application/octet-stream", "a/b/1__n.txt"))
}
