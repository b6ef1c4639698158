package extract

import (
	"context"
	"fmt"
	"io"

	"receipt-backend/internal/shared/storage/object"
)

const stubConfidence = 0.75

// Stub stands in for an OCR engine: it proves the blob is readable and
// reports a fixed description of where the content came from.
type Stub struct {
	Store object.ObjectStore
}

func (s *Stub) Extract(ctx context.Context, key string, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := probe(ctx, s.Store, key); err != nil {
		return Result{}, err
	}
	return Result{
		Text: "OCR processed content from: " + s.Store.Resolve(key),
		Metadata: map[string]any{
			"engine":     EngineStub,
			"confidence": stubConfidence,
			"pages":      1,
		},
	}, nil
}

func probe(ctx context.Context, store object.ObjectStore, key string) error {
	body, err := store.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("%w: key=%s: %w", ErrUnreadable, key, err)
	}
	defer body.Close()

	var one [1]byte
	if _, err := body.Read(one[:]); err != nil && err != io.EOF {
		return fmt.Errorf("%w: key=%s: %w", ErrUnreadable, key, err)
	}
	return nil
}
