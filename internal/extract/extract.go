package extract

import (
	"context"
	"errors"
	"strings"

	"receipt-backend/internal/shared/storage/object"
)

const (
	EngineStub      = "stub"
	EngineTextLayer = "textlayer"
)

var (
	// ErrUnreadable means the stored blob could not be opened or read.
	ErrUnreadable = errors.New("file unreadable")
	// ErrUnsupported means the engine cannot handle the content type.
	ErrUnsupported = errors.New("unsupported content type")
)

// Result is the text pulled out of a blob plus engine metadata.
type Result struct {
	Text     string
	Metadata map[string]any
}

// Extractor turns a stored blob into text.
type Extractor interface {
	Extract(ctx context.Context, key string, mimeHint string) (Result, error)
}

// New selects an engine by provider name. Unknown names get the stub.
func New(provider string, store object.ObjectStore) Extractor {
	stub := &Stub{Store: store}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case EngineTextLayer:
		return &TextLayer{Store: store, Fallback: stub}
	default:
		return stub
	}
}
