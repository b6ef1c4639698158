package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"receipt-backend/internal/shared/storage/object"
)

const (
	mimePDF  = "application/pdf"
	mimeText = "text/plain"

	maxTextLayerBytes = 64 << 20
)

// TextLayer reads embedded text from PDFs and plain-text files. Other
// content, and PDFs without a text layer, go to Fallback.
type TextLayer struct {
	Store    object.ObjectStore
	Fallback Extractor
}

func (t *TextLayer) Extract(ctx context.Context, key string, mimeHint string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	kind := normalizeMimeType(mimeHint, key)
	if kind != mimePDF && kind != mimeText {
		return t.fallback(ctx, key, mimeHint)
	}

	data, err := t.read(ctx, key)
	if err != nil {
		return Result{}, err
	}

	switch kind {
	case mimePDF:
		text, pages, err := extractPDF(data)
		if err != nil || strings.TrimSpace(text) == "" {
			return t.fallback(ctx, key, mimeHint)
		}
		return Result{Text: text, Metadata: map[string]any{"engine": EngineTextLayer, "pages": pages}}, nil
	default:
		if !utf8.Valid(data) {
			return Result{}, fmt.Errorf("%w: key=%s: not valid utf-8 text", ErrUnsupported, key)
		}
		return Result{Text: string(data), Metadata: map[string]any{"engine": EngineTextLayer, "pages": 1}}, nil
	}
}

func (t *TextLayer) read(ctx context.Context, key string) ([]byte, error) {
	body, err := t.Store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: key=%s: %w", ErrUnreadable, key, err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxTextLayerBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: key=%s: %w", ErrUnreadable, key, err)
	}
	return data, nil
}

func (t *TextLayer) fallback(ctx context.Context, key, mimeHint string) (Result, error) {
	if t.Fallback == nil {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, mimeHint)
	}
	return t.Fallback.Extract(ctx, key, mimeHint)
}

func extractPDF(data []byte) (string, int, error) {
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", 0, err
	}
	return buf.String(), pdfReader.NumPage(), nil
}

// knownExtensions covers types the host mime table may lack.
var knownExtensions = map[string]string{
	".pdf": mimePDF,
	".txt": mimeText,
}

func normalizeMimeType(mimeHint, key string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeHint, ";")[0]))
	if clean != "" && clean != "application/octet-stream" {
		return clean
	}
	ext := strings.ToLower(path.Ext(key))
	if known, ok := knownExtensions[ext]; ok {
		return known
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		return strings.ToLower(strings.Split(byExt, ";")[0])
	}
	return clean
}
