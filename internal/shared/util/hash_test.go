package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"testing"
)

func TestChecksumReader(t *testing.T) {
	payload := "Total: 42.00\n"
	cr := NewChecksumReader(strings.NewReader(payload))

	if _, err := io.Copy(io.Discard, cr); err != nil {
		t.Fatalf("copy: %v", err)
	}

	want := sha256.Sum256([]byte(payload))
	if got := cr.Sum(); got != hex.EncodeToString(want[:]) {
		t.Fatalf("checksum mismatch: %s", got)
	}
	if cr.Size() != int64(len(payload)) {
		t.Fatalf("expected size %d, got %d", len(payload), cr.Size())
	}
}

func TestChecksumReaderEmpty(t *testing.T) {
	cr := NewChecksumReader(strings.NewReader(""))
	if _, err := io.Copy(io.Discard, cr); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if cr.Sum() != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Fatalf("unexpected empty digest %s", cr.Sum())
	}
}
