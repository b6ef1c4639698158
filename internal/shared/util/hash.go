package util

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// ChecksumReader counts and SHA-256 hashes everything read through it.
type ChecksumReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

// NewChecksumReader wraps r.
func NewChecksumReader(r io.Reader) *ChecksumReader {
	return &ChecksumReader{r: r, h: sha256.New()}
}

func (c *ChecksumReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.h.Write(p[:n])
		c.n += int64(n)
	}
	return n, err
}

// Size returns the number of bytes read so far.
func (c *ChecksumReader) Size() int64 {
	return c.n
}

// Sum returns the hex SHA-256 digest of the bytes read so far.
func (c *ChecksumReader) Sum() string {
	return hex.EncodeToString(c.h.Sum(nil))
}
