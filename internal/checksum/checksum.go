// Package checksum provides SHA-256 digest helpers used for document
// checksums and corpus fingerprints.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Builder accumulates strings incrementally and produces one combined
// digest. The fingerprinting stage feeds it one record per line instead of
// concatenating a copy of the whole corpus.
type Builder struct {
	h hash.Hash
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{h: sha256.New()}
}

// WriteString adds s to the digest.
func (b *Builder) WriteString(s string) {
	_, _ = b.h.Write([]byte(s))
}

// Sum returns the hex-encoded digest of everything written so far.
func (b *Builder) Sum() string {
	return hex.EncodeToString(b.h.Sum(nil))
}
