// Package storage defines the corpus directory abstraction.
package storage

// DocumentMeta describes one document file in the corpus directory.
type DocumentMeta struct {
	Path     string // relative to the corpus root
	Checksum string // SHA-256 of the file contents
}

// Provider is the read-only interface over the proposal corpus. The corpus
// is input to the pipeline and is never mutated by this service.
type Provider interface {
	// List returns metadata for every .rst file under the corpus root.
	List() ([]DocumentMeta, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
}
