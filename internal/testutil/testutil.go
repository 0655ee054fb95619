// Package testutil provides shared test helpers for setting up corpora and databases.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/perth/internal/storage"
	"github.com/starford/perth/internal/store"
)

// TestStore creates a temporary SQLite database that is automatically cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "perth-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestCorpus creates a temporary corpus directory with a storage.Provider.
func TestCorpus(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	source, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, source
}

// WriteProposal writes a minimal proposal document into dir and returns its path.
func WriteProposal(t *testing.T, dir string, id int, title, body string) string {
	t.Helper()
	content := fmt.Sprintf("PEP: %d\nTitle: %s\nStatus: Final\nType: Standards Track\nCreated: 01-Jan-2020\nAuthor: Test Author <test@example.org>\n\n%s\n", id, title, body)
	path := filepath.Join(dir, fmt.Sprintf("pep-%04d.rst", id))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
