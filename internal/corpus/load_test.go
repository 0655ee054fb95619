package corpus

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/perth/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSortedByID(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "pep-0020.rst", "PEP: 20\nTitle: The Zen\n\nx\n")
	writeDoc(t, dir, "pep-0008.rst", "PEP: 8\nTitle: Style Guide\n\nx\n")

	source, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	proposals, err := Load(source, testLogger())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(proposals) != 2 {
		t.Fatalf("Load() returned %d proposals, want 2", len(proposals))
	}
	if proposals[0].ID != 8 || proposals[1].ID != 20 {
		t.Errorf("IDs = %d, %d, want 8, 20", proposals[0].ID, proposals[1].ID)
	}
}

func TestLoadSkipsUnparseable(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "pep-0001.rst", "PEP: 1\nTitle: Good\n\nx\n")
	writeDoc(t, dir, "broken.rst", "no header block here\n")

	source, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	proposals, err := Load(source, testLogger())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(proposals) != 1 || proposals[0].ID != 1 {
		t.Errorf("Load() = %v, want just proposal 1", proposals)
	}
}

func TestLoadFirstDuplicateWins(t *testing.T) {
	dir := t.TempDir()
	// WalkDir yields lexical order, so a.rst is read first.
	writeDoc(t, dir, "a.rst", "PEP: 7\nTitle: First\n\nx\n")
	writeDoc(t, dir, "b.rst", "PEP: 7\nTitle: Second\n\nx\n")

	source, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	proposals, err := Load(source, testLogger())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(proposals) != 1 {
		t.Fatalf("Load() returned %d proposals, want 1", len(proposals))
	}
	if proposals[0].Title != "First" {
		t.Errorf("Title = %q, want the first occurrence kept", proposals[0].Title)
	}
}
