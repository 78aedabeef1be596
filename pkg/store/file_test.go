package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pyventory/pyventory/pkg/inventory"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	if _, err := s.Latest(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("Latest on empty store = %v, want ErrNoSnapshot", err)
	}

	first := &inventory.Snapshot{ID: "one", Org: "acme", GeneratedAt: time.Now().UTC().Add(-time.Hour)}
	second := &inventory.Snapshot{
		ID:          "two",
		Org:         "acme",
		GeneratedAt: time.Now().UTC(),
		Repositories: []inventory.Repository{
			{Name: "app", FullName: "acme/app", Branches: []inventory.Branch{{Name: "main", HasRequirements: true}}},
		},
	}
	for _, snap := range []*inventory.Snapshot{first, second} {
		if err := s.Save(context.Background(), snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	got, err := s.Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if got.ID != "two" || len(got.Repositories) != 1 || got.Repositories[0].Name != "app" {
		t.Errorf("Latest = %+v, want the second snapshot", got)
	}
}

func TestFileStoreKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		snap := &inventory.Snapshot{ID: id, Org: "acme", GeneratedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Save(context.Background(), snap); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("history has %d files, want one per save", len(entries))
	}
}
