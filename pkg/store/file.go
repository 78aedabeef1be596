package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pyventory/pyventory/pkg/inventory"
)

// latestFile is the filename of the most recent snapshot inside the data
// directory; history lives alongside it under snapshots/.
const latestFile = "latest.json"

// FileStore keeps snapshots as JSON files under a data directory. Every save
// appends to the history and rewrites latest.json, so the latest lookup is a
// single read.
type FileStore struct {
	dir string
}

// NewFileStore creates the data directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "snapshots"), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Save(_ context.Context, snap *inventory.Snapshot) error {
	name := fmt.Sprintf("%s-%s.json", snap.GeneratedAt.UTC().Format("20060102T150405Z"), snap.ID)
	if err := WriteJSON(filepath.Join(s.dir, "snapshots", name), snap); err != nil {
		return err
	}
	return WriteJSON(filepath.Join(s.dir, latestFile), snap)
}

func (s *FileStore) Latest(_ context.Context) (*inventory.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, latestFile))
	if os.IsNotExist(err) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap inventory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

func (s *FileStore) Close(context.Context) error { return nil }

// WriteJSON writes v as indented JSON to path, creating parent directories
// as needed. It is also used directly by the CLI's --out export.
func WriteJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
