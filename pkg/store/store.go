// Package store persists scan snapshots. Two backends are provided: a
// file-based store for local use and a MongoDB store for shared deployments.
package store

import (
	"context"
	"errors"

	"github.com/pyventory/pyventory/pkg/inventory"
)

// ErrNoSnapshot is returned by Latest when nothing has been saved yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Store saves and retrieves snapshots.
type Store interface {
	// Save persists a snapshot.
	Save(ctx context.Context, snap *inventory.Snapshot) error
	// Latest returns the most recently generated snapshot, or ErrNoSnapshot.
	Latest(ctx context.Context) (*inventory.Snapshot, error)
	// Close releases backend resources.
	Close(ctx context.Context) error
}
