// Package store persists topology snapshots between gateway restarts.
package store

import (
	"errors"

	"github.com/trinity-gateway/hubnode/topo"
)

// ErrNotFound is returned when no snapshot is stored for an asset.
var ErrNotFound = errors.New("snapshot not found")

// ErrMalformedSnapshot is returned when saving a snapshot without an asset
// type.
var ErrMalformedSnapshot = errors.New("malformed snapshot: missing asset type")

// Store is the snapshot storage used by the gateway. It should be
// goroutine-safe.
type Store interface {
	// SaveSnapshot replaces the stored snapshot of s.AssetType.
	SaveSnapshot(s topo.Snapshot) error
	// LoadSnapshot returns the stored snapshot of asset, or ErrNotFound.
	LoadSnapshot(asset string) (topo.Snapshot, error)
	// DeleteSnapshot removes the stored snapshot of asset, if any.
	DeleteSnapshot(asset string) error
	// Assets returns the asset types with a stored snapshot, sorted.
	Assets() ([]string, error)

	// Close shuts down the store.
	Close() error
}

// LoadAll loads every stored snapshot into t and returns the assets that
// were restored.
func LoadAll(s Store, t *topo.Topology) ([]string, error) {
	assets, err := s.Assets()
	if err != nil {
		return nil, err
	}
	var loaded []string
	for _, asset := range assets {
		snap, err := s.LoadSnapshot(asset)
		if err == ErrNotFound {
			continue
		} else if err != nil {
			return loaded, err
		}
		if _, err := t.FromSnapshot(asset, snap); err != nil {
			return loaded, err
		}
		loaded = append(loaded, asset)
	}
	return loaded, nil
}
