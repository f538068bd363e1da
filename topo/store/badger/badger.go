// Package badger implements the snapshot store on top of a Badger
// key-value database.
package badger

import (
	"sort"

	"github.com/dgraph-io/badger/v2"
	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/topo/store"
)

var snapshotPrefix = []byte("hub:snapshot:")

func snapshotKey(asset string) []byte {
	return append(append([]byte(nil), snapshotPrefix...), asset...)
}

// Open returns a store.Store implementation using Badger as the storage
// driver. The store should be .Close()'d after use.
func Open(opts badger.Options) (*badgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := MigrateLatest(db, opts.Dir); err != nil {
		db.Close()
		return nil, err
	}
	return &badgerStore{db: db}, nil
}

var _ store.Store = &badgerStore{}

type badgerStore struct {
	db *badger.DB
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

func (s *badgerStore) SaveSnapshot(snap topo.Snapshot) error {
	if snap.AssetType == "" {
		return store.ErrMalformedSnapshot
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setItem(txn, snapshotKey(snap.AssetType), &snap)
	})
}

func (s *badgerStore) LoadSnapshot(asset string) (topo.Snapshot, error) {
	var snap topo.Snapshot
	err := s.db.View(func(txn *badger.Txn) error {
		return getItem(txn, snapshotKey(asset), &snap)
	})
	if err == badger.ErrKeyNotFound {
		return snap, store.ErrNotFound
	} else if err != nil {
		return snap, err
	}
	// gob drops empty slices
	if snap.Nodes == nil {
		snap.Nodes = []topo.Node{}
	}
	if snap.Edges == nil {
		snap.Edges = []topo.Edge{}
	}
	return snap, nil
}

func (s *badgerStore) DeleteSnapshot(asset string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := snapshotKey(asset)
		if !hasKey(txn, key) {
			return nil
		}
		return txn.Delete(key)
	})
}

func (s *badgerStore) Assets() ([]string, error) {
	var assets []string
	err := s.db.View(func(txn *badger.Txn) error {
		return loopKeys(txn, snapshotPrefix, func(suffix []byte) error {
			assets = append(assets, string(suffix))
			return nil
		})
	})
	sort.Strings(assets)
	return assets, err
}
