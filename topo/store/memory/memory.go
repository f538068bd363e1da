package memory

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/topo/store"
)

// New implements an ephemeral in-memory store, useful for testing and for
// gateways that rebuild their topology from peers on every start.
func New() *memoryStore {
	return &memoryStore{
		snapshots: map[string][]byte{},
	}
}

// Assert Store implementation
var _ store.Store = &memoryStore{}

type memoryStore struct {
	mu sync.Mutex

	// Encoded so that callers never share slices with the store.
	snapshots map[string][]byte
}

func (s *memoryStore) SaveSnapshot(snap topo.Snapshot) error {
	if snap.AssetType == "" {
		return store.ErrMalformedSnapshot
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.AssetType] = raw
	return nil
}

func (s *memoryStore) LoadSnapshot(asset string) (topo.Snapshot, error) {
	s.mu.Lock()
	raw, ok := s.snapshots[asset]
	s.mu.Unlock()

	var snap topo.Snapshot
	if !ok {
		return snap, store.ErrNotFound
	}
	err := json.Unmarshal(raw, &snap)
	return snap, err
}

func (s *memoryStore) DeleteSnapshot(asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, asset)
	return nil
}

func (s *memoryStore) Assets() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make([]string, 0, len(s.snapshots))
	for asset := range s.snapshots {
		r = append(r, asset)
	}
	sort.Strings(r)
	return r, nil
}

func (s *memoryStore) Close() error {
	return nil
}
