package gateway

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/topo/store"
)

// persister writes snapshots beside the event loop. Only the latest
// snapshot of each asset is kept, and snapshots equal to the last one
// written are skipped.
type persister struct {
	store store.Store

	mu      sync.Mutex
	pending map[string]topo.Snapshot
	written map[string]common.Hash
	wake    chan struct{}
}

func newPersister(s store.Store) *persister {
	return &persister{
		store:   s,
		pending: map[string]topo.Snapshot{},
		written: map[string]common.Hash{},
		wake:    make(chan struct{}, 1),
	}
}

// seen records snap as already stored.
func (p *persister) seen(snap topo.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written[snap.AssetType] = snap.Digest()
}

// save queues snap, replacing any snapshot of the same asset not yet
// written.
func (p *persister) save(snap topo.Snapshot) {
	p.mu.Lock()
	p.pending[snap.AssetType] = snap
	p.mu.Unlock()
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *persister) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return
		case <-p.wake:
			p.flush()
		}
	}
}

// flush writes every pending snapshot.
func (p *persister) flush() {
	p.mu.Lock()
	pending := p.pending
	p.pending = map[string]topo.Snapshot{}
	p.mu.Unlock()

	for asset, snap := range pending {
		digest := snap.Digest()
		p.mu.Lock()
		last, ok := p.written[asset]
		p.mu.Unlock()
		if ok && last == digest {
			continue
		}
		if err := p.store.SaveSnapshot(snap); err != nil {
			logger.Printf("Failed to persist %s graph: %s", asset, err)
			continue
		}
		p.mu.Lock()
		p.written[asset] = digest
		p.mu.Unlock()
		logger.Printf("Persisted %s graph %s", asset, digest.Hex())
	}
}
