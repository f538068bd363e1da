package gateway

import (
	"context"

	"github.com/trinity-gateway/hubnode/internal/pretty"
	"github.com/trinity-gateway/hubnode/status"
)

var _ status.Source = &Gateway{}

// Stats reports the current topology and client state.
func (g *Gateway) Stats(ctx context.Context) (*status.Stats, error) {
	stats := &status.Stats{NodeID: string(g.Self)}
	err := g.call(func() {
		for _, asset := range g.topo.Assets() {
			graph := g.topo.Graph(asset)
			a := status.Asset{
				AssetType:       asset,
				NumNodes:        graph.Len(),
				NumEdges:        graph.NumEdges(),
				NumLightClients: graph.SPV().Len(),
				Digest:          graph.Snapshot().Digest().Hex(),
			}
			for _, n := range graph.Nodes() {
				if n.Online() {
					a.NumOnline++
				}
			}
			stats.Assets = append(stats.Assets, a)
		}
		for _, wc := range g.registry.Wallets() {
			stats.Wallets = append(stats.Wallets, status.Wallet{
				ShortID:   pretty.Abbrev(wc.PublicKey()).String(),
				Online:    wc.Online(),
				LastSeen:  wc.LastSeen,
				NumOpened: len(wc.PublicKeys),
			})
		}
		stats.NumSessions = g.registry.NumSessions()
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}
