package gateway

import (
	"github.com/trinity-gateway/hubnode/gossip"
	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
)

// hasOnlineWallet is true when an online wallet process holds a key the
// graph resolves to this gateway.
func (g *Gateway) hasOnlineWallet(graph *topo.Graph) bool {
	for _, wc := range g.registry.Wallets() {
		if !wc.Online() {
			continue
		}
		for _, pk := range wc.PublicKeys {
			if id, ok := graph.Lookup(pk); ok && id == g.Self {
				return true
			}
		}
	}
	return false
}

// refreshStatus sets this gateway's node status in every asset graph from
// the liveness of its wallets, and gossips the changes.
func (g *Gateway) refreshStatus() {
	for _, asset := range g.topo.Assets() {
		graph := g.topo.Graph(asset)
		if !graph.Has(g.Self) {
			continue
		}
		status := topo.StatusOffline
		if g.hasOnlineWallet(graph) {
			status = topo.StatusOnline
		}
		g.updateSelf(asset, topo.StatusDelta(status))
	}
}

// walletsOffline propagates wallet processes going offline.
func (g *Gateway) walletsOffline() {
	g.refreshStatus()
}

// updateSelf applies d to this gateway's node and gossips the change.
func (g *Gateway) updateSelf(asset string, d topo.NodeDelta) {
	changed, err := g.topo.UpdateNode(asset, g.Self, d)
	if err != nil || !changed {
		return
	}
	g.changed(asset)
	source, ok := g.selfAddress(asset)
	if !ok {
		return
	}
	body, err := gossip.NodeUpdate(map[topo.NodeID]topo.NodeDelta{g.Self: d})
	if err != nil {
		logger.Printf("Failed to encode node update: %s", err)
		return
	}
	msg := message.NewSyncGraph(message.SyncUpdateNodeData, asset, source, "")
	msg.MessageBody = body
	g.broadcast(msg)
}

// expireWallets marks offline the wallet processes that went silent. Open
// keep-alive links count as activity.
func (g *Gateway) expireWallets() {
	for ip := range g.links {
		g.registry.Touch(ip)
	}
	expired := g.registry.ExpireWallets(g.now(), 2*g.WalletDetectInterval)
	if len(expired) == 0 {
		return
	}
	for _, wc := range expired {
		logger.Printf("Wallet process %s went silent", wc.Ip)
	}
	g.walletsOffline()
}
