package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
)

// channelEvent is the body of a SyncChannel call.
type channelEvent struct {
	Kind     string
	Founder  message.Address
	Receiver message.Address
	Asset    string
	// Balance maps each party's address to its balance per asset.
	Balance map[message.Address]map[string]float64
}

func parseChannelEvent(tx *message.Transaction) (*channelEvent, error) {
	ev := &channelEvent{Kind: tx.MessageType}
	for key, into := range map[string]interface{}{
		"Founder":  &ev.Founder,
		"Receiver": &ev.Receiver,
		"Balance":  &ev.Balance,
	} {
		ok, err := tx.MessageBody.Field(key, into)
		if err != nil {
			return nil, message.ValidationError{Field: "MessageBody." + key, Cause: err}
		}
		if !ok {
			return nil, message.ValidationError{Field: "MessageBody." + key, Cause: errors.New("missing required field")}
		}
	}
	ev.Asset = tx.MessageBody.AssetType
	if ev.Asset == "" {
		assets := make([]string, 0, len(ev.Balance[ev.Founder]))
		for asset := range ev.Balance[ev.Founder] {
			assets = append(assets, asset)
		}
		if len(assets) == 0 {
			return nil, message.ValidationError{Field: "MessageBody.Balance", Cause: errors.New("no asset for the founder")}
		}
		sort.Strings(assets)
		ev.Asset = assets[0]
	}
	return ev, nil
}

// handleChannel applies a channel opened, updated or closed by a local
// wallet.
func (g *Gateway) handleChannel(tx *message.Transaction) error {
	switch tx.MessageType {
	case message.TypeAddChannel, message.TypeUpdateChannel, message.TypeDeleteChannel:
	default:
		return fmt.Errorf("unexpected %s on SyncChannel", tx.MessageType)
	}
	ev, err := parseChannelEvent(tx)
	if err != nil {
		return err
	}

	source, peer := ev.Founder, ev.Receiver
	if !g.isLocal(source) {
		source, peer = peer, source
	}
	if !g.isLocal(source) {
		return fmt.Errorf("neither %s nor %s is a wallet of this gateway", ev.Founder, ev.Receiver)
	}
	g.owned(source)

	if ev.Kind == message.TypeAddChannel {
		if err := g.ensureSelf(ev.Asset, source.PublicKey()); err != nil {
			return err
		}
	}

	switch {
	case g.isLocal(peer):
		return g.localChannel(ev, source, peer)
	case peer.IsLightClient():
		return g.lightClientChannel(tx, ev, source, peer)
	}
	return g.peerChannel(ev, source, peer)
}

// ensureSelf inserts or refreshes this gateway's node from the local
// wallet pk.
func (g *Gateway) ensureSelf(asset, pk string) error {
	wc, ok := g.registry.Wallet(pk)
	if !ok {
		return ErrNotOwned
	}
	n := topo.Node{
		ID:        g.Self,
		PublicKey: pk,
		Name:      wc.Name,
		Deposit:   wc.Deposit,
		Fee:       wc.Fee,
		Balance:   wc.Balance[asset],
		Status:    topo.StatusOnline,
	}
	if g.topo.AddOrUpdateNode(asset, n) {
		g.changed(asset)
	}
	return nil
}

// localChannel handles a channel between two wallets of this gateway. Both
// live in this gateway's node, so only its balance is tracked.
func (g *Gateway) localChannel(ev *channelEvent, source, peer message.Address) error {
	if ev.Kind == message.TypeUpdateChannel {
		if b, ok := ev.Balance[source][ev.Asset]; ok {
			g.updateSelf(ev.Asset, topo.BalanceDelta(b))
		}
	}
	logger.Printf("%s between local wallets %s and %s", ev.Kind, source.PublicKey(), peer.PublicKey())
	return nil
}

// lightClientChannel records the attachment of a light client to a local
// wallet and forwards the event to the light client.
func (g *Gateway) lightClientChannel(tx *message.Transaction, ev *channelEvent, source, peer message.Address) error {
	graph := g.topo.Ensure(ev.Asset)
	changed := false
	switch ev.Kind {
	case message.TypeAddChannel:
		ok, err := graph.AttachLightClient(g.Self, source.PublicKey(), peer.PublicKey())
		if err != nil {
			return err
		}
		changed = ok
	case message.TypeDeleteChannel:
		changed = graph.DetachLightClient(g.Self, source.PublicKey(), peer.PublicKey())
	}
	if changed {
		g.changed(ev.Asset)
	}
	g.sendLightClient(peer.PublicKey(), tx)
	return nil
}

// peerChannel handles a channel between a local wallet and a wallet of
// another gateway.
func (g *Gateway) peerChannel(ev *channelEvent, source, peer message.Address) error {
	self, ok := g.selfAddress(ev.Asset)
	if !ok {
		logger.Printf("No %s node for this gateway, ignoring %s", ev.Asset, ev.Kind)
		return nil
	}
	peerID := topo.NodeID(peer.Host())

	switch ev.Kind {
	case message.TypeAddChannel:
		// The peer adds the edge on receipt, relays it, and sends us its
		// own graph when its wallet reports the same channel.
		raw, err := json.Marshal(g.topo.ToSnapshot(ev.Asset))
		if err != nil {
			return err
		}
		msg := message.NewSyncGraph(message.SyncAddWholeGraph, ev.Asset, self, peer)
		msg.Receiver = peer
		msg.Excepts = []string{string(g.Self)}
		msg.MessageBody = raw
		g.Transport.SendToPeer(peer, msg)
		logger.Printf("Sent %s graph to channel peer %s", ev.Asset, peer)

	case message.TypeUpdateChannel:
		if b, ok := ev.Balance[source][ev.Asset]; ok {
			g.updateSelf(ev.Asset, topo.BalanceDelta(b))
		}

	case message.TypeDeleteChannel:
		if !g.topo.RemoveEdge(ev.Asset, g.Self, peerID) {
			return nil
		}
		g.changed(ev.Asset)
		target := peer
		if graph := g.topo.Graph(ev.Asset); graph != nil {
			if n, ok := graph.Node(peerID); ok {
				target = message.Address(n.URL())
			}
		}
		g.broadcast(message.NewSyncGraph(message.SyncRemoveSingleEdge, ev.Asset, self, target))
		// The former neighbor is no longer reached by the broadcast.
		rm := message.NewSyncGraph(message.SyncRemoveSingleEdge, ev.Asset, self, target)
		rm.Receiver = target
		rm.Excepts = []string{string(g.Self)}
		g.Transport.SendToPeer(target, rm)
	}
	return nil
}
