package gateway

import (
	"encoding/json"
	"errors"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/transport"
)

var invalid = message.Ack{Status: message.AckInvalid}
var correct = message.Ack{Status: message.AckCorrect}

// decodePeer decodes a peer frame. Syncs arriving from peers must name the
// receiving gateway.
func decodePeer(raw []byte) (message.Message, error) {
	m, err := message.Decode(raw)
	if err != nil {
		return nil, err
	}
	if sg, ok := m.(*message.SyncGraph); ok && sg.Receiver == "" {
		return nil, message.ValidationError{Field: "Receiver", Cause: errors.New("missing required field")}
	}
	return m, nil
}

// OnPeerMessage handles a frame received over a peer link. Frames that
// cannot be decoded or validated are answered as invalid without further
// processing.
func (g *Gateway) OnPeerMessage(link *transport.Link, raw []byte) message.Ack {
	m, err := decodePeer(raw)
	if err != nil {
		logger.Printf("Rejected frame from %s: %s", link.RemoteAddr, err)
		return invalid
	}
	// A link counts once, on the first keep-alive it carries.
	opened := ""
	if ka, ok := m.(*message.KeepAlive); ok && link.WalletIP == "" {
		link.WalletIP = ka.Ip
		opened = ka.Ip
	}
	err = g.call(func() {
		if opened != "" {
			g.links[opened]++
			logger.Printf("Wallet process %s registered its keep-alive link", opened)
		}
		g.handlePeer(m)
	})
	if err != nil {
		return invalid
	}
	return correct
}

func (g *Gateway) handlePeer(m message.Message) {
	switch m := m.(type) {
	case *message.KeepAlive:
		g.registry.Touch(m.Ip)
	case *message.SyncGraph:
		g.handleSync(m)
	case *message.Transaction:
		switch {
		case message.IsTransactionType(m.MessageType):
			g.routeTransaction(m)
		case m.MessageType == message.TypeRegisterChannel:
			g.toWallet(m.Receiver, m)
		case m.MessageType == message.TypeResumeChannel:
			g.handleResume(m)
		default:
			logger.Printf("Ignored %s from peer %s", m.MessageType, m.Sender)
		}
	default:
		logger.Printf("Ignored unrecognized message %s from peer", m.Type())
	}
}

// toWallet hands msg to the online local wallet at addr.
func (g *Gateway) toWallet(addr message.Address, msg message.Message) bool {
	w, ok := g.registry.Wallet(addr.PublicKey())
	if !ok {
		logger.Printf("Wallet %s is not online here, dropping %s", addr, msg.Type())
		return false
	}
	g.Transport.SendToWallet(w.Ip, methodTransaction, msg)
	return true
}

// handleSync applies an inbound sync and relays it when it is a broadcast.
func (g *Gateway) handleSync(msg *message.SyncGraph) {
	changed, err := g.sync.Apply(msg)
	if err != nil {
		logger.Printf("Dropped sync from %s: %s", msg.Sender, err)
		return
	}
	if changed {
		g.changed(msg.AssetType)
	}
	logger.Printf("Applied %s sync of %s graph from %s (changed: %v)", msg.SyncType, msg.AssetType, msg.Sender, changed)
	if !msg.Broadcast {
		return
	}
	relay := msg.Clone()
	relay.Sender = msg.Receiver
	g.broadcast(relay)
}

// handleResume answers a peer that lost its topology with our graphs.
func (g *Gateway) handleResume(tx *message.Transaction) {
	assets := g.topo.Assets()
	if asset := tx.AssetType(); asset != "" {
		assets = []string{asset}
	}
	peer := topo.NodeID(tx.Sender.Host())
	for _, asset := range assets {
		graph := g.topo.Graph(asset)
		if graph == nil || !graph.Has(peer) {
			continue
		}
		source, ok := g.selfAddress(asset)
		if !ok {
			continue
		}
		raw, err := json.Marshal(graph.Snapshot())
		if err != nil {
			logger.Printf("Failed to encode %s graph: %s", asset, err)
			continue
		}
		msg := message.NewSyncGraph(message.SyncAddWholeGraph, asset, source, "")
		msg.Receiver = tx.Sender
		msg.Broadcast = false
		msg.Excepts = []string{string(g.Self)}
		msg.MessageBody = raw
		g.Transport.SendToPeer(tx.Sender, msg)
		logger.Printf("Resumed %s graph to %s", asset, tx.Sender)
	}
}

// resume asks the neighbors of this gateway in each restored asset graph
// to send their graphs.
func (g *Gateway) resume(assets []string) {
	for _, asset := range assets {
		self, ok := g.selfAddress(asset)
		if !ok {
			continue
		}
		graph := g.topo.Graph(asset)
		for _, id := range graph.Neighbors(g.Self) {
			n, _ := graph.Node(id)
			peer := message.Address(n.URL())
			g.Transport.SendToPeer(peer, message.NewResumeChannel(self, peer, asset))
		}
	}
}

// OnWalletDisconnect is called by the peer transport when the keep-alive
// link of the wallet process at ip closes.
func (g *Gateway) OnWalletDisconnect(ip string) {
	g.call(func() {
		if g.links[ip]--; g.links[ip] <= 0 {
			delete(g.links, ip)
		}
		if _, changed := g.registry.WalletDisconnect(ip); changed {
			logger.Printf("Wallet process %s disconnected", ip)
			g.walletsOffline()
		}
	})
}
