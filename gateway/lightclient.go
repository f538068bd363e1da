package gateway

import (
	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/registry"
	"github.com/trinity-gateway/hubnode/transport/ws"
)

var _ ws.Listener = &Gateway{}

// OnLightClientConnect pushes the node list of the default asset to a new
// light-client session.
func (g *Gateway) OnLightClientConnect(s registry.Session) {
	g.call(func() {
		graph := g.topo.Graph(g.DefaultAsset)
		if graph == nil {
			return
		}
		g.Transport.SendToLightClient(s, message.NewNodeList(g.DefaultAsset, graph.Nodes()))
	})
}

// OnLightClientDisconnect forgets the light clients that used s.
func (g *Gateway) OnLightClientDisconnect(s registry.Session) {
	g.call(func() {
		for _, pk := range g.registry.DropSessionHandle(s) {
			logger.Printf("Light client %s disconnected", pk)
		}
	})
}

// OnLightClientMessage handles a text frame from a light client. The
// session is registered under the Sender of its messages.
func (g *Gateway) OnLightClientMessage(s registry.Session, raw []byte) {
	m, err := message.Decode(raw)
	if err != nil {
		logger.Printf("Rejected light client frame from %s: %s", s.RemoteAddr(), err)
		return
	}
	tx, ok := m.(*message.Transaction)
	if !ok {
		logger.Printf("Ignored %s from light client %s", m.Type(), s.RemoteAddr())
		return
	}
	if !tx.Sender.IsLightClient() {
		logger.Printf("Ignored %s with non light client sender %s", tx.MessageType, tx.Sender)
		return
	}
	g.call(func() {
		g.registry.RegisterSession(tx.Sender.PublicKey(), s)
		g.handleLightClient(s, tx)
	})
}

func (g *Gateway) handleLightClient(s registry.Session, tx *message.Transaction) {
	switch {
	case tx.MessageType == message.TypeRegisterChannel, tx.MessageType == message.TypePaymentLink:
		if g.isLocal(tx.Receiver) {
			g.toWallet(tx.Receiver, tx)
		} else if tx.MessageType == message.TypeRegisterChannel {
			g.Transport.SendToPeer(tx.Receiver, tx)
		} else {
			logger.Printf("Payment link for %s is not for a wallet of this gateway", tx.Receiver)
		}
	case message.IsTransactionType(tx.MessageType):
		g.routeTransaction(tx)
	case tx.MessageType == message.TypeGetRouterInfo:
		var reply *message.Reply
		r, err := g.planner.Resolve(tx.AssetType(), g.Self, tx.Receiver)
		if err != nil {
			logger.Printf("No route for light client %s: %s", tx.Sender, err)
			reply = message.NewAckRouterInfo(nil, err)
		} else {
			reply = message.NewAckRouterInfo(r.RouterInfo(), nil)
		}
		g.Transport.SendToLightClient(s, reply)
	default:
		logger.Printf("Ignored %s from light client %s", tx.MessageType, tx.Sender)
	}
}
