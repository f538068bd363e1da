// Package router advances transaction messages hop by hop along the route
// they carry, rewriting the forwarded value and notifying the local wallet
// of each channel leg.
package router

import (
	"fmt"
	"net"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/registry"
	"github.com/trinity-gateway/hubnode/topo"
)

// StaleRouteError is returned when a routed message names a next hop that
// is neither this gateway nor a node it knows. The message is dropped; the
// sender has to request a new route.
type StaleRouteError struct {
	Next   message.Address
	Reason string
}

func (err StaleRouteError) Error() string {
	return fmt.Sprintf("stale route at next hop %s: %s", err.Next, err.Reason)
}

// OfflineWalletError is returned when a message is addressed to a wallet of
// this gateway that is not online.
type OfflineWalletError struct {
	Receiver message.Address
}

func (err OfflineWalletError) Error() string {
	return fmt.Sprintf("wallet %s is not online at this gateway", err.Receiver)
}

// Wallets resolves public keys to the local wallet processes that opened
// them.
type Wallets interface {
	Wallet(pk string) (*registry.WalletClient, bool)
}

// Router decides where a transaction goes next from this gateway.
type Router struct {
	// Self is the NodeID of this gateway.
	Self     topo.NodeID
	Topology *topo.Topology
	Wallets  Wallets
}

func (r *Router) selfIP() string {
	host, _, err := net.SplitHostPort(string(r.Self))
	if err != nil {
		return string(r.Self)
	}
	return host
}

// Route returns the sends needed to advance tx past this gateway.
func (r *Router) Route(tx *message.Transaction) ([]Action, error) {
	ri := tx.RouterInfo
	if ri == nil {
		return r.direct(tx)
	}
	if ri.Next.Host() != string(r.Self) {
		if g := r.Topology.Graph(tx.AssetType()); g == nil || !g.Has(topo.NodeID(ri.Next.Host())) {
			return nil, StaleRouteError{Next: ri.Next, Reason: "unknown node"}
		}
		logger.Printf("Passing %s for %s on to %s", tx.MessageType, tx.Receiver, ri.Next)
		return []Action{SendPeer{To: ri.Next, Msg: tx}}, nil
	}
	i, ok := ri.Position(string(r.Self))
	if !ok {
		return nil, StaleRouteError{Next: ri.Next, Reason: "this gateway is not on the path"}
	}
	if i == len(ri.FullPath)-1 {
		return r.deliver(tx, i), nil
	}
	return r.advance(tx, i), nil
}

// direct handles messages without a route by addressing the receiver.
func (r *Router) direct(tx *message.Transaction) ([]Action, error) {
	to := tx.Receiver
	switch {
	case to.IsLightClient():
		return []Action{SendLightClient{PublicKey: to.PublicKey(), Msg: tx}}, nil
	case to.Host() == string(r.Self):
		w, ok := r.Wallets.Wallet(to.PublicKey())
		if !ok {
			return nil, OfflineWalletError{Receiver: to}
		}
		return []Action{SendWallet{Addr: w.Ip, Method: MethodTransaction, Msg: tx}}, nil
	}
	return []Action{SendPeer{To: to, Msg: tx}}, nil
}

// fee returns the fee this gateway charges for the hop, preferring the
// configured fee in the local graph over the one carried in the route.
func (r *Router) fee(asset string, hop message.Hop) float64 {
	if g := r.Topology.Graph(asset); g != nil {
		if n, ok := g.Node(r.Self); ok {
			return n.Fee
		}
	}
	return hop.Fee
}

// notify appends a trigger for the local wallet at current, if online.
func (r *Router) notify(actions []Action, current message.Address, trigger *message.Transaction) []Action {
	w, ok := r.Wallets.Wallet(current.PublicKey())
	if !ok {
		logger.Printf("Wallet %s is offline, skipping %s leg %s -> %s", current, trigger.MessageType, trigger.Sender, trigger.Receiver)
		return actions
	}
	return append(actions, SendWallet{Addr: w.Ip, Method: MethodTransaction, Msg: trigger})
}

// deliver handles the last hop of a route.
func (r *Router) deliver(tx *message.Transaction, i int) []Action {
	asset := tx.AssetType()
	hop := tx.RouterInfo.FullPath[i]
	current := tx.RouterInfo.Next
	value := tx.MessageBody.Value
	fee := r.fee(asset, hop)

	var actions []Action
	if tx.Receiver.IsLightClient() {
		actions = append(actions, SendLightClient{
			PublicKey: tx.Receiver.PublicKey(),
			Msg:       message.NewTrigger(current, tx.Receiver, asset, value-fee),
		})
	}
	if len(tx.RouterInfo.FullPath) == 1 {
		// Light client to light client through this gateway alone: the
		// sender's side of the wallet takes the full value.
		actions = r.notify(actions, current, message.NewTrigger(tx.Sender, current, asset, value))
	}
	logger.Printf("Delivered %s of %v %s to %s with %d sends", tx.MessageType, value, asset, tx.Receiver, len(actions))
	return actions
}

// advance rewrites the route to the following hop and forwards it.
func (r *Router) advance(tx *message.Transaction, i int) []Action {
	asset := tx.AssetType()
	hop := tx.RouterInfo.FullPath[i]
	current := tx.RouterInfo.Next
	value := tx.MessageBody.Value
	fee := r.fee(asset, hop)

	fwd := tx.Clone()
	fwd.RouterInfo = tx.RouterInfo.Advance(i)
	next := fwd.RouterInfo.Next

	var actions []Action
	switch {
	case tx.Sender.Host() == string(r.Self):
		actions = r.notify(actions, current, message.NewTrigger(current, next, asset, value))
	case tx.Sender.IsLightClient() && tx.Sender.IP() == r.selfIP():
		actions = r.notify(actions, current, message.NewTrigger(tx.Sender, current, asset, value))
		actions = r.notify(actions, current, message.NewTrigger(current, next, asset, value-fee))
		fwd.MessageBody.SetValue(value - fee)
	default:
		actions = r.notify(actions, current, message.NewTrigger(current, next, asset, value-fee))
		fwd.MessageBody.SetValue(value - fee)
	}
	logger.Printf("Forwarding %s of %v %s from %s to %s", tx.MessageType, fwd.MessageBody.Value, asset, current, next)
	return append(actions, SendPeer{To: next, Msg: fwd})
}
