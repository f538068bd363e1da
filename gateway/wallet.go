package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trinity-gateway/hubnode/jsonrpc2"
	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/router"
)

const methodTransaction = router.MethodTransaction

// ErrNotOwned is returned to wallet calls from a wallet that is not online
// at this gateway.
var ErrNotOwned = errors.New("wallet public key check failed")

// WalletMethods are the JSON-RPC method names of the wallet-control link.
var WalletMethods = []string{
	"SyncWalletData",
	"SyncChannel",
	"GetRouterInfo",
	"TransactionMessage",
	"Search",
	"SyncBlock",
}

// WalletService is the JSON-RPC receiver of the wallet-control link. Every
// method takes the wallet's message as its only param, either as an object
// or as a string holding one.
type WalletService struct {
	g *Gateway
}

// Wallets returns the wallet-control service of g.
func (g *Gateway) Wallets() *WalletService {
	return &WalletService{g: g}
}

// Register adds the wallet methods to srv under their exact names.
func (w *WalletService) Register(srv *jsonrpc2.Server) error {
	for _, name := range WalletMethods {
		if err := srv.RegisterMethod(name, w, name); err != nil {
			return err
		}
	}
	return nil
}

// do runs fn on the event loop and returns its result.
func (w *WalletService) do(fn func() (interface{}, error)) (interface{}, error) {
	var res interface{}
	var err error
	if callErr := w.g.call(func() { res, err = fn() }); callErr != nil {
		return nil, callErr
	}
	return res, err
}

func decodeTransaction(params json.RawMessage) (*message.Transaction, error) {
	m, err := message.DecodeParams(params)
	if err != nil {
		return nil, err
	}
	tx, ok := m.(*message.Transaction)
	if !ok {
		return nil, fmt.Errorf("unexpected %s message", m.Type())
	}
	return tx, nil
}

// owned returns the online local wallet process that opened addr and
// refreshes its liveness.
func (g *Gateway) owned(addr message.Address) bool {
	if !g.isLocal(addr) {
		return false
	}
	wc, ok := g.registry.Wallet(addr.PublicKey())
	if ok {
		g.registry.Touch(wc.Ip)
	}
	return ok
}

type walletData struct {
	MessageBody struct {
		Publickey string
		CliIp     string
		Alias     string
		Fee       float64
		Deposit   float64
		Balance   map[string]float64
	}
}

// SyncWalletData registers a wallet process and the wallet it opened.
func (w *WalletService) SyncWalletData(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var data walletData
	if err := json.Unmarshal(message.Unwrap(params), &data); err != nil {
		return nil, message.DecodeError{Cause: err}
	}
	body := data.MessageBody
	if body.Publickey == "" || body.CliIp == "" {
		return nil, message.ValidationError{Field: "MessageBody.Publickey", Cause: errors.New("wallet registration needs Publickey and CliIp")}
	}
	return w.do(func() (interface{}, error) {
		g := w.g
		wc, cameOnline := g.registry.WalletConnect(body.CliIp, body.Publickey)
		wc.Name = body.Alias
		wc.Fee = body.Fee
		wc.Deposit = body.Deposit
		for asset, amount := range body.Balance {
			wc.Balance[asset] = amount
		}
		if cameOnline {
			logger.Printf("Wallet %s came online at %s", body.Publickey, body.CliIp)
		}
		g.refreshStatus()
		return message.NewAckSyncWallet(message.NewAddress(body.Publickey, string(g.Self))), nil
	})
}

// SyncChannel reports a channel opened, updated or closed by a local
// wallet.
func (w *WalletService) SyncChannel(ctx context.Context, params json.RawMessage) (interface{}, error) {
	tx, err := decodeTransaction(params)
	if err != nil {
		return nil, err
	}
	return w.do(func() (interface{}, error) {
		if err := w.g.handleChannel(tx); err != nil {
			return nil, err
		}
		return "OK", nil
	})
}

// GetRouterInfo computes a route from this gateway to the Receiver.
func (w *WalletService) GetRouterInfo(ctx context.Context, params json.RawMessage) (interface{}, error) {
	tx, err := decodeTransaction(params)
	if err != nil {
		return nil, err
	}
	return w.do(func() (interface{}, error) {
		g := w.g
		if !g.owned(tx.Sender) {
			return nil, ErrNotOwned
		}
		r, err := g.planner.Resolve(tx.AssetType(), g.Self, tx.Receiver)
		if err != nil {
			logger.Printf("No route for %s: %s", tx.Sender, err)
			return message.NewAckRouterInfo(nil, err), nil
		}
		return message.NewAckRouterInfo(r.RouterInfo(), nil), nil
	})
}

// TransactionMessage relays a message sent by a local wallet.
func (w *WalletService) TransactionMessage(ctx context.Context, params json.RawMessage) error {
	m, err := message.DecodeParams(params)
	if err != nil {
		return err
	}
	_, err = w.do(func() (interface{}, error) {
		g := w.g
		if tx, ok := m.(*message.Transaction); ok {
			g.owned(tx.Sender)
			g.walletTransaction(tx)
			return nil, nil
		}
		// Payment messages outside the catalog go to the light client.
		if u, ok := m.(*message.Unrecognized); ok {
			var head struct{ Receiver message.Address }
			if err := json.Unmarshal(u.Raw, &head); err == nil && head.Receiver.IsLightClient() {
				g.sendLightClient(head.Receiver.PublicKey(), u)
				return nil, nil
			}
		}
		logger.Printf("Ignored %s from wallet", m.Type())
		return nil, nil
	})
	return err
}

func (g *Gateway) walletTransaction(tx *message.Transaction) {
	switch {
	case message.IsTransactionType(tx.MessageType):
		g.routeTransaction(tx)
	case tx.MessageType == message.TypeRegisterChannel:
		if tx.Receiver.IsLightClient() {
			g.sendLightClient(tx.Receiver.PublicKey(), tx)
		} else {
			g.Transport.SendToPeer(tx.Receiver, tx)
		}
	case tx.Receiver.IsLightClient():
		g.sendLightClient(tx.Receiver.PublicKey(), tx)
	default:
		logger.Printf("Ignored %s from wallet %s", tx.MessageType, tx.Sender)
	}
}

type searchRequest struct {
	MessageType string
	Publickey   string
	AssetType   string
}

// Search answers SearchWallet, the online wallets a light client is
// attached to, and SearchSpv, the whole light-client index of an asset.
func (w *WalletService) Search(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req searchRequest
	if err := json.Unmarshal(message.Unwrap(params), &req); err != nil {
		return nil, message.DecodeError{Cause: err}
	}
	return w.do(func() (interface{}, error) {
		g := w.g
		graph := g.topo.Graph(req.AssetType)
		if graph == nil {
			return nil, fmt.Errorf("unknown asset %q", req.AssetType)
		}
		switch req.MessageType {
		case message.TypeSearchWallet:
			var keys []string
			if _, ok := g.registry.Session(req.Publickey); ok {
				for _, owner := range graph.SPV().FindOwners(req.Publickey) {
					id, ok := graph.Lookup(owner)
					if !ok {
						continue
					}
					if n, _ := graph.Node(id); n.Online() {
						keys = append(keys, owner)
					}
				}
			}
			return message.NewAckSearchWallet(keys), nil
		case message.TypeSearchSpv:
			return message.NewAckSearchSpv(graph.SPV()), nil
		}
		return nil, fmt.Errorf("unknown search %q", req.MessageType)
	})
}

// SyncBlock pushes a block notification of a local wallet to every light
// client.
func (w *WalletService) SyncBlock(ctx context.Context, params json.RawMessage) (interface{}, error) {
	raw := message.Unwrap(params)
	var head struct{ Sender message.Address }
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, message.DecodeError{Cause: err}
	}
	m, err := message.Decode(raw)
	if err != nil {
		return nil, err
	}
	return w.do(func() (interface{}, error) {
		g := w.g
		if !g.owned(head.Sender) {
			return nil, ErrNotOwned
		}
		for _, s := range g.registry.Sessions() {
			g.Transport.SendToLightClient(s, m)
		}
		return "OK", nil
	})
}
