// Package gateway is the hub node orchestrator. It serializes the messages
// of peer gateways, wallet processes and light clients onto one event loop,
// which alone mutates the topology and the client registry.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/trinity-gateway/hubnode/gossip"
	"github.com/trinity-gateway/hubnode/internal/pretty"
	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/registry"
	"github.com/trinity-gateway/hubnode/route"
	"github.com/trinity-gateway/hubnode/router"
	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/topo/store"
	"github.com/trinity-gateway/hubnode/transport"
)

// DefaultAsset is the asset whose node list is pushed to light clients
// when they connect.
const DefaultAsset = "TNC"

// DefaultWalletDetectInterval is how often wallet liveness is checked.
const DefaultWalletDetectInterval = 60 * time.Second

// ErrStopped is returned by entry points once the event loop has exited.
var ErrStopped = errors.New("gateway is not running")

// Transport delivers outbound messages. Every method returns immediately;
// delivery failures are reported on the transport's results channel.
type Transport interface {
	SendToPeer(to message.Address, msg message.Message)
	SendToWallet(addr string, method string, msg message.Message)
	SendToLightClient(s registry.Session, msg message.Message)
}

var _ Transport = &transport.Dispatcher{}

// Config is the gateway setup.
type Config struct {
	// Self is the public ip:port peers reach this gateway at.
	Self topo.NodeID
	// DefaultAsset defaults to DefaultAsset.
	DefaultAsset string
	// WalletDetectInterval defaults to DefaultWalletDetectInterval. Wallets
	// silent for twice the interval are marked offline.
	WalletDetectInterval time.Duration

	Transport Transport
	// Results, if set, is drained by the event loop to log failed sends.
	Results <-chan transport.Result
	// Store, if set, restores snapshots at boot and persists them after
	// mutations.
	Store store.Store
}

// Gateway is the orchestrator. Create it with New and run it with Serve.
type Gateway struct {
	Config

	topo     *topo.Topology
	registry *registry.Registry
	sync     *gossip.Synchronizer
	planner  *route.Planner
	router   *router.Router

	// links counts open keep-alive links per wallet process ip.
	links map[string]int

	tasks   chan func()
	stopped chan struct{}
	persist *persister
	now     func() time.Time
}

// New returns a gateway that is ready to Serve.
func New(cfg Config) *Gateway {
	if cfg.DefaultAsset == "" {
		cfg.DefaultAsset = DefaultAsset
	}
	if cfg.WalletDetectInterval <= 0 {
		cfg.WalletDetectInterval = DefaultWalletDetectInterval
	}
	t := topo.New()
	reg := registry.New()
	g := &Gateway{
		Config:   cfg,
		topo:     t,
		registry: reg,
		sync:     &gossip.Synchronizer{Topology: t},
		planner:  &route.Planner{Topology: t},
		router:   &router.Router{Self: cfg.Self, Topology: t, Wallets: reg},
		links:    map[string]int{},
		tasks:    make(chan func()),
		stopped:  make(chan struct{}),
		now:      time.Now,
	}
	if cfg.Store != nil {
		g.persist = newPersister(cfg.Store)
	}
	return g
}

// Serve restores persisted snapshots, asks neighbors to resume, and runs the
// event loop until ctx is done.
func (g *Gateway) Serve(ctx context.Context) error {
	defer close(g.stopped)

	if g.Store != nil {
		assets, err := store.LoadAll(g.Store, g.topo)
		if err != nil {
			return err
		}
		for _, asset := range assets {
			g.persist.seen(g.topo.ToSnapshot(asset))
		}
		logger.Printf("Restored %d asset graphs from the store", len(assets))

		done := make(chan struct{})
		go func() {
			g.persist.run(ctx)
			close(done)
		}()
		defer func() { <-done }()

		// No wallet has registered yet, so the restored node reads offline
		// until one does.
		g.refreshStatus()
		g.resume(assets)
	}

	ticker := time.NewTicker(g.WalletDetectInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case task := <-g.tasks:
			task()
		case <-ticker.C:
			g.expireWallets()
		case r, ok := <-g.Results:
			if !ok {
				g.Results = nil
				continue
			}
			if r.Err != nil {
				logger.Printf("Failed %s send of %s to %s: %s", r.Kind, r.Type, r.To, r.Err)
			}
		}
	}
}

// call runs fn on the event loop and waits for it to finish.
func (g *Gateway) call(fn func()) error {
	done := make(chan struct{})
	task := func() {
		fn()
		close(done)
	}
	select {
	case g.tasks <- task:
	case <-g.stopped:
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-g.stopped:
		return ErrStopped
	}
}

// selfAddress returns the address of this gateway's node in the asset
// graph.
func (g *Gateway) selfAddress(asset string) (message.Address, bool) {
	graph := g.topo.Graph(asset)
	if graph == nil {
		return "", false
	}
	n, ok := graph.Node(g.Self)
	if !ok || n.PublicKey == "" {
		return "", false
	}
	return message.Address(n.URL()), true
}

// isLocal is true for wallet addresses hosted at this gateway.
func (g *Gateway) isLocal(addr message.Address) bool {
	return addr.Host() == string(g.Self)
}

// changed persists the asset graph after a mutation.
func (g *Gateway) changed(asset string) {
	if g.persist != nil {
		g.persist.save(g.topo.ToSnapshot(asset))
	}
}

// broadcast plans msg from this gateway and sends every delivery.
func (g *Gateway) broadcast(msg *message.SyncGraph) {
	deliveries, err := g.sync.Plan(msg, g.Self)
	if err != nil {
		logger.Printf("Failed to plan %s sync of %s: %s", msg.SyncType, msg.AssetType, err)
		return
	}
	for _, d := range deliveries {
		g.Transport.SendToPeer(d.To, d.Msg)
	}
}

// dispatch executes the sends decided by the router.
func (g *Gateway) dispatch(actions []router.Action) {
	for _, a := range actions {
		switch a := a.(type) {
		case router.SendPeer:
			g.Transport.SendToPeer(a.To, a.Msg)
		case router.SendWallet:
			g.Transport.SendToWallet(a.Addr, a.Method, a.Msg)
		case router.SendLightClient:
			g.sendLightClient(a.PublicKey, a.Msg)
		}
	}
}

func (g *Gateway) sendLightClient(pk string, msg message.Message) {
	s, ok := g.registry.Session(pk)
	if !ok {
		logger.Printf("No session for light client %s, dropping %s", pk, msg.Type())
		return
	}
	g.Transport.SendToLightClient(s, msg)
}

// routeTransaction advances a routed transaction message.
func (g *Gateway) routeTransaction(tx *message.Transaction) {
	actions, err := g.router.Route(tx)
	if err != nil {
		logger.Printf("Dropped %s from %s: %s", tx.MessageType, pretty.Address(string(tx.Sender)), err)
		return
	}
	g.dispatch(actions)
}
