package router

import (
	"testing"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/registry"
	"github.com/trinity-gateway/hubnode/route"
	"github.com/trinity-gateway/hubnode/topo"
)

const asset = "TNC"

const (
	gwA topo.NodeID = "10.0.0.1:8089"
	gwB topo.NodeID = "10.0.0.2:8089"
	gwC topo.NodeID = "10.0.0.3:8089"
)

func wallet(id topo.NodeID) message.Address {
	return message.NewAddress("pk-"+string(id), string(id))
}

func newTopology(fees map[topo.NodeID]float64, edges ...[2]topo.NodeID) *topo.Topology {
	t := topo.New()
	for id, fee := range fees {
		t.AddOrUpdateNode(asset, topo.Node{ID: id, PublicKey: "pk-" + string(id), Fee: fee, Status: topo.StatusOnline})
	}
	for _, e := range edges {
		t.AddEdge(asset, e[0], e[1])
	}
	return t
}

// newRouter returns a router for self with its wallet process online.
func newRouter(t *topo.Topology, self topo.NodeID) *Router {
	reg := registry.New()
	reg.WalletConnect("wallet-"+string(self), "pk-"+string(self))
	return &Router{Self: self, Topology: t, Wallets: reg}
}

func newTx(sender, receiver message.Address, value float64) *message.Transaction {
	tx := &message.Transaction{
		MessageType: message.TypeRsmc,
		Sender:      sender,
		Receiver:    receiver,
	}
	tx.MessageBody.AssetType = asset
	tx.MessageBody.SetValue(value)
	return tx
}

func split(actions []Action) (peers []SendPeer, lights []SendLightClient, wallets []SendWallet) {
	for _, a := range actions {
		switch a := a.(type) {
		case SendPeer:
			peers = append(peers, a)
		case SendLightClient:
			lights = append(lights, a)
		case SendWallet:
			wallets = append(wallets, a)
		}
	}
	return
}

func TestFeeConservation(t *testing.T) {
	const v, f1, f2 = 100.0, 2.0, 3.0
	tp := newTopology(map[topo.NodeID]float64{gwA: 1, gwB: f1, gwC: f2}, [2]topo.NodeID{gwA, gwB}, [2]topo.NodeID{gwB, gwC})
	tp.Graph(asset).AttachLightClient(gwC, "pk-"+string(gwC), "spvY")

	spv := message.NewAddress("spvY", "10.0.0.3")
	planner := &route.Planner{Topology: tp}
	r, err := planner.FindRoute(asset, gwA, gwC)
	if err != nil {
		t.Fatal(err)
	}

	tx := newTx(wallet(gwA), spv, v)
	tx.RouterInfo = r.RouterInfo()

	routers := map[topo.NodeID]*Router{
		gwA: newRouter(tp, gwA),
		gwB: newRouter(tp, gwB),
		gwC: newRouter(tp, gwC),
	}

	at := gwA
	var credited []float64
	walletLegs := map[topo.NodeID][]float64{}
	for hops := 0; hops < 5; hops++ {
		actions, err := routers[at].Route(tx)
		if err != nil {
			t.Fatalf("at %s: %s", at, err)
		}
		peers, lights, wallets := split(actions)
		for _, w := range wallets {
			walletLegs[at] = append(walletLegs[at], w.Msg.MessageBody.Value)
			if w.Msg.MessageType != message.TypeTrigger || w.Method != MethodTransaction {
				t.Errorf("at %s: unexpected wallet call %s %s", at, w.Method, w.Msg.MessageType)
			}
		}
		for _, l := range lights {
			if l.PublicKey != "spvY" {
				t.Errorf("delivered to the wrong light client: %s", l.PublicKey)
			}
			credited = append(credited, l.Msg.MessageBody.Value)
		}
		if len(peers) == 0 {
			break
		}
		if len(peers) != 1 {
			t.Fatalf("at %s: %d peer sends", at, len(peers))
		}
		tx = peers[0].Msg
		at = topo.NodeID(peers[0].To.Host())
	}

	if at != gwC {
		t.Fatalf("stopped at %s", at)
	}
	if len(credited) != 1 || credited[0] != v-f1-f2 {
		t.Errorf("light client credited %v; want [%v]", credited, v-f1-f2)
	}
	// The origin forwards the full value, B keeps its fee and C does not
	// notify its wallet on terminal delivery.
	if got := walletLegs[gwA]; len(got) != 1 || got[0] != v {
		t.Errorf("origin wallet legs: %v", got)
	}
	if got := walletLegs[gwB]; len(got) != 1 || got[0] != v-f1 {
		t.Errorf("intermediate wallet legs: %v", got)
	}
	if got := walletLegs[gwC]; len(got) != 0 {
		t.Errorf("terminal wallet legs: %v", got)
	}
}

func TestOneHopLightClients(t *testing.T) {
	const v, fee = 10.0, 0.5
	tp := newTopology(map[topo.NodeID]float64{gwA: fee})
	planner := &route.Planner{Topology: tp}
	r, err := planner.FindRoute(asset, gwA, gwA)
	if err != nil {
		t.Fatal(err)
	}

	x := message.NewAddress("spvX", "10.0.0.1")
	y := message.NewAddress("spvY", "10.0.0.1")
	tx := newTx(x, y, v)
	tx.RouterInfo = r.RouterInfo()

	actions, err := newRouter(tp, gwA).Route(tx)
	if err != nil {
		t.Fatal(err)
	}
	peers, lights, wallets := split(actions)
	if len(peers) != 0 {
		t.Errorf("unexpected peer sends: %v", peers)
	}
	if len(lights) != 1 || lights[0].PublicKey != "spvY" || lights[0].Msg.MessageBody.Value != v-fee {
		t.Errorf("light client delivery: %+v", lights)
	}
	if len(wallets) != 1 {
		t.Fatalf("wallet calls: %+v", wallets)
	}
	leg := wallets[0].Msg
	if leg.Sender != x || leg.Receiver != wallet(gwA) || leg.MessageBody.Value != v {
		t.Errorf("wallet leg: %+v", leg)
	}
	if wallets[0].Addr != "wallet-"+string(gwA) {
		t.Errorf("wallet addr: %s", wallets[0].Addr)
	}
}

func TestLightClientSender(t *testing.T) {
	tp := newTopology(map[topo.NodeID]float64{gwA: 1, gwB: 2}, [2]topo.NodeID{gwA, gwB})
	planner := &route.Planner{Topology: tp}
	r, _ := planner.FindRoute(asset, gwA, gwB)

	x := message.NewAddress("spvX", "10.0.0.1")
	tx := newTx(x, wallet(gwB), 10)
	tx.RouterInfo = r.RouterInfo()

	actions, err := newRouter(tp, gwA).Route(tx)
	if err != nil {
		t.Fatal(err)
	}
	peers, _, wallets := split(actions)
	if len(wallets) != 2 {
		t.Fatalf("wallet legs: %+v", wallets)
	}
	if in := wallets[0].Msg; in.Sender != x || in.MessageBody.Value != 10 {
		t.Errorf("incoming leg: %+v", in)
	}
	if out := wallets[1].Msg; out.Receiver != wallet(gwB) || out.MessageBody.Value != 9 {
		t.Errorf("outgoing leg: %+v", out)
	}
	if len(peers) != 1 || peers[0].Msg.MessageBody.Value != 9 || peers[0].Msg.RouterInfo.Next != wallet(gwB) {
		t.Errorf("forward: %+v", peers)
	}
	if tx.RouterInfo.Next != wallet(gwA) || tx.MessageBody.Value != 10 {
		t.Error("router mutated the inbound message")
	}

	// Terminal delivery to the gateway's own wallet needs no action.
	actions, err = newRouter(tp, gwB).Route(peers[0].Msg)
	if err != nil {
		t.Fatal(err)
	}
	if len(actions) != 0 {
		t.Errorf("terminal wallet delivery: %+v", actions)
	}
}

func TestDirect(t *testing.T) {
	tp := newTopology(map[topo.NodeID]float64{gwA: 1, gwB: 1})
	r := newRouter(tp, gwA)

	testcases := []struct {
		Receiver message.Address
		Check    func(Action) bool
	}{
		{message.NewAddress("spv", "10.0.0.1"), func(a Action) bool {
			s, ok := a.(SendLightClient)
			return ok && s.PublicKey == "spv"
		}},
		{wallet(gwA), func(a Action) bool {
			s, ok := a.(SendWallet)
			return ok && s.Addr == "wallet-"+string(gwA)
		}},
		{wallet(gwB), func(a Action) bool {
			s, ok := a.(SendPeer)
			return ok && s.To == wallet(gwB)
		}},
	}
	for i, tc := range testcases {
		tx := newTx(wallet(gwC), tc.Receiver, 1)
		actions, err := r.Route(tx)
		if err != nil {
			t.Errorf("[%d] unexpected error: %s", i, err)
			continue
		}
		if len(actions) != 1 || !tc.Check(actions[0]) {
			t.Errorf("[%d] wrong actions: %+v", i, actions)
		}
		if peers, _, _ := split(actions); len(peers) == 1 && peers[0].Msg != tx {
			t.Errorf("[%d] message was rewritten", i)
		}
	}

	_, err := r.Route(newTx(wallet(gwC), message.NewAddress("pk-offline", string(gwA)), 1))
	if _, ok := err.(OfflineWalletError); !ok {
		t.Errorf("expected OfflineWalletError, got %v", err)
	}
}

func TestStaleRoute(t *testing.T) {
	tp := newTopology(map[topo.NodeID]float64{gwA: 1, gwB: 1}, [2]topo.NodeID{gwA, gwB})
	r := newRouter(tp, gwA)

	// Next is a known peer: passed on unchanged.
	tx := newTx(wallet(gwC), wallet(gwB), 1)
	tx.RouterInfo = &message.RouterInfo{FullPath: []message.Hop{{URL: wallet(gwB), Fee: 1}}, Next: wallet(gwB)}
	actions, err := r.Route(tx)
	if err != nil {
		t.Fatal(err)
	}
	if peers, _, _ := split(actions); len(peers) != 1 || peers[0].Msg != tx {
		t.Errorf("got %+v", actions)
	}

	// Next is unknown.
	tx.RouterInfo.Next = message.NewAddress("pk", "9.9.9.9:1")
	if _, err := r.Route(tx); err == nil {
		t.Error("expected StaleRouteError")
	} else if _, ok := err.(StaleRouteError); !ok {
		t.Errorf("wrong error type: %T", err)
	}

	// Next is us but we are not on the path.
	tx.RouterInfo.Next = wallet(gwA)
	if _, err := r.Route(tx); err == nil {
		t.Error("expected StaleRouteError")
	}
}
