package gossip

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
)

const asset = "TNC"

func nodeID(i int) topo.NodeID {
	return topo.NodeID(fmt.Sprintf("10.0.0.%d:8089", i+1))
}

func addr(id topo.NodeID) message.Address {
	return message.NewAddress("pk-"+string(id), string(id))
}

// network is a set of gateways that each hold their own replica of the
// same initial graph.
type network struct {
	gateways map[topo.NodeID]*Synchronizer
	received map[topo.NodeID]int
}

func newNetwork(n int, edges [][2]int) *network {
	g := topo.NewGraph(asset)
	for i := 0; i < n; i++ {
		g.AddOrUpdateNode(topo.Node{ID: nodeID(i), PublicKey: "pk-" + string(nodeID(i)), Fee: 1, Status: topo.StatusOnline})
	}
	for _, e := range edges {
		g.AddEdge(nodeID(e[0]), nodeID(e[1]))
	}
	snap := g.Snapshot()

	net := &network{
		gateways: map[topo.NodeID]*Synchronizer{},
		received: map[topo.NodeID]int{},
	}
	for i := 0; i < n; i++ {
		t := topo.New()
		if _, err := t.FromSnapshot(asset, snap); err != nil {
			panic(err)
		}
		net.gateways[nodeID(i)] = &Synchronizer{Topology: t}
	}
	return net
}

// flood originates msg at origin and relays it until no gateway has
// anything left to send. It returns the number of deliveries.
func (net *network) flood(t *testing.T, origin topo.NodeID, msg *message.SyncGraph) int {
	t.Helper()
	queue, err := net.gateways[origin].Plan(msg, origin)
	if err != nil {
		t.Fatal(err)
	}
	delivered := 0
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		delivered++

		to := topo.NodeID(d.To.Host())
		for _, id := range msg.Excepts {
			if topo.NodeID(id) == to {
				t.Errorf("delivered to %s which was already excepted", to)
			}
		}
		net.received[to]++

		s := net.gateways[to]
		if _, err := s.Apply(d.Msg); err != nil {
			t.Fatalf("apply at %s: %s", to, err)
		}
		if !d.Msg.Broadcast {
			continue
		}
		relay := d.Msg.Clone()
		relay.Sender = d.To
		next, err := s.Plan(relay, to)
		if err != nil {
			t.Fatal(err)
		}
		for _, nd := range next {
			for _, id := range d.Msg.Excepts {
				if topo.NodeID(id) == topo.NodeID(nd.To.Host()) {
					t.Errorf("%s relayed to %s which was already in the exclusion set", to, id)
				}
			}
		}
		queue = append(queue, next...)
	}
	return delivered
}

func TestFullMeshDeliveries(t *testing.T) {
	for _, n := range []int{2, 3, 5, 8} {
		var edges [][2]int
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				edges = append(edges, [2]int{i, j})
			}
		}
		net := newNetwork(n, edges)

		origin := nodeID(0)
		body, _ := NodeUpdate(map[topo.NodeID]topo.NodeDelta{origin: topo.BalanceDelta(7)})
		msg := message.NewSyncGraph(message.SyncUpdateNodeData, asset, addr(origin), "")
		msg.MessageBody = body

		// The origin applies its own mutation first.
		if _, err := net.gateways[origin].Apply(msg); err != nil {
			t.Fatal(err)
		}
		delivered := net.flood(t, origin, msg)
		if delivered > n-1 {
			t.Errorf("n=%d: %d deliveries; want at most %d", n, delivered, n-1)
		}
		for id, s := range net.gateways {
			if node, _ := s.Topology.Graph(asset).Node(origin); node.Balance != 7 {
				t.Errorf("n=%d: %s did not converge: %+v", n, id, node)
			}
			if net.received[id] > 1 {
				t.Errorf("n=%d: %s received %d copies", n, id, net.received[id])
			}
		}
	}
}

func TestLineReachesEveryone(t *testing.T) {
	net := newNetwork(5, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}})
	a, b := nodeID(0), nodeID(1)
	for _, s := range net.gateways {
		s.Topology.RemoveEdge(asset, a, b)
	}
	// a and b reconnect; only b's side originates the sync here.
	net.gateways[b].Topology.AddEdge(asset, a, b)
	msg := message.NewSyncGraph(message.SyncAddWholeGraph, asset, addr(b), addr(a))

	delivered := net.flood(t, b, msg)
	if delivered != 4 {
		t.Errorf("got %d deliveries; want 4", delivered)
	}
	for id, s := range net.gateways {
		if !s.Topology.Graph(asset).HasEdge(a, b) {
			t.Errorf("%s missing the new edge", id)
		}
	}
}

func TestPlanExcepts(t *testing.T) {
	net := newNetwork(4, [][2]int{{0, 1}, {0, 2}, {0, 3}, {2, 3}})
	s := net.gateways[nodeID(0)]

	msg := message.NewSyncGraph(message.SyncRemoveSingleEdge, asset, addr(nodeID(0)), addr(nodeID(1)))
	msg.Receiver = addr(nodeID(0))
	msg.Excepts = []string{string(nodeID(2)), "somewhere:1"}

	deliveries, err := s.Plan(msg, nodeID(0))
	if err != nil {
		t.Fatal(err)
	}
	var to []string
	for _, d := range deliveries {
		to = append(to, d.To.Host())
	}
	if want := []string{string(nodeID(1)), string(nodeID(3))}; !reflect.DeepEqual(to, want) {
		t.Errorf("targets: got %v; want %v", to, want)
	}
	want := []string{string(nodeID(0)), string(nodeID(1)), string(nodeID(2)), string(nodeID(3)), "somewhere:1"}
	for _, d := range deliveries {
		if !reflect.DeepEqual(d.Msg.Excepts, want) {
			t.Errorf("excepts: got %v; want %v", d.Msg.Excepts, want)
		}
		if d.Msg.Receiver != d.To {
			t.Errorf("receiver not rewritten: %s", d.Msg.Receiver)
		}
	}
	if !reflect.DeepEqual(msg.Excepts, []string{string(nodeID(2)), "somewhere:1"}) {
		t.Errorf("plan mutated the inbound message: %v", msg.Excepts)
	}
}

func TestPlanCarriesSnapshot(t *testing.T) {
	net := newNetwork(2, [][2]int{{0, 1}})
	s := net.gateways[nodeID(0)]
	msg := message.NewSyncGraph(message.SyncAddWholeGraph, asset, addr(nodeID(0)), "")

	deliveries, err := s.Plan(msg, nodeID(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(deliveries) != 1 {
		t.Fatalf("got %d deliveries", len(deliveries))
	}
	var snap topo.Snapshot
	if err := json.Unmarshal(deliveries[0].Msg.MessageBody, &snap); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(snap, s.Topology.ToSnapshot(asset)) {
		t.Errorf("payload is not the local graph: %+v", snap)
	}
}

func TestApplyErrors(t *testing.T) {
	net := newNetwork(2, [][2]int{{0, 1}})
	s := net.gateways[nodeID(0)]
	before := s.Topology.ToSnapshot(asset)

	bad := []*message.SyncGraph{
		{SyncType: message.SyncAddWholeGraph, AssetType: asset, Source: addr(nodeID(1)), MessageBody: json.RawMessage(`{"Nodes": 5}`)},
		{SyncType: message.SyncAddWholeGraph, AssetType: asset, Source: addr(nodeID(1)), MessageBody: json.RawMessage(`{"Nodes": [{"NodeId": "x:1"}], "Edges": [["x:1", "y:1"]]}`)},
		{SyncType: message.SyncUpdateNodeData, AssetType: asset, Source: addr(nodeID(1)), MessageBody: json.RawMessage(`{"10.0.0.1:8089": {"Balance": 3}, "unknown:1": {"Balance": 1}}`)},
		{SyncType: message.SyncRemoveSingleEdge, AssetType: asset, Source: addr(nodeID(1))},
		{SyncType: "bogus", AssetType: asset, Source: addr(nodeID(1))},
	}
	for i, msg := range bad {
		_, err := s.Apply(msg)
		if _, ok := err.(SyncApplyError); !ok {
			t.Errorf("[%d] expected SyncApplyError, got: %v", i, err)
		}
	}
	if after := s.Topology.ToSnapshot(asset); !reflect.DeepEqual(before, after) {
		t.Errorf("failed syncs modified the graph")
	}
}

func TestApplyRemoveEdge(t *testing.T) {
	net := newNetwork(2, [][2]int{{0, 1}})
	s := net.gateways[nodeID(0)]
	msg := message.NewSyncGraph(message.SyncRemoveSingleEdge, asset, addr(nodeID(0)), addr(nodeID(1)))

	if changed, err := s.Apply(msg); err != nil || !changed {
		t.Errorf("got %v, %v; want true, nil", changed, err)
	}
	if changed, err := s.Apply(msg); err != nil || changed {
		t.Errorf("got %v, %v; want false, nil", changed, err)
	}
}
