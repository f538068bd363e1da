// Package route finds fee-minimizing paths through an asset graph.
package route

import (
	"container/heap"
	"fmt"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
)

// NoRouteError is returned when the destination is absent from the graph or
// cannot be reached through online nodes.
type NoRouteError struct {
	Asset       string
	Origin      string
	Destination string
}

func (err NoRouteError) Error() string {
	return fmt.Sprintf("no %s route from %s to %s", err.Asset, err.Origin, err.Destination)
}

// Route is an ordered path from the origin gateway to the destination.
type Route struct {
	Asset string
	Hops  []message.Hop
	// Cost is the sum of the fees of every hop after the origin, which is
	// what the transferred value loses on its way to a light client at the
	// destination. A single hop route costs its gateway's fee.
	Cost float64

	path []topo.NodeID
}

// RouterInfo returns the route in the form carried by transactions, with
// Next pointing at the origin.
func (r Route) RouterInfo() *message.RouterInfo {
	hops := make([]message.Hop, len(r.Hops))
	copy(hops, r.Hops)
	idx := 0
	return &message.RouterInfo{
		FullPath: hops,
		Next:     hops[0].URL,
		Index:    &idx,
	}
}

// Path returns the NodeIDs of the route.
func (r Route) Path() []topo.NodeID {
	return append([]topo.NodeID(nil), r.path...)
}

// better ranks routes by cost, then hop count, then lexical NodeID order.
func better(costA float64, pathA []topo.NodeID, costB float64, pathB []topo.NodeID) bool {
	if costA != costB {
		return costA < costB
	}
	if len(pathA) != len(pathB) {
		return len(pathA) < len(pathB)
	}
	for i := range pathA {
		if pathA[i] != pathB[i] {
			return pathA[i] < pathB[i]
		}
	}
	return false
}

// Planner computes routes over a Topology.
type Planner struct {
	Topology *topo.Topology
}

// FindRoute returns the cheapest route from origin to destination.
func (p *Planner) FindRoute(asset string, origin, destination topo.NodeID) (Route, error) {
	noRoute := NoRouteError{Asset: asset, Origin: string(origin), Destination: string(destination)}
	g := p.Topology.Graph(asset)
	if g == nil {
		return Route{}, noRoute
	}
	start, ok := g.Node(origin)
	if !ok {
		return Route{}, noRoute
	}
	dest, ok := g.Node(destination)
	if !ok || !dest.Online() {
		return Route{}, noRoute
	}
	if origin == destination {
		return Route{
			Asset: asset,
			Hops:  []message.Hop{{URL: message.Address(start.URL()), Fee: start.Fee}},
			Cost:  start.Fee,
			path:  []topo.NodeID{origin},
		}, nil
	}

	best := map[topo.NodeID]*label{origin: {id: origin, path: []topo.NodeID{origin}}}
	done := map[topo.NodeID]bool{}
	q := &queue{best[origin]}
	for q.Len() > 0 {
		cur := heap.Pop(q).(*label)
		if done[cur.id] {
			continue
		}
		done[cur.id] = true
		if cur.id == destination {
			break
		}
		for _, next := range g.Neighbors(cur.id) {
			if done[next] {
				continue
			}
			n, _ := g.Node(next)
			if !n.Online() {
				continue
			}
			cost := cur.cost + n.Fee
			path := append(append(make([]topo.NodeID, 0, len(cur.path)+1), cur.path...), next)
			if prev, ok := best[next]; ok && !better(cost, path, prev.cost, prev.path) {
				continue
			}
			l := &label{id: next, cost: cost, path: path}
			best[next] = l
			heap.Push(q, l)
		}
	}

	found, ok := best[destination]
	if !ok || !done[destination] {
		return Route{}, noRoute
	}
	r := Route{Asset: asset, Cost: found.cost, path: found.path}
	for _, id := range found.path {
		n, _ := g.Node(id)
		r.Hops = append(r.Hops, message.Hop{URL: message.Address(n.URL()), Fee: n.Fee})
	}
	return r, nil
}

// FindRouteToLightClient returns the cheapest route from origin to any
// gateway hosting a wallet the light client spvPk is attached to.
func (p *Planner) FindRouteToLightClient(asset string, origin topo.NodeID, spvPk string) (Route, error) {
	noRoute := NoRouteError{Asset: asset, Origin: string(origin), Destination: spvPk}
	g := p.Topology.Graph(asset)
	if g == nil {
		return Route{}, noRoute
	}
	var found *Route
	for _, owner := range g.LightClientOwners(spvPk) {
		r, err := p.FindRoute(asset, origin, owner)
		if err != nil {
			continue
		}
		if found == nil || better(r.Cost, r.path, found.Cost, found.path) {
			found = &r
		}
	}
	if found == nil {
		return Route{}, noRoute
	}
	return *found, nil
}

// Resolve routes from origin to the owner of receiver, which may be a
// wallet or a light client address.
func (p *Planner) Resolve(asset string, origin topo.NodeID, receiver message.Address) (Route, error) {
	if receiver.IsLightClient() {
		return p.FindRouteToLightClient(asset, origin, receiver.PublicKey())
	}
	return p.FindRoute(asset, origin, topo.NodeID(receiver.Host()))
}

type label struct {
	id   topo.NodeID
	cost float64
	path []topo.NodeID
}

// queue is a min-heap of labels ordered by route rank.
type queue []*label

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	return better(q[i].cost, q[i].path, q[j].cost, q[j].path)
}
func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *queue) Push(x interface{}) {
	*q = append(*q, x.(*label))
}
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	l := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return l
}
