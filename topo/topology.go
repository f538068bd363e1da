// Package topo holds the per-asset topology graphs of the payment-channel
// network and the index of light clients attached to their wallets.
package topo

import "sort"

// Topology owns one Graph per asset type. It is mutated only from the
// gateway's event loop and is not safe for concurrent use.
type Topology struct {
	graphs map[string]*Graph
}

// New returns an empty Topology.
func New() *Topology {
	return &Topology{graphs: map[string]*Graph{}}
}

// Graph returns the graph for asset, or nil if none exists yet.
func (t *Topology) Graph(asset string) *Graph {
	return t.graphs[asset]
}

// Ensure returns the graph for asset, creating it if needed.
func (t *Topology) Ensure(asset string) *Graph {
	g, ok := t.graphs[asset]
	if !ok {
		g = NewGraph(asset)
		t.graphs[asset] = g
	}
	return g
}

// Assets returns the asset types with a graph, sorted.
func (t *Topology) Assets() []string {
	r := make([]string, 0, len(t.graphs))
	for asset := range t.graphs {
		r = append(r, asset)
	}
	sort.Strings(r)
	return r
}

// AddOrUpdateNode inserts or updates n in the graph of asset, creating the
// graph if needed.
func (t *Topology) AddOrUpdateNode(asset string, n Node) bool {
	return t.Ensure(asset).AddOrUpdateNode(n)
}

// UpdateNode applies a partial update to a node of asset.
func (t *Topology) UpdateNode(asset string, id NodeID, d NodeDelta) (bool, error) {
	g := t.graphs[asset]
	if g == nil {
		return false, ErrUnknownNode{Asset: asset, ID: id}
	}
	return g.UpdateNode(id, d)
}

// AddEdge connects a and b in the graph of asset.
func (t *Topology) AddEdge(asset string, a, b NodeID) bool {
	g := t.graphs[asset]
	return g != nil && g.AddEdge(a, b)
}

// RemoveEdge reports whether an a-b edge of asset existed and was removed.
func (t *Topology) RemoveEdge(asset string, a, b NodeID) bool {
	g := t.graphs[asset]
	return g != nil && g.RemoveEdge(a, b)
}

// RemoveNode deletes an unreferenced node of asset.
func (t *Topology) RemoveNode(asset string, id NodeID) bool {
	g := t.graphs[asset]
	return g != nil && g.RemoveNode(id)
}

// Neighbors returns the sorted neighbors of id in the graph of asset.
func (t *Topology) Neighbors(asset string, id NodeID) []NodeID {
	g := t.graphs[asset]
	if g == nil {
		return nil
	}
	return g.Neighbors(id)
}

// ToSnapshot serializes the graph of asset. A missing graph yields an
// empty snapshot.
func (t *Topology) ToSnapshot(asset string) Snapshot {
	g := t.graphs[asset]
	if g == nil {
		return Snapshot{AssetType: asset, Nodes: []Node{}, Edges: []Edge{}}
	}
	return g.Snapshot()
}

// FromSnapshot merges s into the graph of asset.
func (t *Topology) FromSnapshot(asset string, s Snapshot) (bool, error) {
	g := t.graphs[asset]
	if g == nil {
		g = NewGraph(asset)
		changed, err := g.Merge(s)
		if err != nil {
			return false, err
		}
		t.graphs[asset] = g
		return changed, nil
	}
	return g.Merge(s)
}

// SetNodeStatus flips the status of id in every graph that contains it and
// returns the assets that changed.
func (t *Topology) SetNodeStatus(id NodeID, status int) []string {
	var changed []string
	for _, asset := range t.Assets() {
		g := t.graphs[asset]
		if !g.Has(id) {
			continue
		}
		if ok, _ := g.UpdateNode(id, StatusDelta(status)); ok {
			changed = append(changed, asset)
		}
	}
	return changed
}
