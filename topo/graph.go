package topo

import "sort"

// Edge is an undirected channel between two nodes, stored with the lower
// NodeID first.
type Edge [2]NodeID

// NewEdge returns the canonical form of the a-b edge.
func NewEdge(a, b NodeID) Edge {
	if b < a {
		a, b = b, a
	}
	return Edge{a, b}
}

// Graph is the topology of one asset: an arena of node records keyed by
// NodeID plus an adjacency map. It is not safe for concurrent use.
type Graph struct {
	Asset string

	nodes map[NodeID]*Node
	adj   map[NodeID]map[NodeID]struct{}
	spv   *SPVIndex
	// keys resolves wallet public keys to the node hosting them.
	keys map[string]NodeID
}

// NewGraph returns an empty graph for asset.
func NewGraph(asset string) *Graph {
	return &Graph{
		Asset: asset,
		nodes: map[NodeID]*Node{},
		adj:   map[NodeID]map[NodeID]struct{}{},
		spv:   NewSPVIndex(),
		keys:  map[string]NodeID{},
	}
}

// SPV returns the light-client index of the graph.
func (g *Graph) SPV() *SPVIndex {
	return g.spv
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	n := 0
	for _, peers := range g.adj {
		n += len(peers)
	}
	return n / 2
}

// Node returns a copy of the node with id.
func (g *Graph) Node(id NodeID) (Node, bool) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.copy(), true
}

// Has reports whether id is a node of the graph.
func (g *Graph) Has(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// Lookup returns the node hosting the wallet with publicKey.
func (g *Graph) Lookup(publicKey string) (NodeID, bool) {
	id, ok := g.keys[publicKey]
	return id, ok
}

// Nodes returns copies of every node, sorted by NodeID.
func (g *Graph) Nodes() []Node {
	r := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		r = append(r, n.copy())
	}
	sort.Slice(r, func(i, j int) bool { return r[i].ID < r[j].ID })
	return r
}

// Edges returns every edge, sorted.
func (g *Graph) Edges() []Edge {
	r := []Edge{}
	for a, peers := range g.adj {
		for b := range peers {
			if a < b {
				r = append(r, Edge{a, b})
			}
		}
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i][0] != r[j][0] {
			return r[i][0] < r[j][0]
		}
		return r[i][1] < r[j][1]
	})
	return r
}

// AddOrUpdateNode inserts n or merges its attributes into the existing
// record. SpvList is merged as a set. It reports whether anything changed.
func (g *Graph) AddOrUpdateNode(n Node) bool {
	if n.ID == "" {
		return false
	}
	cur, ok := g.nodes[n.ID]
	if !ok {
		n = n.copy()
		n.SpvList, _ = unionStrings(nil, n.SpvList...)
		g.nodes[n.ID] = &n
		g.index(&n)
		g.attach(n.PublicKey, n.SpvList)
		return true
	}
	owner := cur.PublicKey
	pk, name := n.PublicKey, n.Name
	delta := NodeDelta{
		Deposit: &n.Deposit,
		Fee:     &n.Fee,
		Balance: &n.Balance,
		Status:  &n.Status,
	}
	if pk != "" {
		delta.PublicKey = &pk
		owner = pk
	}
	if name != "" {
		delta.Name = &name
	}
	changed := delta.apply(cur)
	if g.mergeSpv(cur, owner, n.SpvList) {
		changed = true
	}
	if changed {
		g.index(cur)
	}
	return changed
}

// UpdateNode applies a partial update to an existing node.
func (g *Graph) UpdateNode(id NodeID, d NodeDelta) (bool, error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, ErrUnknownNode{Asset: g.Asset, ID: id}
	}
	changed := d.apply(n)
	if changed {
		g.index(n)
	}
	return changed, nil
}

// index records the wallet key hosted by the node.
func (g *Graph) index(n *Node) {
	if n.PublicKey != "" {
		g.keys[n.PublicKey] = n.ID
	}
}

// attach records spvs as light clients of the wallet ownerPk.
func (g *Graph) attach(ownerPk string, spvs []string) {
	if ownerPk == "" {
		return
	}
	for _, spv := range spvs {
		g.spv.Add(ownerPk, spv)
	}
}

// mergeSpv unions spvs into the node's SpvList. Only the newly listed light
// clients are attached, and only to ownerPk, the wallet that reported them.
func (g *Graph) mergeSpv(n *Node, ownerPk string, spvs []string) bool {
	var fresh []string
	for _, spv := range spvs {
		if !containsString(n.SpvList, spv) {
			fresh = append(fresh, spv)
		}
	}
	list, added := unionStrings(n.SpvList, fresh...)
	if !added {
		return false
	}
	n.SpvList = list
	g.attach(ownerPk, fresh)
	return true
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// RemoveNode deletes a node that no edge references.
func (g *Graph) RemoveNode(id NodeID) bool {
	n, ok := g.nodes[id]
	if !ok || len(g.adj[id]) > 0 {
		return false
	}
	for _, spv := range n.SpvList {
		g.spv.Remove(n.PublicKey, spv)
	}
	for pk, owner := range g.keys {
		if owner == id {
			delete(g.keys, pk)
		}
	}
	delete(g.nodes, id)
	delete(g.adj, id)
	return true
}

// AddEdge connects a and b. It fails when either node is missing or a == b.
func (g *Graph) AddEdge(a, b NodeID) bool {
	if a == b || !g.Has(a) || !g.Has(b) {
		return false
	}
	if _, ok := g.adj[a][b]; ok {
		return false
	}
	g.link(a, b)
	g.link(b, a)
	return true
}

func (g *Graph) link(a, b NodeID) {
	if g.adj[a] == nil {
		g.adj[a] = map[NodeID]struct{}{}
	}
	g.adj[a][b] = struct{}{}
}

// HasEdge reports whether a and b are connected.
func (g *Graph) HasEdge(a, b NodeID) bool {
	_, ok := g.adj[a][b]
	return ok
}

// RemoveEdge reports whether an a-b edge existed and was removed.
func (g *Graph) RemoveEdge(a, b NodeID) bool {
	if !g.HasEdge(a, b) {
		return false
	}
	delete(g.adj[a], b)
	delete(g.adj[b], a)
	if len(g.adj[a]) == 0 {
		delete(g.adj, a)
	}
	if len(g.adj[b]) == 0 {
		delete(g.adj, b)
	}
	return true
}

// Neighbors returns the nodes connected to id, sorted.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	r := make([]NodeID, 0, len(g.adj[id]))
	for n := range g.adj[id] {
		r = append(r, n)
	}
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return r
}

// AttachLightClient records spvPk as a light client of the wallet ownerPk
// hosted at id.
func (g *Graph) AttachLightClient(id NodeID, ownerPk, spvPk string) (bool, error) {
	n, ok := g.nodes[id]
	if !ok {
		return false, ErrUnknownNode{Asset: g.Asset, ID: id}
	}
	g.keys[ownerPk] = id
	changed := g.spv.Add(ownerPk, spvPk)
	if list, added := unionStrings(n.SpvList, spvPk); added {
		n.SpvList = list
		changed = true
	}
	return changed, nil
}

// DetachLightClient removes an attachment made by AttachLightClient.
func (g *Graph) DetachLightClient(id NodeID, ownerPk, spvPk string) bool {
	removed := g.spv.Remove(ownerPk, spvPk)
	n, ok := g.nodes[id]
	if !ok {
		return removed
	}
	for _, other := range g.spv.FindOwners(spvPk) {
		if g.keys[other] == id {
			// Still attached through another wallet on the same node.
			return removed
		}
	}
	for i, s := range n.SpvList {
		if s == spvPk {
			n.SpvList = append(n.SpvList[:i], n.SpvList[i+1:]...)
			if len(n.SpvList) == 0 {
				n.SpvList = nil
			}
			return true
		}
	}
	return removed
}

// LightClientOwners returns the nodes hosting a wallet spvPk is attached
// to, sorted.
func (g *Graph) LightClientOwners(spvPk string) []NodeID {
	seen := map[NodeID]struct{}{}
	for _, owner := range g.spv.FindOwners(spvPk) {
		if id, ok := g.keys[owner]; ok && g.Has(id) {
			seen[id] = struct{}{}
		}
	}
	r := make([]NodeID, 0, len(seen))
	for id := range seen {
		r = append(r, id)
	}
	sort.Slice(r, func(i, j int) bool { return r[i] < r[j] })
	return r
}
