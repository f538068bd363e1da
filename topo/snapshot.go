package topo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Snapshot is the serialized form of a whole asset graph, exchanged by
// add_whole_graph syncs and persisted by the snapshot store.
type Snapshot struct {
	AssetType string `json:"AssetType"`
	Nodes     []Node `json:"Nodes"`
	Edges     []Edge `json:"Edges"`
}

// MalformedSnapshotError is returned when a snapshot cannot be merged.
type MalformedSnapshotError struct {
	Asset  string
	Reason string
}

func (err MalformedSnapshotError) Error() string {
	return fmt.Sprintf("malformed %s snapshot: %s", err.Asset, err.Reason)
}

// Digest is the Keccak-256 hash of the canonical JSON encoding.
func (s Snapshot) Digest() common.Hash {
	canon := Snapshot{
		AssetType: s.AssetType,
		Nodes:     make([]Node, len(s.Nodes)),
		Edges:     make([]Edge, len(s.Edges)),
	}
	for i, n := range s.Nodes {
		n = n.copy()
		sort.Strings(n.SpvList)
		canon.Nodes[i] = n
	}
	sort.Slice(canon.Nodes, func(i, j int) bool { return canon.Nodes[i].ID < canon.Nodes[j].ID })
	for i, e := range s.Edges {
		canon.Edges[i] = NewEdge(e[0], e[1])
	}
	sort.Slice(canon.Edges, func(i, j int) bool {
		if canon.Edges[i][0] != canon.Edges[j][0] {
			return canon.Edges[i][0] < canon.Edges[j][0]
		}
		return canon.Edges[i][1] < canon.Edges[j][1]
	})
	raw, err := json.Marshal(canon)
	if err != nil {
		// Only plain values are encoded.
		panic(err)
	}
	return crypto.Keccak256Hash(raw)
}

// Snapshot returns the whole graph in serialized form.
func (g *Graph) Snapshot() Snapshot {
	return Snapshot{
		AssetType: g.Asset,
		Nodes:     g.Nodes(),
		Edges:     g.Edges(),
	}
}

// Merge unions s into the graph. Nodes already known locally keep their
// attributes apart from SpvList, which is merged as a set. A snapshot with
// an anonymous node or an edge whose endpoint is unknown to both sides is
// rejected without touching the graph.
func (g *Graph) Merge(s Snapshot) (bool, error) {
	incoming := make(map[NodeID]struct{}, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return false, MalformedSnapshotError{Asset: g.Asset, Reason: "node without NodeId"}
		}
		incoming[n.ID] = struct{}{}
	}
	for _, e := range s.Edges {
		if e[0] == e[1] {
			return false, MalformedSnapshotError{Asset: g.Asset, Reason: fmt.Sprintf("self edge on %q", e[0])}
		}
		for _, end := range e {
			if _, ok := incoming[end]; !ok && !g.Has(end) {
				return false, MalformedSnapshotError{Asset: g.Asset, Reason: fmt.Sprintf("edge endpoint %q missing", end)}
			}
		}
	}

	changed := false
	for _, n := range s.Nodes {
		cur, ok := g.nodes[n.ID]
		if !ok {
			g.AddOrUpdateNode(n)
			changed = true
			continue
		}
		owner := n.PublicKey
		if owner == "" {
			owner = cur.PublicKey
		}
		if g.mergeSpv(cur, owner, n.SpvList) {
			changed = true
		}
	}
	for _, e := range s.Edges {
		if g.AddEdge(e[0], e[1]) {
			changed = true
		}
	}
	return changed, nil
}
