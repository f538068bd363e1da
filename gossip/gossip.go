// Package gossip propagates topology mutations between neighboring gateways
// with growing exclusion sets, so each gateway relays a mutation to each
// neighbor at most once.
package gossip

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/topo"
)

// SyncApplyError is returned when an inbound sync cannot be applied. The
// sync is dropped and not propagated further.
type SyncApplyError struct {
	Asset    string
	SyncType string
	Cause    error
}

func (err SyncApplyError) Error() string {
	return fmt.Sprintf("failed to apply %s sync to %s graph: %s", err.SyncType, err.Asset, err.Cause)
}

// Delivery is one outbound copy of a sync message.
type Delivery struct {
	To  message.Address
	Msg *message.SyncGraph
}

// Synchronizer plans and applies topology syncs against a Topology.
type Synchronizer struct {
	Topology *topo.Topology
}

// Plan returns the copies of msg to send to the graph neighbors of the
// local nodes that have not been told yet. Each copy carries the union of
// the inbound exclusion set, the local nodes, their neighbors and the
// message's receiver. add_whole_graph copies carry the current graph.
func (s *Synchronizer) Plan(msg *message.SyncGraph, local ...topo.NodeID) ([]Delivery, error) {
	g := s.Topology.Graph(msg.AssetType)
	if g == nil {
		return nil, nil
	}

	isLocal := make(map[topo.NodeID]bool, len(local))
	for _, id := range local {
		isLocal[id] = true
	}
	informed := make(map[topo.NodeID]bool, len(msg.Excepts))
	for _, id := range msg.Excepts {
		informed[topo.NodeID(id)] = true
	}

	excepts := map[string]struct{}{}
	for _, id := range msg.Excepts {
		excepts[id] = struct{}{}
	}
	neighbors := map[topo.NodeID]struct{}{}
	for _, id := range local {
		excepts[string(id)] = struct{}{}
		for _, n := range g.Neighbors(id) {
			if isLocal[n] {
				continue
			}
			neighbors[n] = struct{}{}
			excepts[string(n)] = struct{}{}
		}
	}
	if host := msg.Receiver.Host(); host != "" {
		excepts[host] = struct{}{}
	}

	var targets []topo.NodeID
	for n := range neighbors {
		if !informed[n] {
			targets = append(targets, n)
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	out := make([]string, 0, len(excepts))
	for id := range excepts {
		out = append(out, id)
	}
	sort.Strings(out)

	var body json.RawMessage
	if msg.SyncType == message.SyncAddWholeGraph {
		raw, err := json.Marshal(g.Snapshot())
		if err != nil {
			return nil, err
		}
		body = raw
	}

	deliveries := make([]Delivery, 0, len(targets))
	for _, n := range targets {
		node, _ := g.Node(n)
		m := msg.Clone()
		m.Receiver = message.NewAddress(node.PublicKey, string(n))
		m.Excepts = out
		if body != nil {
			m.MessageBody = body
		}
		deliveries = append(deliveries, Delivery{To: m.Receiver, Msg: m})
	}
	logger.Printf("Planned %s sync of %s graph from %s to %d neighbors", msg.SyncType, msg.AssetType, msg.Source, len(deliveries))
	return deliveries, nil
}

// Apply merges an inbound sync into the topology and reports whether the
// topology changed.
func (s *Synchronizer) Apply(msg *message.SyncGraph) (bool, error) {
	fail := func(cause error) (bool, error) {
		return false, SyncApplyError{Asset: msg.AssetType, SyncType: msg.SyncType, Cause: cause}
	}
	asset := msg.AssetType
	source, target := topo.NodeID(msg.Source.Host()), topo.NodeID(msg.Target.Host())

	switch msg.SyncType {
	case message.SyncAddWholeGraph:
		var snap topo.Snapshot
		if err := json.Unmarshal(msg.MessageBody, &snap); err != nil {
			return fail(err)
		}
		changed, err := s.Topology.FromSnapshot(asset, snap)
		if err != nil {
			return fail(err)
		}
		if target != "" && s.Topology.AddEdge(asset, source, target) {
			changed = true
		}
		return changed, nil

	case message.SyncUpdateNodeData:
		var deltas map[topo.NodeID]topo.NodeDelta
		if err := json.Unmarshal(msg.MessageBody, &deltas); err != nil {
			return fail(err)
		}
		g := s.Topology.Graph(asset)
		for id := range deltas {
			if g == nil || !g.Has(id) {
				return fail(topo.ErrUnknownNode{Asset: asset, ID: id})
			}
		}
		changed := false
		for id, d := range deltas {
			ok, err := g.UpdateNode(id, d)
			if err != nil {
				return fail(err)
			}
			changed = changed || ok
		}
		return changed, nil

	case message.SyncRemoveSingleEdge:
		if target == "" {
			return fail(errors.New("missing edge target"))
		}
		return s.Topology.RemoveEdge(asset, source, target), nil
	}
	return fail(fmt.Errorf("unknown sync type %q", msg.SyncType))
}

// NodeUpdate builds the body of an update_node_data sync.
func NodeUpdate(deltas map[topo.NodeID]topo.NodeDelta) (json.RawMessage, error) {
	return json.Marshal(deltas)
}
