package topo

import (
	"errors"
	"fmt"
	"sort"
)

// NodeID is the ip:port of a gateway; it identifies a vertex in an asset
// graph.
type NodeID string

// Node status values.
const (
	StatusOffline = 0
	StatusOnline  = 1
)

// ErrMalformedNode is returned when a node is missing its NodeId.
var ErrMalformedNode = errors.New("malformed node")

// ErrUnknownNode is returned when an operation names a node the graph does
// not contain.
type ErrUnknownNode struct {
	Asset string
	ID    NodeID
}

func (err ErrUnknownNode) Error() string {
	return fmt.Sprintf("unknown node %q in %s graph", err.ID, err.Asset)
}

// Node is the topology record of one gateway in one asset graph.
type Node struct {
	ID        NodeID   `json:"NodeId"`
	PublicKey string   `json:"PublicKey"`
	Name      string   `json:"Name"`
	Deposit   float64  `json:"Deposit"`
	Fee       float64  `json:"Fee"`
	Balance   float64  `json:"Balance"`
	Status    int      `json:"Status"`
	SpvList   []string `json:"SpvList,omitempty"`
}

// Online is true when the node's wallet is reachable.
func (n Node) Online() bool {
	return n.Status == StatusOnline
}

// URL is the PublicKey@ip:port address of the node's wallet.
func (n Node) URL() string {
	return n.PublicKey + "@" + string(n.ID)
}

func (n Node) copy() Node {
	n.SpvList = append([]string(nil), n.SpvList...)
	if len(n.SpvList) == 0 {
		n.SpvList = nil
	}
	return n
}

// NodeDelta is a partial update of node attributes. Nil members are left
// unchanged.
type NodeDelta struct {
	PublicKey *string  `json:"PublicKey,omitempty"`
	Name      *string  `json:"Name,omitempty"`
	Deposit   *float64 `json:"Deposit,omitempty"`
	Fee       *float64 `json:"Fee,omitempty"`
	Balance   *float64 `json:"Balance,omitempty"`
	Status    *int     `json:"Status,omitempty"`
}

// StatusDelta returns a delta that only changes Status.
func StatusDelta(status int) NodeDelta {
	return NodeDelta{Status: &status}
}

// BalanceDelta returns a delta that only changes Balance.
func BalanceDelta(balance float64) NodeDelta {
	return NodeDelta{Balance: &balance}
}

// apply merges d into n and reports whether anything changed.
func (d NodeDelta) apply(n *Node) bool {
	changed := false
	if d.PublicKey != nil && *d.PublicKey != n.PublicKey {
		n.PublicKey, changed = *d.PublicKey, true
	}
	if d.Name != nil && *d.Name != n.Name {
		n.Name, changed = *d.Name, true
	}
	if d.Deposit != nil && *d.Deposit != n.Deposit {
		n.Deposit, changed = *d.Deposit, true
	}
	if d.Fee != nil && *d.Fee != n.Fee {
		n.Fee, changed = *d.Fee, true
	}
	if d.Balance != nil && *d.Balance != n.Balance {
		n.Balance, changed = *d.Balance, true
	}
	if d.Status != nil && *d.Status != n.Status {
		n.Status, changed = *d.Status, true
	}
	return changed
}

// unionStrings adds the members of add missing from set, keeping it sorted.
func unionStrings(set []string, add ...string) ([]string, bool) {
	seen := make(map[string]struct{}, len(set))
	for _, s := range set {
		seen[s] = struct{}{}
	}
	changed := false
	for _, s := range add {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		set = append(set, s)
		changed = true
	}
	if changed {
		sort.Strings(set)
	}
	return set, changed
}
