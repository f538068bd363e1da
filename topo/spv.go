package topo

import (
	"encoding/json"
	"sort"
)

type keySet map[string]struct{}

func (s keySet) sorted() []string {
	r := make([]string, 0, len(s))
	for k := range s {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}

// SPVIndex maps wallet public keys to the light clients attached to them,
// and back. Every forward entry has a matching reverse entry.
type SPVIndex struct {
	forward map[string]keySet
	reverse map[string]keySet
}

// NewSPVIndex returns an empty index.
func NewSPVIndex() *SPVIndex {
	return &SPVIndex{
		forward: map[string]keySet{},
		reverse: map[string]keySet{},
	}
}

// Add attaches spvPk to ownerPk. It reports whether the pair is new.
func (idx *SPVIndex) Add(ownerPk, spvPk string) bool {
	if _, ok := idx.forward[ownerPk][spvPk]; ok {
		return false
	}
	if idx.forward[ownerPk] == nil {
		idx.forward[ownerPk] = keySet{}
	}
	if idx.reverse[spvPk] == nil {
		idx.reverse[spvPk] = keySet{}
	}
	idx.forward[ownerPk][spvPk] = struct{}{}
	idx.reverse[spvPk][ownerPk] = struct{}{}
	return true
}

// Remove detaches spvPk from ownerPk. It reports whether the pair existed.
func (idx *SPVIndex) Remove(ownerPk, spvPk string) bool {
	if _, ok := idx.forward[ownerPk][spvPk]; !ok {
		return false
	}
	delete(idx.forward[ownerPk], spvPk)
	if len(idx.forward[ownerPk]) == 0 {
		delete(idx.forward, ownerPk)
	}
	delete(idx.reverse[spvPk], ownerPk)
	if len(idx.reverse[spvPk]) == 0 {
		delete(idx.reverse, spvPk)
	}
	return true
}

// Find returns the light clients attached to ownerPk, sorted.
func (idx *SPVIndex) Find(ownerPk string) []string {
	return idx.forward[ownerPk].sorted()
}

// FindOwners returns the wallets spvPk is attached to, sorted.
func (idx *SPVIndex) FindOwners(spvPk string) []string {
	return idx.reverse[spvPk].sorted()
}

// Len returns the number of attachments.
func (idx *SPVIndex) Len() int {
	n := 0
	for _, s := range idx.forward {
		n += len(s)
	}
	return n
}

// MarshalJSON encodes the forward map as {ownerPk: [spvPk, ...]}.
func (idx *SPVIndex) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, len(idx.forward))
	for owner, set := range idx.forward {
		out[owner] = set.sorted()
	}
	return json.Marshal(out)
}
