package message

import (
	"encoding/json"
	"errors"
)

// SyncGraph is a SyncChannelState message, the unit of topology gossip.
// MessageBody carries a snapshot for add_whole_graph, a map of node deltas
// for update_node_data, and nothing for remove_single_edge.
type SyncGraph struct {
	MessageType string          `json:"MessageType"`
	SyncType    string          `json:"SyncType"`
	Sender      Address         `json:"Sender"`
	Receiver    Address         `json:"Receiver,omitempty"`
	Source      Address         `json:"Source"`
	Target      Address         `json:"Target,omitempty"`
	AssetType   string          `json:"AssetType"`
	MessageBody json.RawMessage `json:"MessageBody,omitempty"`
	Broadcast   bool            `json:"Broadcast"`
	Excepts     []string        `json:"Excepts"`
}

// NewSyncGraph returns a broadcast sync message originating at source.
func NewSyncGraph(syncType, asset string, source, target Address) *SyncGraph {
	return &SyncGraph{
		MessageType: TypeSyncChannelState,
		SyncType:    syncType,
		Sender:      source,
		Source:      source,
		Target:      target,
		AssetType:   asset,
		Broadcast:   true,
		Excepts:     []string{},
	}
}

func (m *SyncGraph) Type() string { return m.MessageType }

// Clone copies the message so the copy's Receiver and Excepts can be set
// independently. The body is shared; it is never mutated in place.
func (m *SyncGraph) Clone() *SyncGraph {
	c := *m
	c.Excepts = append([]string(nil), m.Excepts...)
	return &c
}

// Validate checks the members required to apply the sync.
func (m *SyncGraph) Validate() error {
	if !isSyncType(m.SyncType) {
		return ValidationError{Field: "SyncType", Cause: errors.New("unknown sync type " + m.SyncType)}
	}
	if m.AssetType == "" {
		return ValidationError{Field: "AssetType", Cause: errors.New("missing required field")}
	}
	if err := m.Source.Validate(); err != nil {
		return ValidationError{Field: "Source", Cause: err}
	}
	if m.Receiver != "" {
		if err := m.Receiver.Validate(); err != nil {
			return ValidationError{Field: "Receiver", Cause: err}
		}
	}
	if m.SyncType == SyncRemoveSingleEdge {
		if err := m.Target.Validate(); err != nil {
			return ValidationError{Field: "Target", Cause: err}
		}
	}
	return nil
}

// KeepAlive marks a peer connection as the control link of a wallet
// process running at Ip.
type KeepAlive struct {
	MessageType string `json:"MessageType"`
	Ip          string `json:"Ip"`
}

func (m *KeepAlive) Type() string { return m.MessageType }

// Unrecognized is a well-formed message whose MessageType is not handled.
type Unrecognized struct {
	MessageType string
	Raw         json.RawMessage
}

func (m *Unrecognized) Type() string { return m.MessageType }

// MarshalJSON relays the message as it was received.
func (m *Unrecognized) MarshalJSON() ([]byte, error) {
	return m.Raw, nil
}
