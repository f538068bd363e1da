package message

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Hop is one entry of a route: the node URL and the fee it charges. On the
// wire it is the two element array ["pk@ip:port", fee].
type Hop struct {
	URL Address
	Fee float64
}

func (h Hop) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{h.URL, h.Fee})
}

func (h *Hop) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("route hop must be a [url, fee] pair, got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &h.URL); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &h.Fee)
}

// RouterInfo is the route carried inside a transaction once the origin
// gateway has computed it.
type RouterInfo struct {
	FullPath []Hop   `json:"FullPath"`
	Next     Address `json:"Next"`
	// Index is the position of Next within FullPath. Peers that predate it
	// leave it unset.
	Index *int `json:"Index,omitempty"`
}

// Position returns the index of the hop Next points at. host is this
// gateway's NodeID, used when Index is not carried.
func (r *RouterInfo) Position(host string) (int, bool) {
	if r.Index != nil {
		i := *r.Index
		if i < 0 || i >= len(r.FullPath) || r.FullPath[i].URL.Host() != r.Next.Host() {
			return 0, false
		}
		return i, true
	}
	for i, hop := range r.FullPath {
		if hop.URL.Host() == host {
			return i, true
		}
	}
	return 0, false
}

// Advance returns a copy pointing at the hop after position i.
func (r *RouterInfo) Advance(i int) *RouterInfo {
	next := i + 1
	path := make([]Hop, len(r.FullPath))
	copy(path, r.FullPath)
	return &RouterInfo{
		FullPath: path,
		Next:     path[next].URL,
		Index:    &next,
	}
}

// Body is a MessageBody. Value and AssetType are typed; everything else the
// wallets put in the body is kept as-is.
type Body struct {
	Value     float64
	AssetType string

	hasValue bool
	rest     fields
}

// SetValue overrides the transferred amount.
func (b *Body) SetValue(v float64) {
	b.Value = v
	b.hasValue = true
}

// Field decodes an untyped body member into v. It reports whether the key
// was present.
func (b *Body) Field(key string, v interface{}) (bool, error) {
	raw, ok := b.rest[key]
	if !ok || isNull(raw) {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

func (b *Body) UnmarshalJSON(data []byte) error {
	f := fields{}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	b.hasValue = f.has("Value")
	if err := f.take("Value", &b.Value); err != nil {
		return fmt.Errorf("MessageBody.Value: %s", err)
	}
	if err := f.take("AssetType", &b.AssetType); err != nil {
		return fmt.Errorf("MessageBody.AssetType: %s", err)
	}
	b.rest = f
	return nil
}

func (b Body) MarshalJSON() ([]byte, error) {
	f := b.rest.clone()
	if b.hasValue {
		if err := f.put("Value", b.Value); err != nil {
			return nil, err
		}
	}
	if b.AssetType != "" {
		if err := f.put("AssetType", b.AssetType); err != nil {
			return nil, err
		}
	}
	return json.Marshal(f)
}

// Transaction is the envelope shared by routed transaction messages and the
// wallet/light-client control messages.
type Transaction struct {
	MessageType string
	Sender      Address
	Receiver    Address
	MessageBody Body
	RouterInfo  *RouterInfo
	Broadcast   bool
	Excepts     []string

	rest fields
}

func (t *Transaction) Type() string { return t.MessageType }

// AssetType returns the asset from the body, falling back to a top-level
// AssetType member.
func (t *Transaction) AssetType() string {
	if t.MessageBody.AssetType != "" {
		return t.MessageBody.AssetType
	}
	var asset string
	if raw, ok := t.rest["AssetType"]; ok {
		_ = json.Unmarshal(raw, &asset)
	}
	return asset
}

// Field decodes an untyped top-level member into v. It reports whether the
// key was present.
func (t *Transaction) Field(key string, v interface{}) (bool, error) {
	raw, ok := t.rest[key]
	if !ok || isNull(raw) {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Clone returns a deep enough copy to be rewritten independently.
func (t *Transaction) Clone() *Transaction {
	c := *t
	c.rest = t.rest.clone()
	c.MessageBody.rest = t.MessageBody.rest.clone()
	if t.RouterInfo != nil {
		ri := *t.RouterInfo
		ri.FullPath = append([]Hop(nil), t.RouterInfo.FullPath...)
		if t.RouterInfo.Index != nil {
			idx := *t.RouterInfo.Index
			ri.Index = &idx
		}
		c.RouterInfo = &ri
	}
	c.Excepts = append([]string(nil), t.Excepts...)
	return &c
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	f := fields{}
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	for key, into := range map[string]interface{}{
		"MessageType": &t.MessageType,
		"Sender":      &t.Sender,
		"Receiver":    &t.Receiver,
		"MessageBody": &t.MessageBody,
		"RouterInfo":  &t.RouterInfo,
		"Broadcast":   &t.Broadcast,
		"Excepts":     &t.Excepts,
	} {
		if err := f.take(key, into); err != nil {
			return fmt.Errorf("%s: %s", key, err)
		}
	}
	t.rest = f
	return nil
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	f := t.rest.clone()
	members := map[string]interface{}{
		"MessageType": t.MessageType,
		"Sender":      t.Sender,
		"Receiver":    t.Receiver,
		"MessageBody": t.MessageBody,
	}
	if t.RouterInfo != nil {
		members["RouterInfo"] = t.RouterInfo
	}
	if t.Broadcast {
		members["Broadcast"] = true
	}
	if len(t.Excepts) > 0 {
		members["Excepts"] = t.Excepts
	}
	for key, v := range members {
		if err := f.put(key, v); err != nil {
			return nil, err
		}
	}
	return json.Marshal(f)
}

// Validate checks the members each message type depends on.
func (t *Transaction) Validate() error {
	var missing []string
	switch {
	case IsTransactionType(t.MessageType), t.MessageType == TypeTrigger:
		if err := t.Sender.Validate(); err != nil {
			return ValidationError{Field: "Sender", Cause: err}
		}
		if err := t.Receiver.Validate(); err != nil {
			return ValidationError{Field: "Receiver", Cause: err}
		}
		if t.AssetType() == "" {
			missing = append(missing, "MessageBody.AssetType")
		}
		if ri := t.RouterInfo; ri != nil {
			if len(ri.FullPath) == 0 {
				missing = append(missing, "RouterInfo.FullPath")
			}
			if err := ri.Next.Validate(); err != nil {
				return ValidationError{Field: "RouterInfo.Next", Cause: err}
			}
		}
	case t.MessageType == TypeGetRouterInfo, t.MessageType == TypeRegisterChannel, t.MessageType == TypePaymentLink:
		if err := t.Receiver.Validate(); err != nil {
			return ValidationError{Field: "Receiver", Cause: err}
		}
	case t.MessageType == TypeResumeChannel:
		if err := t.Sender.Validate(); err != nil {
			return ValidationError{Field: "Sender", Cause: err}
		}
	}
	if len(missing) > 0 {
		return ValidationError{Field: missing[0], Cause: errors.New("missing required field")}
	}
	return nil
}
