package message

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress(t *testing.T) {
	testcases := []struct {
		Addr  Address
		PK    string
		Host  string
		IP    string
		Light bool
		Valid bool
	}{
		{"abc@1.2.3.4:8089", "abc", "1.2.3.4:8089", "1.2.3.4", false, true},
		{"abc@1.2.3.4", "abc", "1.2.3.4", "1.2.3.4", true, true},
		{"abc", "", "", "", false, false},
		{"@1.2.3.4:80", "", "", "", false, false},
		{"abc@", "", "", "", false, false},
	}

	for i, tc := range testcases {
		if got := tc.Addr.PublicKey(); got != tc.PK {
			t.Errorf("[%d] PublicKey: got %q; want %q", i, got, tc.PK)
		}
		if got := tc.Addr.Host(); got != tc.Host {
			t.Errorf("[%d] Host: got %q; want %q", i, got, tc.Host)
		}
		if got := tc.Addr.IP(); got != tc.IP {
			t.Errorf("[%d] IP: got %q; want %q", i, got, tc.IP)
		}
		if got := tc.Addr.IsLightClient(); got != tc.Light {
			t.Errorf("[%d] IsLightClient: got %v; want %v", i, got, tc.Light)
		}
		if err := tc.Addr.Validate(); (err == nil) != tc.Valid {
			t.Errorf("[%d] Validate: got %v; want valid=%v", i, err, tc.Valid)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := Decode([]byte{0xff, 0xfe}); err == nil {
		t.Error("expected decode error for invalid utf-8")
	} else if _, ok := err.(DecodeError); !ok {
		t.Errorf("wrong error type: %T", err)
	}

	if _, err := Decode([]byte(`{"MessageType": `)); err == nil {
		t.Error("expected decode error for truncated json")
	} else if _, ok := err.(DecodeError); !ok {
		t.Errorf("wrong error type: %T", err)
	}

	missing := []string{
		`{}`,
		`{"MessageType": "Rsmc", "Sender": "a@1.1.1.1:1", "MessageBody": {"AssetType": "TNC"}}`,
		`{"MessageType": "Rsmc", "Sender": "a@1.1.1.1:1", "Receiver": "b@2.2.2.2:2", "MessageBody": {}}`,
		`{"MessageType": "SyncChannelState", "SyncType": "add_whole_graph", "Source": "a@1.1.1.1:1"}`,
		`{"MessageType": "SyncChannelState", "SyncType": "bogus", "AssetType": "TNC", "Source": "a@1.1.1.1:1"}`,
		`{"MessageType": "RegisterKeepAlive"}`,
	}
	for i, raw := range missing {
		_, err := Decode([]byte(raw))
		if _, ok := err.(ValidationError); !ok {
			t.Errorf("[%d] expected validation error, got: %v", i, err)
		}
	}
}

func TestDecodeVariants(t *testing.T) {
	testcases := []struct {
		Raw  string
		Want string
	}{
		{`{"MessageType": "Htlc", "Sender": "a@1.1.1.1:1", "Receiver": "b@2.2.2.2:2", "MessageBody": {"AssetType": "TNC", "Value": 3}}`, "*message.Transaction"},
		{`{"MessageType": "SyncChannelState", "SyncType": "remove_single_edge", "AssetType": "TNC", "Source": "a@1.1.1.1:1", "Target": "b@2.2.2.2:2"}`, "*message.SyncGraph"},
		{`{"MessageType": "RegisterKeepAlive", "Ip": "1.1.1.1:20556"}`, "*message.KeepAlive"},
		{`{"MessageType": "SomethingNew", "Foo": 1}`, "*message.Unrecognized"},
	}

	for i, tc := range testcases {
		msg, err := Decode([]byte(tc.Raw))
		if err != nil {
			t.Errorf("[%d] unexpected error: %s", i, err)
			continue
		}
		var got string
		switch msg.(type) {
		case *Transaction:
			got = "*message.Transaction"
		case *SyncGraph:
			got = "*message.SyncGraph"
		case *KeepAlive:
			got = "*message.KeepAlive"
		case *Unrecognized:
			got = "*message.Unrecognized"
		}
		if got != tc.Want {
			t.Errorf("[%d] got %s; want %s", i, got, tc.Want)
		}
	}
}

func TestTransactionPreservesUnknownKeys(t *testing.T) {
	raw := `{"MessageType": "Rsmc", "Sender": "a@1.1.1.1:1", "Receiver": "b@2.2.2.2:2", "TxNonce": 7,
		"MessageBody": {"AssetType": "TNC", "Value": 10, "HashR": "0xabc"},
		"RouterInfo": {"FullPath": [["a@1.1.1.1:1", 0], ["b@2.2.2.2:2", 1.5]], "Next": "a@1.1.1.1:1"}}`
	msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	tx := msg.(*Transaction)
	if tx.MessageBody.Value != 10 {
		t.Errorf("wrong value: %v", tx.MessageBody.Value)
	}
	if got := tx.RouterInfo.FullPath[1]; got.URL != "b@2.2.2.2:2" || got.Fee != 1.5 {
		t.Errorf("wrong hop: %v", got)
	}

	fwd := tx.Clone()
	fwd.MessageBody.SetValue(8.5)
	fwd.RouterInfo = fwd.RouterInfo.Advance(0)

	out, err := json.Marshal(fwd)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]interface{}
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back["TxNonce"] != float64(7) {
		t.Errorf("lost top-level key: %s", out)
	}
	body := back["MessageBody"].(map[string]interface{})
	if body["HashR"] != "0xabc" || body["Value"] != 8.5 {
		t.Errorf("wrong body: %s", out)
	}
	ri := back["RouterInfo"].(map[string]interface{})
	if ri["Next"] != "b@2.2.2.2:2" || ri["Index"] != float64(1) {
		t.Errorf("wrong router info: %s", out)
	}
	if !strings.Contains(string(out), `["b@2.2.2.2:2",1.5]`) {
		t.Errorf("hop not encoded as a pair: %s", out)
	}

	// Original is untouched.
	if tx.MessageBody.Value != 10 || tx.RouterInfo.Next != "a@1.1.1.1:1" {
		t.Errorf("clone mutated the original: %+v", tx)
	}
}

func TestRouterInfoPosition(t *testing.T) {
	ri := RouterInfo{
		FullPath: []Hop{{"a@1.1.1.1:1", 1}, {"b@2.2.2.2:2", 1}, {"c@3.3.3.3:3", 1}},
		Next:     "b@2.2.2.2:2",
	}
	// Without an index, the hop is found by NodeID rather than by value.
	if i, ok := ri.Position("2.2.2.2:2"); !ok || i != 1 {
		t.Errorf("got %d, %v; want 1, true", i, ok)
	}
	idx := 2
	ri.Index = &idx
	if _, ok := ri.Position("2.2.2.2:2"); ok {
		t.Error("expected mismatched index to be rejected")
	}
	idx = 1
	if i, ok := ri.Position("2.2.2.2:2"); !ok || i != 1 {
		t.Errorf("got %d, %v; want 1, true", i, ok)
	}
}

func TestUnwrapParams(t *testing.T) {
	obj := `{"MessageType": "GetRouterInfo", "Receiver": "b@2.2.2.2:2"}`
	wrapped, _ := json.Marshal(obj)

	for _, raw := range []json.RawMessage{json.RawMessage(obj), wrapped} {
		msg, err := DecodeParams(raw)
		if err != nil {
			t.Fatal(err)
		}
		if msg.Type() != TypeGetRouterInfo {
			t.Errorf("wrong type: %s", msg.Type())
		}
	}
}
