package status

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func compareJSON(t *testing.T, got, want interface{}) {
	t.Helper()

	gotBytes, err := json.Marshal(got)
	if err != nil {
		t.Errorf("compareJSON: failed to marshal got value: %s", err)
		return
	}
	wantBytes, err := json.Marshal(want)
	if err != nil {
		t.Errorf("compareJSON: failed to marshal want value: %s", err)
		return
	}

	if !bytes.Equal(gotBytes, wantBytes) {
		t.Errorf("compareJSON failed:\n got: %s\nwant: %s", gotBytes, wantBytes)
	}
}

type fakeSource struct {
	stats Stats
	err   error
	calls int
}

func (f *fakeSource) Stats(ctx context.Context) (*Stats, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := f.stats
	return &s, nil
}

func TestGatewayStatus(t *testing.T) {
	now := time.Now()
	src := &fakeSource{stats: Stats{NodeID: "10.0.0.1:8089", Assets: []Asset{}, Wallets: []Wallet{}}}
	s := GatewayStatus{
		Source:        src,
		TimeStarted:   now,
		Version:       "foo",
		CacheDuration: time.Minute * 10,
	}

	r, err := s.Status(context.Background())
	if err != nil {
		t.Error(err)
	}
	expected := &StatusResponse{
		TimeUpdated: r.TimeUpdated,
		TimeStarted: now,
		Version:     "foo",
		Stats:       &Stats{NodeID: "10.0.0.1:8089", Assets: []Asset{}, Wallets: []Wallet{}},
	}
	compareJSON(t, r, expected)

	src.stats.NumSessions = 3
	src.stats.Assets = []Asset{{AssetType: "TNC", NumNodes: 2, NumEdges: 1}}

	// Get cached response again
	r, err = s.Status(context.Background())
	if err != nil {
		t.Error(err)
	}
	compareJSON(t, r, expected)
	if src.calls != 1 {
		t.Errorf("cache miss: %d source calls", src.calls)
	}

	// Disable cache and try again
	s.CacheDuration = 0
	r, err = s.Status(context.Background())
	if err != nil {
		t.Error(err)
	}
	expected = &StatusResponse{
		TimeUpdated: r.TimeUpdated,
		TimeStarted: now,
		Version:     "foo",
		Stats: &Stats{
			NodeID:      "10.0.0.1:8089",
			Assets:      []Asset{{AssetType: "TNC", NumNodes: 2, NumEdges: 1}},
			Wallets:     []Wallet{},
			NumSessions: 3,
		},
	}
	compareJSON(t, r, expected)
}

func TestGatewayStatusError(t *testing.T) {
	src := &fakeSource{err: errors.New("gateway stopped")}
	s := GatewayStatus{Source: src, CacheDuration: time.Minute}

	r, err := s.Status(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if r.Error != "gateway stopped" {
		t.Errorf("got %q", r.Error)
	}
	// Errors are cached too.
	if _, err := s.Status(context.Background()); err != nil {
		t.Errorf("cached error response returned error: %s", err)
	}
	if src.calls != 1 {
		t.Errorf("got %d source calls", src.calls)
	}
}
