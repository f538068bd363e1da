package store

import (
	"reflect"
	"testing"

	"github.com/trinity-gateway/hubnode/topo"
)

func testSnapshot(asset string) topo.Snapshot {
	g := topo.NewGraph(asset)
	g.AddOrUpdateNode(topo.Node{ID: "10.0.0.1:8089", PublicKey: "pk1", Fee: 1, Status: topo.StatusOnline})
	g.AddOrUpdateNode(topo.Node{ID: "10.0.0.2:8089", PublicKey: "pk2", Fee: 2, SpvList: []string{"spv1"}})
	g.AddEdge("10.0.0.1:8089", "10.0.0.2:8089")
	return g.Snapshot()
}

// TestSuite runs a suite of tests against a store implementation.
func TestSuite(t *testing.T, newStore func() Store) {
	t.Helper()
	t.Run("Snapshot", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		if _, err := s.LoadSnapshot("TNC"); err != ErrNotFound {
			t.Errorf("expected not found error, got: %v", err)
		}
		if err := s.SaveSnapshot(topo.Snapshot{}); err != ErrMalformedSnapshot {
			t.Errorf("expected malformed error, got: %v", err)
		}

		want := testSnapshot("TNC")
		if err := s.SaveSnapshot(want); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		got, err := s.LoadSnapshot("TNC")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got: %+v; want %+v", got, want)
		}
		if got.Digest() != want.Digest() {
			t.Errorf("digest changed after load")
		}
	})

	t.Run("Replace", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		first := testSnapshot("TNC")
		second := testSnapshot("TNC")
		second.Edges = []topo.Edge{}
		if err := s.SaveSnapshot(first); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		if err := s.SaveSnapshot(second); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		got, err := s.LoadSnapshot("TNC")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if len(got.Edges) != 0 {
			t.Errorf("snapshot not replaced: %+v", got)
		}
	})

	t.Run("Assets", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		for _, asset := range []string{"TNC", "ETH", "BTC"} {
			if err := s.SaveSnapshot(testSnapshot(asset)); err != nil {
				t.Errorf("unexpected error: %s", err)
			}
		}
		if err := s.DeleteSnapshot("ETH"); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		if err := s.DeleteSnapshot("missing"); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		assets, err := s.Assets()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if want := []string{"BTC", "TNC"}; !reflect.DeepEqual(assets, want) {
			t.Errorf("got: %v; want %v", assets, want)
		}

		restored := topo.New()
		loaded, err := LoadAll(s, restored)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if !reflect.DeepEqual(loaded, []string{"BTC", "TNC"}) {
			t.Errorf("loaded: %v", loaded)
		}
		if got := restored.Neighbors("TNC", "10.0.0.1:8089"); len(got) != 1 {
			t.Errorf("restored graph missing edge: %v", got)
		}
	})
}
