package registry

import (
	"reflect"
	"testing"
	"time"
)

type fakeSession string

func (s fakeSession) Send(msg []byte) error { return nil }
func (s fakeSession) RemoteAddr() string    { return string(s) }

func TestWalletLifecycle(t *testing.T) {
	r := New()
	now := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	w, came := r.WalletConnect("10.0.0.5:20556", "pk1")
	if !came || !w.Online() {
		t.Errorf("new wallet not online: %+v", w)
	}
	if _, came := r.WalletConnect("10.0.0.5:20556", "pk2"); came {
		t.Error("already online wallet reported as coming online")
	}
	if w.PublicKey() != "pk2" {
		t.Errorf("most recent wallet: got %q", w.PublicKey())
	}
	if got, ok := r.Wallet("pk1"); !ok || got != w {
		t.Error("lookup by public key failed")
	}

	if _, went := r.WalletDisconnect("10.0.0.5:20556"); !went {
		t.Error("disconnect did not flip status")
	}
	if _, went := r.WalletDisconnect("10.0.0.5:20556"); went {
		t.Error("second disconnect flipped status")
	}
	if _, ok := r.Wallet("pk1"); ok {
		t.Error("offline wallet returned by lookup")
	}
	if _, went := r.WalletDisconnect("unknown:1"); went {
		t.Error("unknown wallet flipped status")
	}

	if _, came := r.WalletConnect("10.0.0.5:20556", "pk1"); !came {
		t.Error("reconnect not reported")
	}
	if got := r.Wallets()[0].PublicKeys; !reflect.DeepEqual(got, []string{"pk2", "pk1"}) {
		t.Errorf("opened wallets: %v", got)
	}
}

func TestWalletMovesProcess(t *testing.T) {
	r := New()
	r.WalletConnect("a:1", "pk")
	r.WalletConnect("b:1", "pk")
	if w, _ := r.WalletByIP("a:1"); len(w.PublicKeys) != 0 {
		t.Errorf("old process still claims the wallet: %v", w.PublicKeys)
	}
	if w, ok := r.Wallet("pk"); !ok || w.Ip != "b:1" {
		t.Errorf("got %+v", w)
	}
}

func TestExpireWallets(t *testing.T) {
	r := New()
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start
	r.now = func() time.Time { return now }

	r.WalletConnect("a:1", "pka")
	r.WalletConnect("b:1", "pkb")
	now = start.Add(90 * time.Second)
	if !r.Touch("b:1") {
		t.Error("touch of a known wallet failed")
	}
	if r.Touch("c:1") {
		t.Error("touch of an unknown wallet succeeded")
	}

	expired := r.ExpireWallets(start.Add(150*time.Second), 120*time.Second)
	if len(expired) != 1 || expired[0].Ip != "a:1" {
		t.Errorf("expired: %+v", expired)
	}
	if again := r.ExpireWallets(start.Add(150*time.Second), 120*time.Second); len(again) != 0 {
		t.Errorf("expired twice: %+v", again)
	}
}

func TestSessions(t *testing.T) {
	r := New()
	s1, s2 := fakeSession("1.1.1.1:1"), fakeSession("2.2.2.2:2")
	r.RegisterSession("spv1", s1)
	r.RegisterSession("spv2", s1)
	r.RegisterSession("spv3", s2)

	if got, ok := r.Session("spv1"); !ok || got != s1 {
		t.Error("session lookup failed")
	}
	if got := r.Sessions(); !reflect.DeepEqual(got, []Session{s1, s2}) {
		t.Errorf("sessions: %v", got)
	}
	if !r.DropSession("spv3") || r.DropSession("spv3") {
		t.Error("DropSession result mismatch")
	}
	if got := r.DropSessionHandle(s1); !reflect.DeepEqual(got, []string{"spv1", "spv2"}) {
		t.Errorf("dropped: %v", got)
	}
	if r.NumSessions() != 0 {
		t.Errorf("sessions left: %d", r.NumSessions())
	}
}
