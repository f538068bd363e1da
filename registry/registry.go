// Package registry tracks the wallet processes and light-client sessions
// attached to this gateway.
package registry

import (
	"sort"
	"time"
)

// Wallet status values, matching the topology node status.
const (
	StatusOffline = 0
	StatusOnline  = 1
)

// Session is a live light-client connection.
type Session interface {
	// Send queues a text frame for the light client.
	Send(msg []byte) error
	// RemoteAddr identifies the connection in logs.
	RemoteAddr() string
}

// WalletClient is a wallet process that registered over the wallet-control
// link.
type WalletClient struct {
	// Ip is the ip:port of the wallet's JSON-RPC endpoint.
	Ip string
	// PublicKeys are the wallets opened by the process, most recent last.
	PublicKeys []string
	Name       string
	Fee        float64
	Deposit    float64
	Balance    map[string]float64
	Status     int
	LastSeen   time.Time
}

// Online is true when the wallet process is reachable.
func (w *WalletClient) Online() bool {
	return w.Status == StatusOnline
}

// PublicKey returns the most recently opened wallet.
func (w *WalletClient) PublicKey() string {
	if len(w.PublicKeys) == 0 {
		return ""
	}
	return w.PublicKeys[len(w.PublicKeys)-1]
}

// Registry is mutated only from the gateway's event loop and is not safe for
// concurrent use.
type Registry struct {
	wallets  map[string]*WalletClient
	owners   map[string]string
	sessions map[string]Session

	now func() time.Time
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		wallets:  map[string]*WalletClient{},
		owners:   map[string]string{},
		sessions: map[string]Session{},
		now:      time.Now,
	}
}

// WalletConnect registers the wallet pk opened by the process at ip and
// marks it online. It reports whether the process was offline or unknown.
func (r *Registry) WalletConnect(ip, pk string) (*WalletClient, bool) {
	w, ok := r.wallets[ip]
	if !ok {
		w = &WalletClient{Ip: ip, Balance: map[string]float64{}}
		r.wallets[ip] = w
	}
	if pk != "" {
		if prev, ok := r.owners[pk]; ok && prev != ip {
			r.forget(prev, pk)
		}
		r.owners[pk] = ip
		w.PublicKeys = appendUnique(w.PublicKeys, pk)
	}
	came := w.Status != StatusOnline
	w.Status = StatusOnline
	w.LastSeen = r.now()
	return w, came
}

func (r *Registry) forget(ip, pk string) {
	w, ok := r.wallets[ip]
	if !ok {
		return
	}
	for i, k := range w.PublicKeys {
		if k == pk {
			w.PublicKeys = append(w.PublicKeys[:i], w.PublicKeys[i+1:]...)
			return
		}
	}
}

// WalletDisconnect marks the process at ip offline. It reports whether the
// status changed.
func (r *Registry) WalletDisconnect(ip string) (*WalletClient, bool) {
	w, ok := r.wallets[ip]
	if !ok || w.Status == StatusOffline {
		return w, false
	}
	w.Status = StatusOffline
	return w, true
}

// Touch refreshes the liveness of the process at ip. It reports whether
// the process is known.
func (r *Registry) Touch(ip string) bool {
	w, ok := r.wallets[ip]
	if ok {
		w.LastSeen = r.now()
	}
	return ok
}

// ExpireWallets marks offline every online process not seen within ttl of
// now, and returns them sorted by Ip.
func (r *Registry) ExpireWallets(now time.Time, ttl time.Duration) []*WalletClient {
	var expired []*WalletClient
	for _, w := range r.wallets {
		if w.Online() && now.Sub(w.LastSeen) > ttl {
			w.Status = StatusOffline
			expired = append(expired, w)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Ip < expired[j].Ip })
	return expired
}

// Wallet returns the online process that opened pk.
func (r *Registry) Wallet(pk string) (*WalletClient, bool) {
	ip, ok := r.owners[pk]
	if !ok {
		return nil, false
	}
	w := r.wallets[ip]
	if w == nil || !w.Online() {
		return nil, false
	}
	return w, true
}

// WalletByIP returns the process registered at ip.
func (r *Registry) WalletByIP(ip string) (*WalletClient, bool) {
	w, ok := r.wallets[ip]
	return w, ok
}

// Wallets returns copies of every registered process, sorted by Ip.
func (r *Registry) Wallets() []WalletClient {
	out := make([]WalletClient, 0, len(r.wallets))
	for _, w := range r.wallets {
		c := *w
		c.PublicKeys = append([]string(nil), w.PublicKeys...)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ip < out[j].Ip })
	return out
}

// RegisterSession records s as the session of the light client pk,
// replacing any previous one.
func (r *Registry) RegisterSession(pk string, s Session) {
	r.sessions[pk] = s
}

// DropSession forgets the session of pk. It reports whether one existed.
func (r *Registry) DropSession(pk string) bool {
	_, ok := r.sessions[pk]
	delete(r.sessions, pk)
	return ok
}

// DropSessionHandle forgets every light client using s, and returns their
// public keys.
func (r *Registry) DropSessionHandle(s Session) []string {
	var dropped []string
	for pk, cur := range r.sessions {
		if cur == s {
			delete(r.sessions, pk)
			dropped = append(dropped, pk)
		}
	}
	sort.Strings(dropped)
	return dropped
}

// Session returns the session of the light client pk.
func (r *Registry) Session(pk string) (Session, bool) {
	s, ok := r.sessions[pk]
	return s, ok
}

// Sessions returns every distinct session, sorted by remote address.
func (r *Registry) Sessions() []Session {
	seen := map[Session]struct{}{}
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RemoteAddr() < out[j].RemoteAddr() })
	return out
}

// NumSessions returns the number of attached light clients.
func (r *Registry) NumSessions() int {
	return len(r.sessions)
}

func appendUnique(list []string, s string) []string {
	for i, k := range list {
		if k == s {
			// Move to the end as the most recently opened.
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	return append(list, s)
}
