// Package status serves a cached public report of the gateway's state.
package status

import (
	"context"
	"sync"
	"time"
)

// Asset summarizes one asset graph.
type Asset struct {
	AssetType       string `json:"asset_type"`
	NumNodes        int    `json:"num_nodes"`
	NumOnline       int    `json:"num_online"`
	NumEdges        int    `json:"num_edges"`
	NumLightClients int    `json:"num_light_clients"`
	// Digest is the Keccak-256 hash of the graph snapshot, equal across
	// gateways that converged.
	Digest string `json:"digest"`
}

// Wallet is a public view of a wallet process attached to the gateway.
type Wallet struct {
	ShortID   string    `json:"short_id"`
	Online    bool      `json:"online"`
	LastSeen  time.Time `json:"last_seen"`
	NumOpened int       `json:"num_opened"`
}

// Stats is the uncached state reported by a Source.
type Stats struct {
	NodeID      string   `json:"node_id"`
	Assets      []Asset  `json:"assets"`
	Wallets     []Wallet `json:"wallets"`
	NumSessions int      `json:"num_sessions"`
}

// Source produces the current Stats.
type Source interface {
	Stats(ctx context.Context) (*Stats, error)
}

// StatusResponse is the response type for Status RPC calls.
type StatusResponse struct {
	// TimeUpdated is the time when the response was generated. Because the
	// response is cached, it can be sometime in the past.
	TimeUpdated time.Time `json:"time_updated"`

	// TimeStarted is when the gateway was started.
	TimeStarted time.Time `json:"time_started"`

	// Version of the gateway that is currently running.
	Version string `json:"version"`

	*Stats

	// Error is set if the last cache update attempt failed and the
	// timestamp was extended.
	Error string `json:"error,omitempty"`
}

// GatewayStatus is a service for providing data to a status dashboard over
// RPC. Because status calls are unauthenticated, the service only provides
// cached public consumable data.
type GatewayStatus struct {
	Source Source

	// TimeStarted is the time when the server was started.
	TimeStarted time.Time

	// Version of the gateway to report.
	Version string

	// CacheDuration is the time for responses to be cached.
	CacheDuration time.Duration

	mu         sync.RWMutex
	cachedResp *StatusResponse
	now        func() time.Time
}

func (s *GatewayStatus) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// getStatus is an uncached version of Status
func (s *GatewayStatus) getStatus(ctx context.Context) (*StatusResponse, error) {
	r := &StatusResponse{
		TimeUpdated: s.clock(),
		TimeStarted: s.TimeStarted,
		Version:     s.Version,
	}
	stats, err := s.Source.Stats(ctx)
	if err != nil {
		r.Error = err.Error()
		return r, err
	}
	r.Stats = stats
	return r, nil
}

// Status returns the status of the gateway.
func (s *GatewayStatus) Status(ctx context.Context) (*StatusResponse, error) {
	s.mu.RLock()
	cachedResp := s.cachedResp
	s.mu.RUnlock()

	if cachedResp != nil && cachedResp.TimeUpdated.Add(s.CacheDuration).After(s.clock()) {
		// Cache is valid
		return cachedResp, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Did another request beat us to it?
	if s.cachedResp != cachedResp {
		return s.cachedResp, nil
	}

	// We save the status even if there is an error (to avoid an error-based DoS)
	r, err := s.getStatus(ctx)
	s.cachedResp = r
	return r, err
}
