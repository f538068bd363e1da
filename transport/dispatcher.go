// Package transport carries the gateway's outbound messages to peer
// gateways, wallet processes and light clients, and accepts inbound peer
// links.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/registry"
)

// Kind names an outbound link type. Each kind has its own queue.
type Kind int

const (
	KindPeer Kind = iota
	KindWallet
	KindLightClient
	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindPeer:
		return "peer"
	case KindWallet:
		return "wallet"
	case KindLightClient:
		return "lightclient"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ErrQueueFull is the Result error of a send refused by a full queue.
var ErrQueueFull = errors.New("send queue is full")

// Result reports the completion of one send.
type Result struct {
	Kind Kind
	To   string
	Type string
	Err  error
}

// PeerSender delivers a frame to a peer gateway.
type PeerSender interface {
	SendPeer(ctx context.Context, addr string, payload []byte) error
}

// WalletSender calls a method on a wallet process.
type WalletSender interface {
	CallWallet(ctx context.Context, addr string, method string, msg interface{}) error
}

type job struct {
	Result
	send func(ctx context.Context) error
}

// Dispatcher queues sends per link kind and runs one worker per queue.
// Enqueueing never blocks.
type Dispatcher struct {
	Peers   PeerSender
	Wallets WalletSender

	queues  [numKinds]chan job
	results chan Result
}

// NewDispatcher returns a Dispatcher with queues holding size sends each.
func NewDispatcher(size int, peers PeerSender, wallets WalletSender) *Dispatcher {
	d := &Dispatcher{
		Peers:   peers,
		Wallets: wallets,
		results: make(chan Result, size*int(numKinds)),
	}
	for i := range d.queues {
		d.queues[i] = make(chan job, size)
	}
	return d
}

// Results returns the completion channel. It must be drained.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Run runs the workers until ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range d.queues {
		q := d.queues[i]
		g.Go(func() error {
			return d.work(ctx, q)
		})
	}
	return g.Wait()
}

func (d *Dispatcher) work(ctx context.Context, q <-chan job) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-q:
			r := j.Result
			r.Err = j.send(ctx)
			d.report(ctx, r)
		}
	}
}

func (d *Dispatcher) report(ctx context.Context, r Result) {
	select {
	case d.results <- r:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) enqueue(j job) {
	select {
	case d.queues[j.Kind] <- j:
	default:
		r := j.Result
		r.Err = ErrQueueFull
		select {
		case d.results <- r:
		default:
			logger.Printf("Dropped %s send of %s to %s: queue and results are full", r.Kind, r.Type, r.To)
		}
	}
}

func (d *Dispatcher) encode(r Result, msg message.Message) (json.RawMessage, bool) {
	payload, err := json.Marshal(msg)
	if err != nil {
		r.Err = err
		select {
		case d.results <- r:
		default:
		}
		return nil, false
	}
	return payload, true
}

// SendToPeer queues msg for the gateway hosting to. Messages are encoded
// before they are queued, so the caller may reuse msg.
func (d *Dispatcher) SendToPeer(to message.Address, msg message.Message) {
	r := Result{Kind: KindPeer, To: to.Host(), Type: msg.Type()}
	payload, ok := d.encode(r, msg)
	if !ok {
		return
	}
	d.enqueue(job{
		Result: r,
		send: func(ctx context.Context) error {
			return d.Peers.SendPeer(ctx, r.To, payload)
		},
	})
}

// SendToWallet queues a call of method on the wallet process at addr.
func (d *Dispatcher) SendToWallet(addr string, method string, msg message.Message) {
	r := Result{Kind: KindWallet, To: addr, Type: msg.Type()}
	payload, ok := d.encode(r, msg)
	if !ok {
		return
	}
	d.enqueue(job{
		Result: r,
		send: func(ctx context.Context) error {
			return d.Wallets.CallWallet(ctx, addr, method, payload)
		},
	})
}

// SendToLightClient queues msg on a light-client session.
func (d *Dispatcher) SendToLightClient(s registry.Session, msg message.Message) {
	r := Result{Kind: KindLightClient, To: s.RemoteAddr(), Type: msg.Type()}
	payload, ok := d.encode(r, msg)
	if !ok {
		return
	}
	d.enqueue(job{
		Result: r,
		send: func(ctx context.Context) error {
			return s.Send(payload)
		},
	})
}
