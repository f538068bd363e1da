package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/trinity-gateway/hubnode/message"
)

// Link is an inbound peer connection.
type Link struct {
	RemoteAddr string

	// WalletIP is set by the handler once the link registers as the
	// keep-alive link of a wallet process.
	WalletIP string
}

// PeerHandler consumes frames received over peer links.
type PeerHandler interface {
	OnPeerMessage(link *Link, raw []byte) message.Ack
	OnWalletDisconnect(ip string)
}

// Server accepts peer links and answers every frame with an ack.
type Server struct {
	Handler PeerHandler
	// MaxFrame overrides DefaultMaxFrame.
	MaxFrame uint32

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Serve accepts connections until ctx is done or the listener fails.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
		s.closeAll()
	}()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go s.ServeConn(conn)
	}
}

func (s *Server) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		s.conns = map[net.Conn]struct{}{}
	}
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		conn.Close()
	}
}

// ServeConn reads frames from conn until it closes.
func (s *Server) ServeConn(conn net.Conn) {
	s.track(conn, true)
	defer s.track(conn, false)
	defer conn.Close()

	limit := s.MaxFrame
	if limit == 0 {
		limit = DefaultMaxFrame
	}
	link := &Link{RemoteAddr: conn.RemoteAddr().String()}
	for {
		raw, err := ReadFrame(conn, limit)
		if err != nil {
			if err != io.EOF {
				logger.Printf("Peer link %s closed: %s", link.RemoteAddr, err)
			}
			break
		}
		ack := s.Handler.OnPeerMessage(link, raw)
		if err := writeAck(conn, ack); err != nil {
			logger.Printf("Failed to ack %s: %s", link.RemoteAddr, err)
			break
		}
	}
	if link.WalletIP != "" {
		s.Handler.OnWalletDisconnect(link.WalletIP)
	}
}

// ErrRejected is wrapped by PeerRejectedError.
var ErrRejected = errors.New("peer rejected message")

// PeerRejectedError is returned when a peer acks a frame as invalid.
type PeerRejectedError struct {
	Addr   string
	Status string
}

func (err PeerRejectedError) Error() string {
	return fmt.Sprintf("%s: %s answered %q", ErrRejected, err.Addr, err.Status)
}

func (err PeerRejectedError) Unwrap() error {
	return ErrRejected
}

// PeerDialer sends frames to peer gateways, one connection per frame.
type PeerDialer struct {
	Dialer  net.Dialer
	Timeout time.Duration
}

// SendPeer writes payload to the gateway at addr and waits for its ack.
func (d *PeerDialer) SendPeer(ctx context.Context, addr string, payload []byte) error {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	conn, err := d.Dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	if err := WriteFrame(conn, payload); err != nil {
		return err
	}
	ack, err := readAck(conn)
	if err != nil {
		return err
	}
	if !ack.OK() {
		return PeerRejectedError{Addr: addr, Status: ack.Status}
	}
	return nil
}
