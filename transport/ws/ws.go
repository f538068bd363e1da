// Package ws serves light-client WebSocket sessions. The WebSocket
// implementation is chosen by the Upgrader driver.
package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/trinity-gateway/hubnode/registry"
)

// Conn is a server-side WebSocket connection exchanging text frames.
type Conn interface {
	// ReadText returns the next text or binary payload, skipping control
	// frames.
	ReadText() ([]byte, error)
	WriteText(payload []byte) error
	Close() error
}

// Upgrader takes an HTTP request, upgrades it to a websocket server and
// returns a Conn. This allows switching between different websocket
// implementations.
type Upgrader interface {
	Upgrade(*http.Request, http.ResponseWriter, http.Header) (Conn, error)
}

// Listener receives light-client session events.
type Listener interface {
	OnLightClientConnect(s registry.Session)
	OnLightClientMessage(s registry.Session, text []byte)
	OnLightClientDisconnect(s registry.Session)
}

var (
	ErrSessionClosed = errors.New("session closed")
	ErrSessionFull   = errors.New("session write queue is full")
)

// DefaultQueueSize is the number of frames a session buffers for writing.
const DefaultQueueSize = 64

var _ registry.Session = &Session{}

// Session is a light-client connection with a buffered write queue.
type Session struct {
	conn   Conn
	remote string

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewSession wraps conn. Run must be called to start writing.
func NewSession(conn Conn, remote string, queueSize int) *Session {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Session{
		conn:   conn,
		remote: remote,
		out:    make(chan []byte, queueSize),
		done:   make(chan struct{}),
	}
}

// Send queues a text frame without blocking.
func (s *Session) Send(msg []byte) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.out <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrSessionFull
	}
}

func (s *Session) RemoteAddr() string {
	return s.remote
}

// writeLoop writes queued frames until the session closes.
func (s *Session) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.out:
			if err := s.conn.WriteText(msg); err != nil {
				logger.Printf("Write to %s failed: %s", s.remote, err)
				s.Close()
				return
			}
		}
	}
}

// Close closes the connection. It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

// Handler upgrades light-client requests and feeds their frames to
// Listener.
type Handler struct {
	Upgrader  Upgrader
	Listener  Listener
	QueueSize int
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.Upgrader.Upgrade(r, w, nil)
	if err != nil {
		logger.Printf("Websocket upgrade error from %s: %s", r.RemoteAddr, err)
		return
	}
	s := NewSession(conn, r.RemoteAddr, h.QueueSize)
	go s.writeLoop()
	defer s.Close()

	h.Listener.OnLightClientConnect(s)
	for {
		text, err := conn.ReadText()
		if err != nil {
			logger.Printf("Session %s ended: %s", s.remote, err)
			break
		}
		h.Listener.OnLightClientMessage(s, text)
	}
	h.Listener.OnLightClientDisconnect(s)
}
