// Package gorilla is the light-client websocket driver using Gorilla's
// Websocket library.
package gorilla

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/trinity-gateway/hubnode/transport/ws"
)

var _ ws.Conn = &conn{}

type conn struct {
	muWrite sync.Mutex
	conn    *websocket.Conn
}

func (c *conn) ReadText() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	return payload, err
}

func (c *conn) WriteText(payload []byte) error {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *conn) Close() error {
	return c.conn.Close()
}

var _ ws.Upgrader = &Upgrader{}

// Upgrader upgrades an HTTP request to a WebSocket connection.
type Upgrader struct {
	Upgrader websocket.Upgrader
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (ws.Conn, error) {
	c, err := u.Upgrader.Upgrade(w, r, h)
	if err != nil {
		return nil, err
	}
	return &conn{conn: c}, nil
}
