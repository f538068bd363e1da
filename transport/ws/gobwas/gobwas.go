// Package gobwas is the light-client websocket driver using gobwas/ws.
package gobwas

import (
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	wsconn "github.com/trinity-gateway/hubnode/transport/ws"
)

var _ wsconn.Conn = &conn{}

type conn struct {
	muWrite sync.Mutex
	conn    net.Conn
}

// Write serializes frame writes, including the control replies sent while
// reading.
func (c *conn) Write(p []byte) (int, error) {
	c.muWrite.Lock()
	defer c.muWrite.Unlock()
	return c.conn.Write(p)
}

func (c *conn) ReadText() ([]byte, error) {
	rw := struct {
		io.Reader
		io.Writer
	}{c.conn, c}
	payload, _, err := wsutil.ReadClientData(rw)
	return payload, err
}

func (c *conn) WriteText(payload []byte) error {
	// A frame is written in one call, so c.Write keeps it whole.
	frame := ws.NewTextFrame(payload)
	raw, err := ws.CompileFrame(frame)
	if err != nil {
		return err
	}
	_, err = c.Write(raw)
	return err
}

func (c *conn) Close() error {
	return c.conn.Close()
}

var _ wsconn.Upgrader = &Upgrader{}

// Upgrader upgrades an HTTP request to a WebSocket connection.
type Upgrader struct {
	Upgrader ws.HTTPUpgrader
}

func (u *Upgrader) Upgrade(r *http.Request, w http.ResponseWriter, h http.Header) (wsconn.Conn, error) {
	c, _, _, err := u.Upgrader.Upgrade(r, w)
	if err != nil {
		return nil, err
	}
	return &conn{conn: c}, nil
}
