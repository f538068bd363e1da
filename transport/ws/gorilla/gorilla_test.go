package gorilla

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/trinity-gateway/hubnode/registry"
	"github.com/trinity-gateway/hubnode/transport/ws"
)

type recorder struct {
	events chan string
}

func (r *recorder) OnLightClientConnect(s registry.Session) {
	r.events <- "connect"
	s.Send([]byte(`{"MessageType":"NodeList"}`))
}

func (r *recorder) OnLightClientMessage(s registry.Session, text []byte) {
	r.events <- "message " + string(text)
	s.Send(text)
}

func (r *recorder) OnLightClientDisconnect(s registry.Session) {
	r.events <- "disconnect"
}

func TestHandler(t *testing.T) {
	rec := &recorder{events: make(chan string, 16)}
	ts := httptest.NewServer(&ws.Handler{
		Upgrader: &Upgrader{},
		Listener: rec,
	})
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}

	if ev := <-rec.events; ev != "connect" {
		t.Errorf("got event %q", ev)
	}
	_, greeting, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if string(greeting) != `{"MessageType":"NodeList"}` {
		t.Errorf("got greeting %s", greeting)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"MessageType":"Rsmc"}`)); err != nil {
		t.Fatal(err)
	}
	if ev := <-rec.events; ev != `message {"MessageType":"Rsmc"}` {
		t.Errorf("got event %q", ev)
	}
	kind, echo, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.TextMessage || string(echo) != `{"MessageType":"Rsmc"}` {
		t.Errorf("got %d %s", kind, echo)
	}

	conn.Close()
	if ev := <-rec.events; ev != "disconnect" {
		t.Errorf("got event %q", ev)
	}
}
