package main

import (
	"io"
	"io/ioutil"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"

	"github.com/trinity-gateway/hubnode/gateway"
	"github.com/trinity-gateway/hubnode/gossip"
	"github.com/trinity-gateway/hubnode/jsonrpc2"
	"github.com/trinity-gateway/hubnode/router"
	"github.com/trinity-gateway/hubnode/transport"
	"github.com/trinity-gateway/hubnode/transport/ws"
)

var logger *golog.Logger

// SetLogger overrides the main logger of this command.
func SetLogger(l *golog.Logger) {
	logger = l
}

// setSubLoggers sends the logs of every subpackage to w.
func setSubLoggers(w io.Writer) {
	gateway.SetLogger(w)
	gossip.SetLogger(w)
	router.SetLogger(w)
	transport.SetLogger(w)
	ws.SetLogger(w)
	jsonrpc2.SetLogger(w)
}

func init() {
	// Set a default null logger
	SetLogger(golog.New(ioutil.Discard, log.Debug))
}
