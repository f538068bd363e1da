package main

import (
	"net/http"

	"github.com/trinity-gateway/hubnode/jsonrpc2"
)

// server is the wallet-control and status RPC endpoint.
type server struct {
	jsonrpc2.HTTPServer
	header http.Header
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		s.setHeaders(w)
	case http.MethodPost:
		s.setHeaders(w)
		s.HTTPServer.ServeHTTP(w, r)
	default:
		http.Error(w, "unsupported method", http.StatusMethodNotAllowed)
	}
}

func (s *server) setHeaders(w http.ResponseWriter) {
	for k, values := range s.header {
		for _, v := range values {
			w.Header().Set(k, v)
		}
	}
}
