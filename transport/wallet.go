package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/trinity-gateway/hubnode/jsonrpc2"
)

// WalletCaller calls the JSON-RPC endpoints of wallet processes over HTTP.
type WalletCaller struct {
	Timeout time.Duration
	// Scheme defaults to http.
	Scheme string

	client jsonrpc2.Client
}

// CallWallet calls method on the wallet listening at addr (ip:port) with
// msg as the single positional param. The wallet's result is discarded.
func (c *WalletCaller) CallWallet(ctx context.Context, addr string, method string, msg interface{}) error {
	scheme := c.Scheme
	if scheme == "" {
		scheme = "http"
	}
	service := &jsonrpc2.HTTPService{
		Endpoint:   scheme + "://" + addr,
		HTTPClient: http.Client{Timeout: c.Timeout},
	}
	req, err := c.client.Request(method, msg)
	if err != nil {
		return err
	}
	return service.Do(ctx, req, nil)
}
