package jsonrpc2

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// Service is an RPC caller.
type Service interface {
	// Call sends a request and decodes the response result into result.
	Call(ctx context.Context, result interface{}, method string, params ...interface{}) error
}

type Client struct {
	id int32
}

func (c *Client) NextID() int {
	return int(atomic.AddInt32(&c.id, 1))
}

// Request builds a request with the next ID and positional params.
func (c *Client) Request(method string, params ...interface{}) (*Request, error) {
	req := &Request{
		Method:  method,
		Version: Version,
	}
	var err error
	if req.ID, err = json.Marshal(c.NextID()); err != nil {
		return nil, err
	}
	if params == nil {
		params = []interface{}{}
	}
	if req.Params, err = json.Marshal(params); err != nil {
		return nil, err
	}
	return req, nil
}
