package jsonrpc2

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"testing"
)

type FruitService struct{}

func (f *FruitService) Apple() string {
	return "Apple"
}

func (f *FruitService) Banana() error {
	return nil
}

func (f *FruitService) Basket(n int, fruit string) ([]string, error) {
	if n < 0 {
		return nil, errors.New("negative basket")
	}
	r := make([]string, n)
	for i := range r {
		r[i] = fruit
	}
	return r, nil
}

func (f *FruitService) cherry() string {
	return "Cherry"
}

func request(id int, method string, params string) *Request {
	req := &Request{
		ID:      json.RawMessage(strconv.Itoa(id)),
		Version: Version,
		Method:  method,
	}
	if params != "" {
		req.Params = json.RawMessage(params)
	}
	return req
}

func TestServer(t *testing.T) {
	service := &FruitService{}
	s := Server{}
	if err := s.Register("foo_", service); err != nil {
		t.Error(err)
	}
	ctx := context.Background()

	resp := s.Handle(ctx, request(1, "foo_apple", ""))
	if resp.Error != nil {
		t.Errorf("unexpected error: %s", resp.Error)
	}
	if string(resp.Result) != `"Apple"` {
		t.Errorf("unexpected result: %q", resp.Result)
	}
	if string(resp.ID) != "1" {
		t.Errorf("unexpected id: %q", resp.ID)
	}

	resp = s.Handle(ctx, request(2, "foo_banana", ""))
	if resp.Error != nil {
		t.Errorf("unexpected error: %s", resp.Error)
	}
	if resp.Result != nil {
		t.Errorf("unexpected result: %q", resp.Result)
	}

	resp = s.Handle(ctx, request(3, "foo_basket", `[2, "kiwi"]`))
	if resp.Error != nil {
		t.Errorf("unexpected error: %s", resp.Error)
	}
	if string(resp.Result) != `["kiwi","kiwi"]` {
		t.Errorf("unexpected result: %q", resp.Result)
	}
}

func TestServerErrors(t *testing.T) {
	s := Server{}
	if err := s.Register("", &FruitService{}); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	testcases := []struct {
		req  *Request
		code int
	}{
		{request(1, "cherry", ""), ErrCodeMethodNotFound},
		{request(2, "Apple", ""), ErrCodeMethodNotFound},
		{request(3, "basket", `["two", "kiwi"]`), ErrCodeInvalidParams},
		{request(4, "basket", ""), ErrCodeInvalidParams},
		{request(5, "basket", `[-1, "kiwi"]`), ErrCodeInternal},
	}
	for i, tc := range testcases {
		resp := s.Handle(ctx, tc.req)
		if resp.Error == nil {
			t.Errorf("[%d] expected error, got result %s", i, resp.Result)
			continue
		}
		if resp.Error.Code != tc.code {
			t.Errorf("[%d] got code %d; want %d", i, resp.Error.Code, tc.code)
		}
	}
}

func TestRegisterMethod(t *testing.T) {
	s := Server{}
	if err := s.RegisterMethod("GetFruit", &FruitService{}, "Apple"); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterMethod("Nope", &FruitService{}, "Durian"); err == nil {
		t.Error("expected error registering a missing method")
	}

	resp := s.Handle(context.Background(), request(1, "GetFruit", ""))
	if resp.Error != nil || string(resp.Result) != `"Apple"` {
		t.Errorf("unexpected response: %+v", resp)
	}
	resp = s.Handle(context.Background(), request(2, "apple", ""))
	if resp.Error == nil {
		t.Error("exact registration exposed the lowercased name")
	}
}
