package main

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/trinity-gateway/hubnode/gateway"
	"github.com/trinity-gateway/hubnode/jsonrpc2"
	"github.com/trinity-gateway/hubnode/message"
	"github.com/trinity-gateway/hubnode/status"
	"github.com/trinity-gateway/hubnode/transport"
)

func TestOpenStore(t *testing.T) {
	s, err := openStore("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	if _, err := openStore("etcd", ""); err == nil {
		t.Error("expected unknown driver error")
	}

	dir, err := ioutil.TempDir("", "hubnode-test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	dataDir := filepath.Join(dir, "data")
	s, err = openStore("badger", dataDir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := os.Stat(dataDir); err != nil {
		t.Errorf("data dir not created: %s", err)
	}
}

func TestFindUpgrader(t *testing.T) {
	for _, driver := range []string{"gorilla", "gobwas"} {
		if _, err := findUpgrader(driver); err != nil {
			t.Errorf("%s: %s", driver, err)
		}
	}
	if _, err := findUpgrader("nhooyr"); err == nil {
		t.Error("expected unknown driver error")
	}
}

func TestRPCServer(t *testing.T) {
	dispatcher := transport.NewDispatcher(4, &transport.PeerDialer{}, &transport.WalletCaller{})
	gw := gateway.New(gateway.Config{
		Self:      "127.0.0.1:8089",
		Transport: dispatcher,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)
	go gw.Serve(ctx)

	handler := &server{header: http.Header{}}
	handler.header.Set("Access-Control-Allow-Origin", "*")
	if err := gw.Wallets().Register(&handler.Server); err != nil {
		t.Fatal(err)
	}
	if err := handler.Register("gateway_", &status.GatewayStatus{Source: gw, TimeStarted: time.Now(), Version: "test"}); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET: got status %d", resp.StatusCode)
	}

	rpc := &jsonrpc2.HTTPService{Endpoint: ts.URL}
	var ack message.Reply
	wallet := map[string]interface{}{
		"MessageType": "SyncWallet",
		"MessageBody": map[string]interface{}{
			"Publickey": "pkA",
			"CliIp":     "127.0.0.1:20556",
			"Balance":   map[string]float64{"TNC": 1},
		},
	}
	if err := rpc.Call(ctx, &ack, "SyncWalletData", wallet); err != nil {
		t.Fatal(err)
	}
	if ack.MessageType != message.TypeAckSyncWallet {
		t.Errorf("unexpected ack: %+v", ack)
	}

	var st status.StatusResponse
	if err := rpc.Call(ctx, &st, "gateway_status"); err != nil {
		t.Fatal(err)
	}
	if st.Stats == nil || st.NodeID != "127.0.0.1:8089" || len(st.Wallets) != 1 || !st.Wallets[0].Online {
		t.Errorf("unexpected status: %+v", st)
	}
}
