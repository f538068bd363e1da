package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/OpenPeeDeeP/xdg"
	"github.com/dgraph-io/badger/v2"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/acme/autocert"
	"golang.org/x/sync/errgroup"

	"github.com/trinity-gateway/hubnode/gateway"
	"github.com/trinity-gateway/hubnode/status"
	"github.com/trinity-gateway/hubnode/topo"
	"github.com/trinity-gateway/hubnode/topo/store"
	badgerStore "github.com/trinity-gateway/hubnode/topo/store/badger"
	"github.com/trinity-gateway/hubnode/topo/store/memory"
	"github.com/trinity-gateway/hubnode/transport"
	"github.com/trinity-gateway/hubnode/transport/ws"
	"github.com/trinity-gateway/hubnode/transport/ws/gobwas"
	"github.com/trinity-gateway/hubnode/transport/ws/gorilla"
)

// findDataDir returns a valid data dir, will create it if it doesn't
// exist.
func findDataDir(overridePath string) (string, error) {
	path := overridePath
	if path == "" {
		path = xdg.New("trinity", "hubnode").DataHome()
	}
	err := os.MkdirAll(path, 0700)
	return path, err
}

func openStore(driver string, dataDir string) (store.Store, error) {
	switch driver {
	case "memory":
		return memory.New(), nil
	case "persist":
		fallthrough
	case "badger":
		dir, err := findDataDir(dataDir)
		if err != nil {
			return nil, err
		}
		s, err := badgerStore.Open(badger.DefaultOptions(dir))
		if err != nil {
			return nil, ErrExplain{err, fmt.Sprintf("Failed to open the topology store in %q. Is another gateway using the same --datadir?", dir)}
		}
		logger.Infof("Persistent store using badger backend: %s", dir)
		return s, nil
	}
	return nil, errors.New("storage driver not implemented")
}

func findUpgrader(driver string) (ws.Upgrader, error) {
	switch driver {
	case "gorilla":
		return &gorilla.Upgrader{
			Upgrader: websocket.Upgrader{
				// Light clients connect from any origin.
				CheckOrigin: func(*http.Request) bool { return true },
			},
		}, nil
	case "gobwas":
		return &gobwas.Upgrader{}, nil
	}
	return nil, fmt.Errorf("websocket driver not implemented: %s", driver)
}

// serveHTTP serves handler on l until ctx is done.
func serveHTTP(ctx context.Context, l net.Listener, handler http.Handler) error {
	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	err := srv.Serve(l)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func wsListener(options Options) (net.Listener, error) {
	opts := options.Gateway
	if opts.TLSHost == "" {
		return net.Listen("tcp", opts.WSBind)
	}
	if !strings.HasSuffix(opts.WSBind, ":443") {
		logger.Warningf("Ignoring --ws-bind value (%q) because it's not 443 and --tlshost is set.", opts.WSBind)
	}
	logger.Infof("Acquiring ACME certificate for light clients on: wss://%s", opts.TLSHost)
	return autocert.NewListener(opts.TLSHost), nil
}

func runGateway(options Options) error {
	opts := options.Gateway
	if _, _, err := net.SplitHostPort(opts.Public); err != nil {
		return ErrExplain{err, "The --public address must be the ip:port other gateways reach this gateway at."}
	}

	storeDriver, err := openStore(opts.Store, opts.DataDir)
	if err != nil {
		return err
	}
	defer storeDriver.Close()

	upgrader, err := findUpgrader(opts.WSDriver)
	if err != nil {
		return err
	}

	dispatcher := transport.NewDispatcher(
		opts.QueueSize,
		&transport.PeerDialer{Timeout: rpcTimeout},
		&transport.WalletCaller{Timeout: rpcTimeout},
	)
	gw := gateway.New(gateway.Config{
		Self:                 topo.NodeID(opts.Public),
		DefaultAsset:         opts.DefaultAsset,
		WalletDetectInterval: opts.WalletDetectInterval,
		Transport:            dispatcher,
		Results:              dispatcher.Results(),
		Store:                storeDriver,
	})

	handler := &server{header: http.Header{}}
	if opts.AllowOrigin != "" {
		handler.header.Set("Access-Control-Allow-Origin", opts.AllowOrigin)
	}
	if err := gw.Wallets().Register(&handler.Server); err != nil {
		return err
	}
	gatewayStatus := &status.GatewayStatus{
		Source:        gw,
		TimeStarted:   time.Now(),
		Version:       fmt.Sprintf("hubnode/%s", Version),
		CacheDuration: time.Second * 10,
	}
	if err := handler.Register("gateway_", gatewayStatus); err != nil {
		return err
	}

	peerListener, err := net.Listen("tcp", opts.TCPBind)
	if err != nil {
		return err
	}
	rpcListener, err := net.Listen("tcp", opts.RPCBind)
	if err != nil {
		peerListener.Close()
		return err
	}
	lightListener, err := wsListener(options)
	if err != nil {
		peerListener.Close()
		rpcListener.Close()
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		for range sigCh {
			logger.Info("Shutting down...")
			cancel()
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return dispatcher.Run(ctx) })
	g.Go(func() error { return gw.Serve(ctx) })
	g.Go(func() error {
		peers := &transport.Server{Handler: gw}
		return peers.Serve(ctx, peerListener)
	})
	g.Go(func() error {
		return serveHTTP(ctx, lightListener, &ws.Handler{Upgrader: upgrader, Listener: gw})
	})
	g.Go(func() error { return serveHTTP(ctx, rpcListener, handler) })

	logger.Infof("Starting gateway %s (version %s), peers on %s, wallets on http://%s, light clients on %s", opts.Public, Version, opts.TCPBind, opts.RPCBind, lightListener.Addr())
	err = g.Wait()
	if err != nil && opts.TLSHost != "" && strings.HasSuffix(err.Error(), "bind: permission denied") {
		err = ErrExplain{err, "Serving with autocert requires CAP_NET_BIND_SERVICE capability permission to bind on low-numbered ports."}
	}
	return err
}
