package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/alexcesaro/log"
	"github.com/alexcesaro/log/golog"
	flags "github.com/jessevdk/go-flags"

	"github.com/trinity-gateway/hubnode/jsonrpc2"
)

// Version of the binary, assigned during build.
var Version string = "dev"

var rpcTimeout = time.Second * 5

// Options contains the flag options
type Options struct {
	Verbose []bool `short:"v" long:"verbose" description:"Show verbose logging."`
	Version bool   `long:"version" description:"Print version and exit."`

	Gateway struct {
		Public       string `long:"public" description:"Public ip:port of the peer listener, as other gateways reach it." required:"true"`
		TCPBind      string `long:"tcp-bind" description:"Address and port to accept peer gateway links on." default:"0.0.0.0:8089"`
		WSBind       string `long:"ws-bind" description:"Address and port to accept light client websockets on." default:"0.0.0.0:8766"`
		RPCBind      string `long:"rpc-bind" description:"Address and port to serve the wallet JSON-RPC API on." default:"0.0.0.0:8077"`
		AllowOrigin  string `long:"allow-origin" description:"Access-Control-Allow-Origin header for the RPC API."`
		Store        string `long:"store" description:"Topology storage driver. (memory|badger)" default:"badger"`
		DataDir      string `long:"datadir" description:"Path for storing the topology snapshots when using the badger store. Defaults to the XDG data dir."`
		WSDriver     string `long:"ws-driver" description:"WebSocket implementation for light clients. (gorilla|gobwas)" default:"gorilla"`
		TLSHost      string `long:"tlshost" description:"Acquire an ACME certificate for this host and serve light clients over wss on :443."`
		DefaultAsset string `long:"default-asset" description:"Asset whose node list is pushed to new light clients." default:"TNC"`
		QueueSize    int    `long:"queue-size" description:"Outbound sends queued per link kind before dropping." default:"256"`

		WalletDetectInterval time.Duration `long:"wallet-detect-interval" description:"How often wallet liveness is checked; wallets silent for twice the interval go offline." default:"60s"`
	} `command:"gateway" description:"Run a hub node gateway."`
}

var logLevels = []log.Level{
	log.Warning,
	log.Info,
	log.Debug,
}

func subcommand(cmd string, options Options) error {
	switch cmd {
	case "gateway":
		return runGateway(options)
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func main() {
	options := Options{}
	parser := flags.NewParser(&options, flags.Default)
	parser.SubcommandsOptional = true
	p, err := parser.Parse()
	if err != nil {
		if p == nil {
			fmt.Println(err)
		}
		return
	}

	if options.Version {
		fmt.Println(Version)
		os.Exit(0)
	}

	// Figure out the log level
	numVerbose := len(options.Verbose)
	if numVerbose >= len(logLevels) {
		numVerbose = len(logLevels) - 1
	}

	logLevel := logLevels[numVerbose]
	logWriter := os.Stderr

	SetLogger(golog.New(logWriter, logLevel))
	if logLevel == log.Debug {
		// Enable logging from subpackages
		setSubLoggers(logWriter)
	}

	if parser.Active == nil {
		parser.WriteHelp(os.Stderr)
		exit(1, "\nMissing command.\n")
	}
	cmd := parser.Active.Name
	err = subcommand(cmd, options)
	if err == nil {
		return
	}

	if err == io.EOF {
		exit(3, "Connection closed.\n")
	}

	switch typedErr := err.(type) {
	case *net.OpError:
		if typedErr.Op == "listen" {
			err = ErrExplain{err, `Failed to listen on one of the --tcp-bind, --ws-bind or --rpc-bind addresses. Is another gateway already running?`}
			break
		}
		err = ErrExplain{err, `Network failure. Could be a connectivity issue, try again?`}
	case interface{ ErrorCode() int }:
		switch typedErr.ErrorCode() {
		case jsonrpc2.ErrCodeMethodNotFound:
			err = ErrExplain{err, `Missing a required RPC method. Make sure your wallet is up to date.`}
		default:
			err = ErrExplain{err, fmt.Sprintf(`Unexpected RPC error occurred: %T (code %d).`, typedErr, typedErr.ErrorCode())}
		}
	case ErrExplain:
		// All good.
	default:
		err = ErrExplain{err, fmt.Sprintf(`Error type %T is missing an explanation.`, err)}
	}

	exit(2, "%s failed: %s\n", cmd, err)
}

func exit(code int, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(code)
}

// ErrExplain annotates an error with an explanation.
type ErrExplain struct {
	Cause       error
	Explanation string
}

func (err ErrExplain) Error() string {
	return fmt.Sprintf("%s\n -> %s", err.Cause, err.Explanation)
}
