package router

import "github.com/trinity-gateway/hubnode/message"

// MethodTransaction is the wallet JSON-RPC method that receives relayed
// transactions and triggers.
const MethodTransaction = "TransactionMessage"

// Action is an outbound send decided by the Router.
type Action interface {
	action()
}

// SendPeer forwards a message to the gateway hosting To.
type SendPeer struct {
	To  message.Address
	Msg *message.Transaction
}

// SendLightClient delivers a message over the session of a light client
// attached here.
type SendLightClient struct {
	PublicKey string
	Msg       *message.Transaction
}

// SendWallet calls Method on the JSON-RPC endpoint of a local wallet
// process.
type SendWallet struct {
	Addr   string
	Method string
	Msg    *message.Transaction
}

func (SendPeer) action()        {}
func (SendLightClient) action() {}
func (SendWallet) action()      {}
