package message

// NewTrigger asks the wallet or light client at receiver to start a channel
// transfer of amount from sender.
func NewTrigger(sender, receiver Address, asset string, amount float64) *Transaction {
	t := &Transaction{
		MessageType: TypeTrigger,
		Sender:      sender,
		Receiver:    receiver,
	}
	t.MessageBody.AssetType = asset
	t.MessageBody.SetValue(amount)
	return t
}

// NewResumeChannel asks a peer gateway to resend its topology to sender.
func NewResumeChannel(sender, receiver Address, asset string) *Transaction {
	t := &Transaction{
		MessageType: TypeResumeChannel,
		Sender:      sender,
		Receiver:    receiver,
	}
	t.MessageBody.AssetType = asset
	return t
}

// Reply is a message generated by the gateway in answer to a request.
type Reply struct {
	MessageType string      `json:"MessageType"`
	Receiver    Address     `json:"Receiver,omitempty"`
	MessageBody interface{} `json:"MessageBody,omitempty"`
	RouterInfo  *RouterInfo `json:"RouterInfo,omitempty"`
}

func (r *Reply) Type() string { return r.MessageType }

// NewAckRouterInfo answers a route request. A nil route is reported with the
// planner's error in the body.
func NewAckRouterInfo(ri *RouterInfo, err error) *Reply {
	r := &Reply{MessageType: TypeAckRouterInfo, RouterInfo: ri}
	if err != nil {
		r.MessageBody = map[string]string{"Error": err.Error()}
	}
	return r
}

// NewAckSyncWallet confirms a wallet registration; url is the wallet's
// address as seen through this gateway.
func NewAckSyncWallet(url Address) *Reply {
	return &Reply{
		MessageType: TypeAckSyncWallet,
		MessageBody: map[string]Address{"Url": url},
	}
}

// NewAckSearchWallet lists the online wallets a light client is attached to.
func NewAckSearchWallet(publicKeys []string) *Reply {
	if publicKeys == nil {
		publicKeys = []string{}
	}
	return &Reply{
		MessageType: TypeAckSearchWallet,
		MessageBody: publicKeys,
	}
}

// NewAckSearchSpv wraps the light-client index of an asset.
func NewAckSearchSpv(index interface{}) *Reply {
	return &Reply{
		MessageType: TypeAckSearchSpv,
		MessageBody: index,
	}
}

// NewNodeList pushes the known nodes of an asset to a light client.
func NewNodeList(asset string, nodes interface{}) *Reply {
	return &Reply{
		MessageType: TypeNodeList,
		MessageBody: map[string]interface{}{
			"AssetType": asset,
			"NodeList":  nodes,
		},
	}
}

// Ack statuses answered to every frame received over a peer link.
const (
	AckCorrect = "correct"
	AckInvalid = "invalid"
)

// Ack is the reply frame of the peer link.
type Ack struct {
	Status string `json:"Status"`
}

// OK is true for a correct ack.
func (a Ack) OK() bool {
	return a.Status == AckCorrect
}
