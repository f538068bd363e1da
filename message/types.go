package message

// Transaction message types relayed between wallets.
const (
	TypeRsmc        = "Rsmc"
	TypeRsmcSign    = "RsmcSign"
	TypeRsmcFail    = "RsmcFail"
	TypeFounder     = "Founder"
	TypeFounderSign = "FounderSign"
	TypeFounderFail = "FounderFail"
	TypeSettle      = "Settle"
	TypeSettleSign  = "SettleSign"
	TypeSettleFail  = "SettleFail"
	TypeHtlc        = "Htlc"
	TypeHtlcSign    = "HtlcSign"
	TypeHtlcFail    = "HtlcFail"

	// TypeTrigger asks a wallet or light client to start a channel
	// transfer for one leg of a routed payment.
	TypeTrigger = "TriggerTransaction"
)

// Control message types.
const (
	TypeAddChannel       = "AddChannel"
	TypeUpdateChannel    = "UpdateChannel"
	TypeDeleteChannel    = "DeleteChannel"
	TypeSyncChannelState = "SyncChannelState"
	TypeResumeChannel    = "ResumeChannel"
	TypeRegisterChannel  = "RegisterChannel"
	TypeRegisterKeep     = "RegisterKeepAlive"
	TypePaymentLink      = "PaymentLink"
	TypeGetRouterInfo    = "GetRouterInfo"
	TypeCombination      = "CombinationTransaction"
	TypeSearchWallet     = "SearchWallet"
	TypeSearchSpv        = "SearchSpv"
)

// Reply message types generated by the gateway.
const (
	TypeAckRouterInfo   = "AckRouterInfo"
	TypeAckSyncWallet   = "AckSyncWallet"
	TypeAckSearchWallet = "AckSearchWallet"
	TypeAckSearchSpv    = "AckSearchSpv"
	TypeNodeList        = "NodeList"
)

// Sync types carried by SyncChannelState messages.
const (
	SyncAddWholeGraph    = "add_whole_graph"
	SyncUpdateNodeData   = "update_node_data"
	SyncRemoveSingleEdge = "remove_single_edge"
)

var txTypes = map[string]bool{
	TypeRsmc:        true,
	TypeRsmcSign:    true,
	TypeRsmcFail:    true,
	TypeFounder:     true,
	TypeFounderSign: true,
	TypeFounderFail: true,
	TypeSettle:      true,
	TypeSettleSign:  true,
	TypeSettleFail:  true,
	TypeHtlc:        true,
	TypeHtlcSign:    true,
	TypeHtlcFail:    true,
}

// IsTransactionType reports whether t belongs to the routed transaction
// catalog.
func IsTransactionType(t string) bool {
	return txTypes[t]
}

// envelopeTypes are control messages that share the Transaction envelope.
var envelopeTypes = map[string]bool{
	TypeTrigger:         true,
	TypeResumeChannel:   true,
	TypeRegisterChannel: true,
	TypePaymentLink:     true,
	TypeGetRouterInfo:   true,
	TypeCombination:     true,
	TypeAddChannel:      true,
	TypeUpdateChannel:   true,
	TypeDeleteChannel:   true,
}

func isSyncType(t string) bool {
	switch t {
	case SyncAddWholeGraph, SyncUpdateNodeData, SyncRemoveSingleEdge:
		return true
	}
	return false
}
