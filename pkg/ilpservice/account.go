// Package ilpservice defines the pipeline contract shared by every
// middleware in the connector: the Account model, the Incoming/Outgoing
// request shapes, and the Service interfaces they flow through.
package ilpservice

import "time"

// AccountID identifies an account stably across the account store, the
// routing table, and every pipeline request.
type AccountID string

// RoutingRelation classifies the business relationship with an account,
// which governs settlement direction and CCP route propagation.
type RoutingRelation string

const (
	RelationParent           RoutingRelation = "Parent"
	RelationPeer             RoutingRelation = "Peer"
	RelationChild            RoutingRelation = "Child"
	RelationNonRoutingAccount RoutingRelation = "NonRoutingAccount"
)

// Account is the essential attribute set of a connector's counterparty, as
// defined by the data model: asset, transport credentials, limits and
// routing relation. Either or both of the HTTP/BTP transport blocks may be
// empty for an account this node only ever originates requests to.
type Account struct {
	ID       AccountID
	Username string

	AssetCode  string
	AssetScale uint8

	HTTP *HTTPCredentials
	BTP  *BTPCredentials

	MaxPacketAmount *uint64
	MinBalance      *int64
	SettleThreshold *int64
	SettleTo        *int64

	RoutingRelation RoutingRelation

	RoundTripTime *time.Duration

	PacketsPerMinuteLimit *uint32
	AmountPerMinuteLimit  *uint64

	SettlementEngineURL string
}

// HTTPCredentials carries ILP-over-HTTP peering details for an account.
type HTTPCredentials struct {
	URL           string
	IncomingToken string
	OutgoingToken string
}

// BTPCredentials carries BTP peering details for an account.
type BTPCredentials struct {
	URL           string
	IncomingToken string
	OutgoingToken string
}

// RoundTripTimeOrDefault returns the account's estimated RTT, or the
// expiry shortener's default of 500ms when unset.
func (a Account) RoundTripTimeOrDefault() time.Duration {
	if a.RoundTripTime != nil {
		return *a.RoundTripTime
	}
	return DefaultRoundTripTime
}

// DefaultRoundTripTime is assumed for an account with no measured RTT.
const DefaultRoundTripTime = 500 * time.Millisecond

// MaxPacketAmountOrMax returns the account's packet cap, or ^uint64(0)
// (unbounded) when unset.
func (a Account) MaxPacketAmountOrMax() uint64 {
	if a.MaxPacketAmount != nil {
		return *a.MaxPacketAmount
	}
	return ^uint64(0)
}

// MinBalanceOrMin returns the account's balance floor, or the minimum
// representable int64 (no floor) when unset.
func (a Account) MinBalanceOrMin() int64 {
	if a.MinBalance != nil {
		return *a.MinBalance
	}
	return minInt64
}

const minInt64 = -1 << 63
