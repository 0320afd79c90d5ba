package ledger

import (
	"context"
	"time"
)

// EventTopic selects a historical event stream of the trading contract.
type EventTopic string

const (
	TopicListed         EventTopic = "Listed"
	TopicAuctionStarted EventTopic = "AuctionStarted"
)

// Event is one emission of a trading contract event. Only the token ID is
// trusted downstream; payload fields are informational because the live
// contract record is re-checked before any use.
type Event struct {
	TokenID     uint64
	Seller      string
	BlockNumber uint64
	TxHash      string
}

// ListingState is the current listings(tokenId) record. Price is denominated
// in ether; the adapter owns wei conversion.
type ListingState struct {
	Seller string
	Price  float64
	Active bool
}

// AuctionState is the current auctions(tokenId) record.
type AuctionState struct {
	Seller        string
	StartingPrice float64
	HighestBid    float64
	HighestBidder string
	EndTime       time.Time
	Active        bool
}

// CallMethod names a mutating contract call.
type CallMethod string

const (
	MethodListPokemon       CallMethod = "listPokemon"
	MethodCancelListing     CallMethod = "cancelListing"
	MethodBuyPokemon        CallMethod = "buyPokemon"
	MethodStartAuction      CallMethod = "startAuction"
	MethodPlaceBid          CallMethod = "placeBid"
	MethodEndAuction        CallMethod = "endAuction"
	MethodWithdraw          CallMethod = "withdraw"
	MethodSetApprovalForAll CallMethod = "setApprovalForAll"
)

// Call is a mutating intent to submit. Price carries the listing price or
// auction starting price, Value the attached payment, both in ether.
type Call struct {
	Method   CallMethod
	From     string
	TokenID  uint64
	Price    float64
	Value    float64
	Duration time.Duration
}

// PendingTx identifies a submitted, not yet confirmed transaction.
type PendingTx struct {
	Hash string
}

// TradingLedger is the authoritative chain backend for ownership and trade
// state. Implementations own transport, retries and timeouts; callers treat
// it as a trusted external collaborator.
type TradingLedger interface {
	// Events returns the full ordered history for a topic, from genesis to
	// the current block. An empty ledger yields an empty slice, not an error.
	Events(ctx context.Context, topic EventTopic) ([]Event, error)

	Listing(ctx context.Context, tokenID uint64) (ListingState, error)
	Auction(ctx context.Context, tokenID uint64) (AuctionState, error)

	IsApprovedForAll(ctx context.Context, owner string) (bool, error)
	BalanceOf(ctx context.Context, owner string) (int, error)
	OwnerOf(ctx context.Context, tokenID uint64) (string, error)
	PendingReturns(ctx context.Context, addr string) (float64, error)

	Submit(ctx context.Context, call Call) (PendingTx, error)
	// Await blocks until the transaction is confirmed. A declined transaction
	// returns *RejectedError, a missing confirmation ErrTxTimeout.
	Await(ctx context.Context, tx PendingTx) error
}
