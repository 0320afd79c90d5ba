package entity

import "time"

// Listing is a fixed-price sale offer. The trading contract keeps the record
// after cancellation or purchase with Active set to false.
type Listing struct {
	TokenID uint64  `json:"token_id"`
	Seller  string  `json:"seller"`
	Price   float64 `json:"price"`
	Active  bool    `json:"active"`
}

// Auction is an open bid-driven sale. HighestBidder is empty until the first
// bid arrives.
type Auction struct {
	TokenID       uint64    `json:"token_id"`
	Seller        string    `json:"seller"`
	StartingPrice float64   `json:"starting_price"`
	HighestBid    float64   `json:"highest_bid"`
	HighestBidder string    `json:"highest_bidder,omitempty"`
	EndTime       time.Time `json:"end_time"`
	Active        bool      `json:"active"`
}

// MarketEntry is the projected per-token trade state: the Pokemon attributes
// merged with exactly one of an active listing or an active auction. Entries
// are only emitted after the live contract record confirmed Active at scan
// time; the historical event alone is never trusted.
type MarketEntry struct {
	Pokemon Pokemon  `json:"pokemon"`
	Listing *Listing `json:"listing,omitempty"`
	Auction *Auction `json:"auction,omitempty"`
}

// IsAuction reports whether the entry projects an auction rather than a
// fixed-price listing.
func (e MarketEntry) IsAuction() bool {
	return e.Auction != nil
}

// TradeRecord is this client's archive entry for a confirmed ledger action.
type TradeRecord struct {
	ID        string    `json:"id" bson:"_id"`
	Actor     string    `json:"actor" bson:"actor"`
	Action    string    `json:"action" bson:"action"`
	TokenID   uint64    `json:"token_id" bson:"token_id"`
	Amount    float64   `json:"amount" bson:"amount"`
	TxHash    string    `json:"tx_hash" bson:"tx_hash"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
