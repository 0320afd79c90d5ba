package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeLedger is a small in-memory trading contract. Submitted calls mutate
// state the moment they are awaited, so confirm-then-refresh ordering is
// observable end to end.
type fakeLedger struct {
	mu       sync.Mutex
	events   map[ledger.EventTopic][]ledger.Event
	listings map[uint64]ledger.ListingState
	auctions map[uint64]ledger.AuctionState
	approved map[string]bool
	pending  map[string]ledger.Call
	nextTx   int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		events:   map[ledger.EventTopic][]ledger.Event{},
		listings: map[uint64]ledger.ListingState{},
		auctions: map[uint64]ledger.AuctionState{},
		approved: map[string]bool{},
		pending:  map[string]ledger.Call{},
	}
}

func (f *fakeLedger) Events(_ context.Context, topic ledger.EventTopic) ([]ledger.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.Event(nil), f.events[topic]...), nil
}

func (f *fakeLedger) Listing(_ context.Context, tokenID uint64) (ledger.ListingState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listings[tokenID], nil
}

func (f *fakeLedger) Auction(_ context.Context, tokenID uint64) (ledger.AuctionState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auctions[tokenID], nil
}

func (f *fakeLedger) IsApprovedForAll(_ context.Context, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approved[owner], nil
}

func (f *fakeLedger) BalanceOf(context.Context, string) (int, error) { return 0, nil }

func (f *fakeLedger) OwnerOf(context.Context, uint64) (string, error) { return "", nil }

func (f *fakeLedger) PendingReturns(context.Context, string) (float64, error) { return 0, nil }

func (f *fakeLedger) Submit(_ context.Context, call ledger.Call) (ledger.PendingTx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextTx++
	hash := fmt.Sprintf("0x%04d", f.nextTx)
	f.pending[hash] = call
	return ledger.PendingTx{Hash: hash}, nil
}

// Await applies the pending call to contract state, emitting history events
// the way the real contract would.
func (f *fakeLedger) Await(_ context.Context, tx ledger.PendingTx) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	call, ok := f.pending[tx.Hash]
	if !ok {
		return ledger.ErrRecordNotFound
	}
	delete(f.pending, tx.Hash)

	switch call.Method {
	case ledger.MethodSetApprovalForAll:
		f.approved[call.From] = true
	case ledger.MethodListPokemon:
		f.listings[call.TokenID] = ledger.ListingState{
			Seller: call.From,
			Price:  call.Price,
			Active: true,
		}
		f.events[ledger.TopicListed] = append(f.events[ledger.TopicListed], ledger.Event{
			TokenID: call.TokenID,
			Seller:  call.From,
			TxHash:  tx.Hash,
		})
	case ledger.MethodCancelListing, ledger.MethodBuyPokemon:
		state := f.listings[call.TokenID]
		state.Active = false
		f.listings[call.TokenID] = state
	case ledger.MethodStartAuction:
		f.auctions[call.TokenID] = ledger.AuctionState{
			Seller:        call.From,
			StartingPrice: call.Price,
			EndTime:       time.Now().Add(call.Duration),
			Active:        true,
		}
		f.events[ledger.TopicAuctionStarted] = append(f.events[ledger.TopicAuctionStarted], ledger.Event{
			TokenID: call.TokenID,
			Seller:  call.From,
			TxHash:  tx.Hash,
		})
	case ledger.MethodPlaceBid:
		state := f.auctions[call.TokenID]
		state.HighestBid = call.Value
		state.HighestBidder = call.From
		f.auctions[call.TokenID] = state
	case ledger.MethodEndAuction:
		state := f.auctions[call.TokenID]
		state.Active = false
		f.auctions[call.TokenID] = state
	}
	return nil
}

type fakePokedex struct{}

func (fakePokedex) Pokemon(_ context.Context, tokenID uint64) (entity.Pokemon, error) {
	return entity.Pokemon{
		TokenID: tokenID,
		Name:    fmt.Sprintf("Pokemon %d", tokenID),
		Type1:   "Electric",
	}, nil
}

func newTestEngine(chain *fakeLedger) (*MarketView, *TradeDispatcher) {
	log := zap.NewNop()
	scanner := NewEventScanner(chain, log)
	reconciler := NewReconciler(chain, fakePokedex{}, nil, log, 4)
	view := NewMarketView(scanner, reconciler, nil, log)
	dispatcher := NewTradeDispatcher(chain, view, nil, nil, log)
	return view, dispatcher
}

func TestMarketFlow_ListThenRefreshShowsListing(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	err := dispatcher.List(ctx, "0xSeller", 42, 2.5)
	assert.NoError(t, err)

	entry, ok := view.Entry(42)
	assert.True(t, ok)
	assert.NotNil(t, entry.Listing)
	assert.Equal(t, 2.5, entry.Listing.Price)
	assert.Equal(t, "0xSeller", entry.Listing.Seller)
	assert.Equal(t, "Pokemon 42", entry.Pokemon.Name)
	assert.True(t, chain.approved["0xSeller"])
}

func TestMarketFlow_BuyRemovesListingFromView(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	assert.NoError(t, dispatcher.List(ctx, "0xSeller", 42, 2.5))
	assert.NoError(t, dispatcher.Buy(ctx, "0xBuyer", 42))

	_, ok := view.Entry(42)
	assert.False(t, ok)

	// The event history still carries the Listed emission; only the live
	// active flag decides projection membership.
	events, err := chain.Events(ctx, ledger.TopicListed)
	assert.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMarketFlow_CancelRemovesListingFromView(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	assert.NoError(t, dispatcher.List(ctx, "0xSeller", 42, 2.5))
	assert.NoError(t, dispatcher.Cancel(ctx, "0xSeller", 42))

	_, ok := view.Entry(42)
	assert.False(t, ok)
}

func TestMarketFlow_AuctionLifecycle(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	assert.NoError(t, dispatcher.StartAuction(ctx, "0xSeller", 7, 1.0, time.Hour))

	entry, ok := view.Entry(7)
	assert.True(t, ok)
	assert.True(t, entry.IsAuction())
	assert.Equal(t, 1.0, entry.Auction.StartingPrice)

	assert.NoError(t, dispatcher.PlaceBid(ctx, "0xBidder", 7, 1.5))
	entry, _ = view.Entry(7)
	assert.Equal(t, 1.5, entry.Auction.HighestBid)
	assert.Equal(t, "0xBidder", entry.Auction.HighestBidder)

	assert.NoError(t, dispatcher.EndAuction(ctx, "0xSeller", 7))
	_, ok = view.Entry(7)
	assert.False(t, ok)
}

func TestMarketFlow_RelistingAfterCancelIsAllowed(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	assert.NoError(t, dispatcher.List(ctx, "0xSeller", 42, 2.5))

	// While listed, a second List is blocked by the projected view.
	err := dispatcher.List(ctx, "0xSeller", 42, 3.0)
	assert.ErrorIs(t, err, ErrAlreadyOnMarket)

	assert.NoError(t, dispatcher.Cancel(ctx, "0xSeller", 42))
	assert.NoError(t, dispatcher.List(ctx, "0xSeller", 42, 3.0))

	entry, ok := view.Entry(42)
	assert.True(t, ok)
	assert.Equal(t, 3.0, entry.Listing.Price)
}

func TestMarketFlow_RefreshIsIdempotent(t *testing.T) {
	chain := newFakeLedger()
	view, dispatcher := newTestEngine(chain)
	ctx := context.Background()

	assert.NoError(t, dispatcher.List(ctx, "0xSeller", 1, 1.0))
	assert.NoError(t, dispatcher.StartAuction(ctx, "0xSeller", 2, 0.5, time.Hour))

	first, _ := view.Snapshot()
	assert.NoError(t, view.Refresh(ctx))
	second, _ := view.Snapshot()

	assert.Equal(t, first, second)
	assert.Len(t, second, 2)
}
