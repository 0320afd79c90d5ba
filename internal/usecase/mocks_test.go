package usecase

import (
	"context"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/stretchr/testify/mock"
)

type MockTradingLedger struct{ mock.Mock }

func (m *MockTradingLedger) Events(ctx context.Context, topic ledger.EventTopic) ([]ledger.Event, error) {
	args := m.Called(ctx, topic)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ledger.Event), args.Error(1)
}
func (m *MockTradingLedger) Listing(ctx context.Context, tokenID uint64) (ledger.ListingState, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(ledger.ListingState), args.Error(1)
}
func (m *MockTradingLedger) Auction(ctx context.Context, tokenID uint64) (ledger.AuctionState, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(ledger.AuctionState), args.Error(1)
}
func (m *MockTradingLedger) IsApprovedForAll(ctx context.Context, owner string) (bool, error) {
	args := m.Called(ctx, owner)
	return args.Bool(0), args.Error(1)
}
func (m *MockTradingLedger) BalanceOf(ctx context.Context, owner string) (int, error) {
	args := m.Called(ctx, owner)
	return args.Int(0), args.Error(1)
}
func (m *MockTradingLedger) OwnerOf(ctx context.Context, tokenID uint64) (string, error) {
	args := m.Called(ctx, tokenID)
	return args.String(0), args.Error(1)
}
func (m *MockTradingLedger) PendingReturns(ctx context.Context, addr string) (float64, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(float64), args.Error(1)
}
func (m *MockTradingLedger) Submit(ctx context.Context, call ledger.Call) (ledger.PendingTx, error) {
	args := m.Called(ctx, call)
	return args.Get(0).(ledger.PendingTx), args.Error(1)
}
func (m *MockTradingLedger) Await(ctx context.Context, tx ledger.PendingTx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

type MockPokedexStore struct{ mock.Mock }

func (m *MockPokedexStore) Pokemon(ctx context.Context, tokenID uint64) (entity.Pokemon, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(entity.Pokemon), args.Error(1)
}

type MockCacheRepository struct{ mock.Mock }

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}
func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type MockTradeArchive struct{ mock.Mock }

func (m *MockTradeArchive) Save(ctx context.Context, rec *entity.TradeRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
func (m *MockTradeArchive) ListByActor(ctx context.Context, actor string, limit int64) ([]*entity.TradeRecord, error) {
	args := m.Called(ctx, actor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.TradeRecord), args.Error(1)
}

type MockMarketPublisher struct{ mock.Mock }

func (m *MockMarketPublisher) PublishMarketRefreshed(ctx context.Context, entryCount int, refreshedAt time.Time) error {
	args := m.Called(ctx, entryCount, refreshedAt)
	return args.Error(0)
}
func (m *MockMarketPublisher) PublishTradeExecuted(ctx context.Context, rec *entity.TradeRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

type MockMarketScanner struct{ mock.Mock }

func (m *MockMarketScanner) Scan(ctx context.Context) ([]ledger.Event, []ledger.Event, error) {
	args := m.Called(ctx)
	var listed, auctions []ledger.Event
	if args.Get(0) != nil {
		listed = args.Get(0).([]ledger.Event)
	}
	if args.Get(1) != nil {
		auctions = args.Get(1).([]ledger.Event)
	}
	return listed, auctions, args.Error(2)
}

type MockMarketReconciler struct{ mock.Mock }

func (m *MockMarketReconciler) Reconcile(ctx context.Context, listed, auctions []ledger.Event) map[uint64]entity.MarketEntry {
	args := m.Called(ctx, listed, auctions)
	if args.Get(0) == nil {
		return map[uint64]entity.MarketEntry{}
	}
	return args.Get(0).(map[uint64]entity.MarketEntry)
}

type MockMarketRefresher struct{ mock.Mock }

func (m *MockMarketRefresher) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockMarketRefresher) Entry(tokenID uint64) (entity.MarketEntry, bool) {
	args := m.Called(tokenID)
	return args.Get(0).(entity.MarketEntry), args.Bool(1)
}
