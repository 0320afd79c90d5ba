package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestEventScanner_Scan_ReturnsBothStreams(t *testing.T) {
	chain := new(MockTradingLedger)
	chain.On("Events", mock.Anything, ledger.TopicListed).
		Return([]ledger.Event{{TokenID: 1}, {TokenID: 2}}, nil)
	chain.On("Events", mock.Anything, ledger.TopicAuctionStarted).
		Return([]ledger.Event{{TokenID: 3}}, nil)

	scanner := NewEventScanner(chain, zap.NewNop())
	listed, auctions, err := scanner.Scan(context.Background())

	assert.NoError(t, err)
	assert.Len(t, listed, 2)
	assert.Len(t, auctions, 1)
	chain.AssertExpectations(t)
}

func TestEventScanner_Scan_EmptyLedgerIsValid(t *testing.T) {
	chain := new(MockTradingLedger)
	chain.On("Events", mock.Anything, ledger.TopicListed).Return([]ledger.Event{}, nil)
	chain.On("Events", mock.Anything, ledger.TopicAuctionStarted).Return([]ledger.Event{}, nil)

	scanner := NewEventScanner(chain, zap.NewNop())
	listed, auctions, err := scanner.Scan(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, listed)
	assert.Empty(t, auctions)
}

func TestEventScanner_Scan_QueryFailureSurfacesLedgerUnavailable(t *testing.T) {
	chain := new(MockTradingLedger)
	chain.On("Events", mock.Anything, ledger.TopicListed).
		Return(nil, errors.New("rpc: connection refused"))
	chain.On("Events", mock.Anything, ledger.TopicAuctionStarted).
		Return([]ledger.Event{}, nil).Maybe()

	scanner := NewEventScanner(chain, zap.NewNop())
	listed, auctions, err := scanner.Scan(context.Background())

	assert.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrLedgerUnavailable)
	assert.Nil(t, listed)
	assert.Nil(t, auctions)
}

func TestEventScanner_Scan_PreTaggedErrorIsNotDoubleWrapped(t *testing.T) {
	chain := new(MockTradingLedger)
	chain.On("Events", mock.Anything, ledger.TopicListed).
		Return(nil, ledger.ErrLedgerUnavailable)
	chain.On("Events", mock.Anything, ledger.TopicAuctionStarted).
		Return([]ledger.Event{}, nil).Maybe()

	scanner := NewEventScanner(chain, zap.NewNop())
	_, _, err := scanner.Scan(context.Background())

	assert.ErrorIs(t, err, ledger.ErrLedgerUnavailable)
}
