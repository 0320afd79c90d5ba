package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestInventory_OwnedBy_MergesListingStatus(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	owner := "0xOwner"

	chain.On("BalanceOf", mock.Anything, owner).Return(2, nil)
	chain.On("OwnerOf", mock.Anything, uint64(0)).Return("0xSomeoneElse", nil)
	chain.On("OwnerOf", mock.Anything, uint64(1)).Return("0xowner", nil) // case-insensitive match
	chain.On("OwnerOf", mock.Anything, uint64(2)).Return(owner, nil)
	chain.On("Listing", mock.Anything, uint64(1)).
		Return(ledger.ListingState{Seller: owner, Price: 2.5, Active: true}, nil)
	chain.On("Listing", mock.Anything, uint64(2)).
		Return(ledger.ListingState{}, nil)
	dex.On("Pokemon", mock.Anything, uint64(1)).Return(testPokemon(1, "Bulbasaur"), nil)
	dex.On("Pokemon", mock.Anything, uint64(2)).Return(testPokemon(2, "Ivysaur"), nil)

	inv := NewInventory(chain, dex, zap.NewNop(), 10)
	owned, err := inv.OwnedBy(context.Background(), owner)

	assert.NoError(t, err)
	assert.Len(t, owned, 2)
	assert.True(t, owned[0].Listed)
	assert.Equal(t, 2.5, owned[0].Price)
	assert.False(t, owned[1].Listed)
}

func TestInventory_OwnedBy_EmptyForZeroBalance(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	chain.On("BalanceOf", mock.Anything, "0xOwner").Return(0, nil)

	inv := NewInventory(chain, dex, zap.NewNop(), 10)
	owned, err := inv.OwnedBy(context.Background(), "0xOwner")

	assert.NoError(t, err)
	assert.Empty(t, owned)
	chain.AssertNotCalled(t, "OwnerOf", mock.Anything, mock.Anything)
}

func TestInventory_OwnedBy_BalanceErrorFailsEnumeration(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	chain.On("BalanceOf", mock.Anything, "0xOwner").
		Return(0, errors.New("gateway unreachable"))

	inv := NewInventory(chain, dex, zap.NewNop(), 10)
	_, err := inv.OwnedBy(context.Background(), "0xOwner")

	assert.Error(t, err)
}

func TestInventory_OwnedBy_SkipsUnmintedIDs(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	owner := "0xOwner"

	chain.On("BalanceOf", mock.Anything, owner).Return(1, nil)
	chain.On("OwnerOf", mock.Anything, uint64(0)).Return("", errors.New("nonexistent token"))
	chain.On("OwnerOf", mock.Anything, uint64(1)).Return("", errors.New("nonexistent token"))
	chain.On("OwnerOf", mock.Anything, uint64(2)).Return(owner, nil)
	chain.On("Listing", mock.Anything, uint64(2)).Return(ledger.ListingState{}, nil)
	dex.On("Pokemon", mock.Anything, uint64(2)).Return(testPokemon(2, "Venusaur"), nil)

	inv := NewInventory(chain, dex, zap.NewNop(), 10)
	owned, err := inv.OwnedBy(context.Background(), owner)

	assert.NoError(t, err)
	assert.Len(t, owned, 1)
	assert.Equal(t, uint64(2), owned[0].TokenID)
}

func TestInventory_OwnedBy_StopsProbingAtBalance(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	owner := "0xOwner"

	chain.On("BalanceOf", mock.Anything, owner).Return(1, nil)
	chain.On("OwnerOf", mock.Anything, uint64(0)).Return(owner, nil)
	chain.On("Listing", mock.Anything, uint64(0)).Return(ledger.ListingState{}, nil)
	dex.On("Pokemon", mock.Anything, uint64(0)).Return(testPokemon(0, "Charmander"), nil)

	inv := NewInventory(chain, dex, zap.NewNop(), 100)
	owned, err := inv.OwnedBy(context.Background(), owner)

	assert.NoError(t, err)
	assert.Len(t, owned, 1)
	chain.AssertNumberOfCalls(t, "OwnerOf", 1)
}

func TestInventory_OwnedBy_SkipsTokenOnAttributeFailure(t *testing.T) {
	chain := new(MockTradingLedger)
	dex := new(MockPokedexStore)
	owner := "0xOwner"

	chain.On("BalanceOf", mock.Anything, owner).Return(2, nil)
	chain.On("OwnerOf", mock.Anything, mock.Anything).Return(owner, nil)
	chain.On("Listing", mock.Anything, uint64(1)).Return(ledger.ListingState{}, nil)
	dex.On("Pokemon", mock.Anything, uint64(0)).
		Return(entity.Pokemon{}, errors.New("metadata fetch failed"))
	dex.On("Pokemon", mock.Anything, uint64(1)).Return(testPokemon(1, "Squirtle"), nil)

	inv := NewInventory(chain, dex, zap.NewNop(), 2)
	owned, err := inv.OwnedBy(context.Background(), owner)

	assert.NoError(t, err)
	assert.Len(t, owned, 1)
	assert.Equal(t, "Squirtle", owned[0].Name)
}
