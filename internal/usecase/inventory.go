package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/gokhancode/PokemonNFT/internal/port/pokedex"
	"go.uber.org/zap"
)

const defaultProbeWindow = 100

// Inventory enumerates the tokens a wallet owns. The NFT contract exposes no
// owner index, so ownership is probed token ID by token ID until the wallet's
// balance is accounted for, capped by a probe window. Probe errors on an ID
// usually mean the token was never minted and are skipped.
type Inventory struct {
	ledger      ledger.TradingLedger
	pokedex     pokedex.Store
	logger      *zap.Logger
	probeWindow uint64
}

func NewInventory(l ledger.TradingLedger, p pokedex.Store, log *zap.Logger, probeWindow uint64) *Inventory {
	if probeWindow == 0 {
		probeWindow = defaultProbeWindow
	}
	return &Inventory{
		ledger:      l,
		pokedex:     p,
		logger:      log,
		probeWindow: probeWindow,
	}
}

// OwnedBy returns the owner's Pokemon with their current listing status
// merged in. Per-token attribute or listing failures drop that token from
// the result instead of failing the whole enumeration.
func (i *Inventory) OwnedBy(ctx context.Context, owner string) ([]entity.OwnedPokemon, error) {
	balance, err := i.ledger.BalanceOf(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("Inventory.OwnedBy: balance of %s: %w", owner, err)
	}
	if balance == 0 {
		return nil, nil
	}

	owned := make([]entity.OwnedPokemon, 0, balance)
	for tokenID := uint64(0); tokenID < i.probeWindow && len(owned) < balance; tokenID++ {
		holder, err := i.ledger.OwnerOf(ctx, tokenID)
		if err != nil {
			// Most likely an unminted ID; the window cap bounds the probing.
			i.logger.Debug("Inventory.OwnedBy: owner probe failed",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			continue
		}
		if !strings.EqualFold(holder, owner) {
			continue
		}

		pokemon, err := i.pokedex.Pokemon(ctx, tokenID)
		if err != nil {
			i.logger.Warn("Inventory.OwnedBy: attribute fetch failed, skipping token",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			continue
		}

		item := entity.OwnedPokemon{Pokemon: pokemon}
		if state, err := i.ledger.Listing(ctx, tokenID); err == nil && state.Active {
			item.Listed = true
			item.Price = state.Price
		} else if err != nil {
			i.logger.Warn("Inventory.OwnedBy: listing status lookup failed",
				zap.Uint64("token_id", tokenID), zap.Error(err))
		}
		owned = append(owned, item)
	}

	i.logger.Debug("Inventory.OwnedBy: enumeration complete",
		zap.String("owner", owner),
		zap.Int("balance", balance),
		zap.Int("found", len(owned)),
	)
	return owned, nil
}
