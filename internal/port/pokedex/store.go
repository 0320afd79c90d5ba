package pokedex

import (
	"context"

	"github.com/gokhancode/PokemonNFT/internal/entity"
)

// Store reads the immutable Pokemon attribute records minted on the NFT
// contract.
type Store interface {
	Pokemon(ctx context.Context, tokenID uint64) (entity.Pokemon, error)
}
