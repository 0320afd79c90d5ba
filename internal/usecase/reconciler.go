package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/cache"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/gokhancode/PokemonNFT/internal/port/pokedex"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultFanOut = 8
	// Attribute records are immutable once minted, so a long TTL is safe.
	pokemonCacheTTL = 12 * time.Hour
)

func pokemonCacheKey(tokenID uint64) string {
	return fmt.Sprintf("pokemon:%d", tokenID)
}

// Reconciler turns the raw event history into the projected market state.
// For every token seen in an event it re-reads the live contract record and
// keeps the token only if that record is still active; the event payload
// itself is never trusted. Deduplication by token ID exists purely to avoid
// redundant ledger queries within one cycle.
type Reconciler struct {
	ledger  ledger.TradingLedger
	pokedex pokedex.Store
	cache   cache.CacheRepository
	logger  *zap.Logger
	fanOut  int
}

// NewReconciler builds a Reconciler. cacheRepo may be nil to disable the
// attribute cache. fanOut bounds concurrent per-token ledger reads; values
// below 1 fall back to a default.
func NewReconciler(
	l ledger.TradingLedger,
	p pokedex.Store,
	cacheRepo cache.CacheRepository,
	log *zap.Logger,
	fanOut int,
) *Reconciler {
	if fanOut < 1 {
		fanOut = defaultFanOut
	}
	return &Reconciler{
		ledger:  l,
		pokedex: p,
		cache:   cacheRepo,
		logger:  log,
		fanOut:  fanOut,
	}
}

// Reconcile processes the listing pass first, then the auction pass; a token
// resolved as an active listing is never re-examined for auction events.
// Per-token failures are logged and the token is dropped from this cycle's
// result so that one stale token cannot abort the whole projection.
func (r *Reconciler) Reconcile(ctx context.Context, listed, auctions []ledger.Event) map[uint64]entity.MarketEntry {
	entries := make(map[uint64]entity.MarketEntry)
	var mu sync.Mutex

	r.runPass(ctx, uniqueTokenIDs(listed, nil), func(ctx context.Context, tokenID uint64) {
		state, err := r.ledger.Listing(ctx, tokenID)
		if err != nil {
			r.logger.Warn("Reconciler.Reconcile: listing lookup failed, skipping token",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			return
		}
		if !state.Active {
			return
		}
		pokemon, err := r.pokemon(ctx, tokenID)
		if err != nil {
			r.logger.Warn("Reconciler.Reconcile: attribute fetch failed, skipping token",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			return
		}
		mu.Lock()
		entries[tokenID] = entity.MarketEntry{
			Pokemon: pokemon,
			Listing: &entity.Listing{
				TokenID: tokenID,
				Seller:  state.Seller,
				Price:   state.Price,
				Active:  true,
			},
		}
		mu.Unlock()
	})

	r.runPass(ctx, uniqueTokenIDs(auctions, entries), func(ctx context.Context, tokenID uint64) {
		state, err := r.ledger.Auction(ctx, tokenID)
		if err != nil {
			r.logger.Warn("Reconciler.Reconcile: auction lookup failed, skipping token",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			return
		}
		if !state.Active {
			return
		}
		pokemon, err := r.pokemon(ctx, tokenID)
		if err != nil {
			r.logger.Warn("Reconciler.Reconcile: attribute fetch failed, skipping token",
				zap.Uint64("token_id", tokenID), zap.Error(err))
			return
		}
		mu.Lock()
		entries[tokenID] = entity.MarketEntry{
			Pokemon: pokemon,
			Auction: &entity.Auction{
				TokenID:       tokenID,
				Seller:        state.Seller,
				StartingPrice: state.StartingPrice,
				HighestBid:    state.HighestBid,
				HighestBidder: state.HighestBidder,
				EndTime:       state.EndTime,
				Active:        true,
			},
		}
		mu.Unlock()
	})

	return entries
}

// runPass fans a per-token resolve function out over the token IDs with
// bounded concurrency. resolve never fails the group: partial failure is
// handled per token.
func (r *Reconciler) runPass(ctx context.Context, tokenIDs []uint64, resolve func(ctx context.Context, tokenID uint64)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.fanOut)
	for _, tokenID := range tokenIDs {
		g.Go(func() error {
			resolve(gctx, tokenID)
			return nil
		})
	}
	_ = g.Wait()
}

// pokemon reads attributes cache-aside: redis first, then the pokedex store,
// writing back on a miss. Cache trouble degrades to a direct fetch.
func (r *Reconciler) pokemon(ctx context.Context, tokenID uint64) (entity.Pokemon, error) {
	key := pokemonCacheKey(tokenID)
	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		switch {
		case err == nil:
			var pokemon entity.Pokemon
			if unmarshalErr := json.Unmarshal(cached, &pokemon); unmarshalErr == nil {
				return pokemon, nil
			}
			r.logger.Warn("Reconciler.pokemon: corrupted cache entry, evicting",
				zap.String("key", key))
			if delErr := r.cache.Delete(ctx, key); delErr != nil {
				r.logger.Warn("Reconciler.pokemon: failed to evict corrupted cache entry",
					zap.String("key", key), zap.Error(delErr))
			}
		case !errors.Is(err, cache.ErrNotFound):
			r.logger.Warn("Reconciler.pokemon: cache get failed",
				zap.String("key", key), zap.Error(err))
		}
	}

	pokemon, err := r.pokedex.Pokemon(ctx, tokenID)
	if err != nil {
		return entity.Pokemon{}, fmt.Errorf("Reconciler.pokemon: token %d: %w", tokenID, err)
	}

	if r.cache != nil {
		if data, marshalErr := json.Marshal(pokemon); marshalErr == nil {
			if setErr := r.cache.Set(ctx, key, data, pokemonCacheTTL); setErr != nil {
				r.logger.Warn("Reconciler.pokemon: cache set failed",
					zap.String("key", key), zap.Error(setErr))
			}
		}
	}
	return pokemon, nil
}

// uniqueTokenIDs returns the distinct token IDs of events in first-seen
// order, skipping IDs already resolved in this cycle.
func uniqueTokenIDs(events []ledger.Event, resolved map[uint64]entity.MarketEntry) []uint64 {
	seen := make(map[uint64]struct{}, len(events))
	ids := make([]uint64, 0, len(events))
	for _, evt := range events {
		if _, ok := seen[evt.TokenID]; ok {
			continue
		}
		seen[evt.TokenID] = struct{}{}
		if resolved != nil {
			if _, ok := resolved[evt.TokenID]; ok {
				continue
			}
		}
		ids = append(ids, evt.TokenID)
	}
	return ids
}
