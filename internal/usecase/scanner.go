package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EventScanner retrieves the full historical Listed and AuctionStarted event
// streams of the trading contract, from genesis to the current block. There
// is no incremental checkpoint: every scan re-reads the whole history, the
// live-state re-check downstream is what makes the result correct.
type EventScanner struct {
	ledger ledger.TradingLedger
	logger *zap.Logger
}

func NewEventScanner(l ledger.TradingLedger, log *zap.Logger) *EventScanner {
	return &EventScanner{
		ledger: l,
		logger: log,
	}
}

// Scan fetches both topics concurrently. An empty ledger is a valid result;
// any failed query surfaces ledger.ErrLedgerUnavailable because a partial
// scan would under-report active trades.
func (s *EventScanner) Scan(ctx context.Context) (listed, auctions []ledger.Event, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		evts, err := s.ledger.Events(gctx, ledger.TopicListed)
		if err != nil {
			return fmt.Errorf("EventScanner.Scan: %s events: %w", ledger.TopicListed, asUnavailable(err))
		}
		listed = evts
		return nil
	})
	g.Go(func() error {
		evts, err := s.ledger.Events(gctx, ledger.TopicAuctionStarted)
		if err != nil {
			return fmt.Errorf("EventScanner.Scan: %s events: %w", ledger.TopicAuctionStarted, asUnavailable(err))
		}
		auctions = evts
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Error("EventScanner.Scan: history query failed", zap.Error(err))
		return nil, nil, err
	}

	s.logger.Debug("EventScanner.Scan: history fetched",
		zap.Int("listed_events", len(listed)),
		zap.Int("auction_events", len(auctions)),
	)
	return listed, auctions, nil
}

func asUnavailable(err error) error {
	if errors.Is(err, ledger.ErrLedgerUnavailable) {
		return err
	}
	return errors.Join(ledger.ErrLedgerUnavailable, err)
}
