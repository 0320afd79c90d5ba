package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/gokhancode/PokemonNFT/internal/usecase")

type marketScanner interface {
	Scan(ctx context.Context) (listed, auctions []ledger.Event, err error)
}

type marketReconciler interface {
	Reconcile(ctx context.Context, listed, auctions []ledger.Event) map[uint64]entity.MarketEntry
}

// MarketPublisher broadcasts engine events. Implementations are optional;
// a nil publisher disables broadcasting.
type MarketPublisher interface {
	PublishMarketRefreshed(ctx context.Context, entryCount int, refreshedAt time.Time) error
	PublishTradeExecuted(ctx context.Context, rec *entity.TradeRecord) error
}

// MarketView holds the latest projected market snapshot. The snapshot is the
// only shared mutable state of the engine; it is replaced wholesale on every
// successful refresh and handed out by copy, so readers never observe a
// partially updated projection.
type MarketView struct {
	scanner    marketScanner
	reconciler marketReconciler
	publisher  MarketPublisher
	logger     *zap.Logger

	// runMu guards the run bookkeeping below; pipeline runs are strictly
	// serialized through it. started and finished count runs, so a caller
	// can tell whether a run that began after its request has completed.
	runMu    sync.Mutex
	runDone  *sync.Cond
	running  bool
	started  uint64
	finished uint64
	runErr   error

	mu          sync.RWMutex
	entries     map[uint64]entity.MarketEntry
	refreshedAt time.Time
}

func NewMarketView(scanner marketScanner, reconciler marketReconciler, publisher MarketPublisher, log *zap.Logger) *MarketView {
	v := &MarketView{
		scanner:    scanner,
		reconciler: reconciler,
		publisher:  publisher,
		logger:     log,
		entries:    make(map[uint64]entity.MarketEntry),
	}
	v.runDone = sync.NewCond(&v.runMu)
	return v
}

// Snapshot returns a copy of the current projection and the time of the last
// successful refresh. Staleness accumulates from that moment on.
func (v *MarketView) Snapshot() (map[uint64]entity.MarketEntry, time.Time) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	snapshot := make(map[uint64]entity.MarketEntry, len(v.entries))
	for tokenID, entry := range v.entries {
		snapshot[tokenID] = entry
	}
	return snapshot, v.refreshedAt
}

// Entry returns the projected state of a single token.
func (v *MarketView) Entry(tokenID uint64) (entity.MarketEntry, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	entry, ok := v.entries[tokenID]
	return entry, ok
}

// Refresh re-runs the scan/reconcile pipeline and atomically replaces the
// snapshot. A caller is only satisfied by a run that started after its
// request: callers arriving while a run is pending coalesce into it, while
// callers arriving mid-run queue for one follow-up run, all of them sharing
// it. A refresh after a confirmed action therefore always observes ledger
// state read no earlier than the confirmation. A failed scan aborts the
// cycle and leaves the previous snapshot in place.
func (v *MarketView) Refresh(ctx context.Context) error {
	v.runMu.Lock()
	defer v.runMu.Unlock()

	// Runs 1..started have begun; the next one to start reads the ledger
	// after this request and is the earliest run that can satisfy it.
	target := v.started + 1
	for v.finished < target {
		if v.running {
			v.runDone.Wait()
			continue
		}
		v.started++
		run := v.started
		v.running = true
		v.runMu.Unlock()

		err := v.runPipeline(ctx)

		v.runMu.Lock()
		v.finished = run
		v.runErr = err
		v.running = false
		v.runDone.Broadcast()
	}
	return v.runErr
}

func (v *MarketView) runPipeline(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "MarketView.Refresh")
	defer span.End()

	listed, auctions, err := v.scanner.Scan(ctx)
	if err != nil {
		v.logger.Error("MarketView.Refresh: cycle failed, keeping previous snapshot", zap.Error(err))
		return fmt.Errorf("MarketView.Refresh: %w", err)
	}

	entries := v.reconciler.Reconcile(ctx, listed, auctions)
	now := time.Now()

	v.mu.Lock()
	v.entries = entries
	v.refreshedAt = now
	v.mu.Unlock()

	span.SetAttributes(attribute.Int("market.entries", len(entries)))
	v.logger.Info("MarketView.Refresh: snapshot replaced",
		zap.Int("entries", len(entries)),
		zap.Int("listed_events", len(listed)),
		zap.Int("auction_events", len(auctions)),
	)

	if v.publisher != nil {
		if pubErr := v.publisher.PublishMarketRefreshed(ctx, len(entries), now); pubErr != nil {
			v.logger.Warn("MarketView.Refresh: failed to publish refresh event", zap.Error(pubErr))
		}
	}
	return nil
}
