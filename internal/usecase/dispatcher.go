package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/archive"
	"github.com/gokhancode/PokemonNFT/internal/port/ledger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// marketRefresher is the slice of MarketView the dispatcher needs: a local
// precondition read and a refresh trigger after confirmed actions.
type marketRefresher interface {
	Refresh(ctx context.Context) error
	Entry(tokenID uint64) (entity.MarketEntry, bool)
}

// TradeDispatcher submits mutating intents to the trading contract. Every
// operation follows the same protocol: local precondition check against the
// projected view, submit, await confirmation, then trigger a view refresh.
// On any failure the typed error is surfaced and the view stays untouched, so
// a refresh started after a confirmed action always observes its effect.
//
// The acting wallet address is passed per call; the engine holds no ambient
// wallet state.
type TradeDispatcher struct {
	ledger    ledger.TradingLedger
	view      marketRefresher
	archive   archive.TradeArchive
	publisher MarketPublisher
	logger    *zap.Logger
}

// NewTradeDispatcher builds a dispatcher. tradeArchive and publisher may be
// nil; both are best-effort side channels.
func NewTradeDispatcher(
	l ledger.TradingLedger,
	view marketRefresher,
	tradeArchive archive.TradeArchive,
	publisher MarketPublisher,
	log *zap.Logger,
) *TradeDispatcher {
	return &TradeDispatcher{
		ledger:    l,
		view:      view,
		archive:   tradeArchive,
		publisher: publisher,
		logger:    log,
	}
}

// List puts a token up for fixed-price sale. If the market contract lacks
// transfer approval for the actor, an approval transaction is submitted and
// confirmed first; the two confirmations are strictly sequential.
func (d *TradeDispatcher) List(ctx context.Context, actor string, tokenID uint64, price float64) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.List")
	defer span.End()
	span.SetAttributes(attribute.Int64("token_id", int64(tokenID)))

	if price <= 0 {
		return fmt.Errorf("TradeDispatcher.List: token %d: %w", tokenID, ErrInvalidPrice)
	}
	if _, onMarket := d.view.Entry(tokenID); onMarket {
		return fmt.Errorf("TradeDispatcher.List: token %d: %w", tokenID, ErrAlreadyOnMarket)
	}
	if err := d.ensureApproval(ctx, actor); err != nil {
		return fmt.Errorf("TradeDispatcher.List: %w", err)
	}

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:  ledger.MethodListPokemon,
		From:    actor,
		TokenID: tokenID,
		Price:   price,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.List: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "list", tokenID, price, tx, true)
	return nil
}

// Cancel withdraws an active listing. Only the seller may cancel; that rule
// is the contract's to enforce, the engine submits unconditionally.
func (d *TradeDispatcher) Cancel(ctx context.Context, actor string, tokenID uint64) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.Cancel")
	defer span.End()

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:  ledger.MethodCancelListing,
		From:    actor,
		TokenID: tokenID,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.Cancel: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "cancel", tokenID, 0, tx, true)
	return nil
}

// Buy purchases a listed token, attaching payment equal to the listing's
// current on-chain price. The live record is read immediately before
// submission; the projected view is a convenience, not the payment source.
func (d *TradeDispatcher) Buy(ctx context.Context, actor string, tokenID uint64) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.Buy")
	defer span.End()

	state, err := d.ledger.Listing(ctx, tokenID)
	if err != nil {
		return fmt.Errorf("TradeDispatcher.Buy: token %d: %w", tokenID, err)
	}
	if !state.Active {
		return fmt.Errorf("TradeDispatcher.Buy: token %d: %w", tokenID, ErrListingNotActive)
	}

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:  ledger.MethodBuyPokemon,
		From:    actor,
		TokenID: tokenID,
		Value:   state.Price,
	})
	if err != nil {
		var rejected *ledger.RejectedError
		if errors.As(err, &rejected) && rejected.InsufficientPayment() {
			err = errors.Join(ErrInsufficientPayment, err)
		}
		return fmt.Errorf("TradeDispatcher.Buy: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "buy", tokenID, state.Price, tx, true)
	return nil
}

// StartAuction opens an open-ended auction for a token, with the same
// approval flow as List.
func (d *TradeDispatcher) StartAuction(ctx context.Context, actor string, tokenID uint64, startingBid float64, duration time.Duration) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.StartAuction")
	defer span.End()

	if startingBid <= 0 {
		return fmt.Errorf("TradeDispatcher.StartAuction: token %d: %w", tokenID, ErrInvalidPrice)
	}
	if duration <= 0 {
		return fmt.Errorf("TradeDispatcher.StartAuction: token %d: %w", tokenID, ErrInvalidDuration)
	}
	if _, onMarket := d.view.Entry(tokenID); onMarket {
		return fmt.Errorf("TradeDispatcher.StartAuction: token %d: %w", tokenID, ErrAlreadyOnMarket)
	}
	if err := d.ensureApproval(ctx, actor); err != nil {
		return fmt.Errorf("TradeDispatcher.StartAuction: %w", err)
	}

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:   ledger.MethodStartAuction,
		From:     actor,
		TokenID:  tokenID,
		Price:    startingBid,
		Duration: duration,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.StartAuction: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "start_auction", tokenID, startingBid, tx, true)
	return nil
}

// PlaceBid bids on an active auction. The view-based checks are usability
// guards; the contract re-validates both of them.
func (d *TradeDispatcher) PlaceBid(ctx context.Context, actor string, tokenID uint64, amount float64) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.PlaceBid")
	defer span.End()

	if amount <= 0 {
		return fmt.Errorf("TradeDispatcher.PlaceBid: token %d: %w", tokenID, ErrInvalidBid)
	}
	if entry, ok := d.view.Entry(tokenID); ok && entry.Auction != nil {
		if strings.EqualFold(entry.Auction.Seller, actor) {
			return fmt.Errorf("TradeDispatcher.PlaceBid: token %d: %w", tokenID, ErrOwnAuctionBid)
		}
		if amount <= entry.Auction.HighestBid {
			return fmt.Errorf("TradeDispatcher.PlaceBid: token %d: highest bid is %v: %w",
				tokenID, entry.Auction.HighestBid, ErrInvalidBid)
		}
	}

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:  ledger.MethodPlaceBid,
		From:    actor,
		TokenID: tokenID,
		Value:   amount,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.PlaceBid: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "bid", tokenID, amount, tx, true)
	return nil
}

// EndAuction settles an auction: the token goes to the highest bidder if one
// exists, otherwise back to the seller. Whether an auction may be ended early
// is contract policy, so the call is submitted unconditionally and the
// contract accepts or rejects it.
func (d *TradeDispatcher) EndAuction(ctx context.Context, actor string, tokenID uint64) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.EndAuction")
	defer span.End()

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method:  ledger.MethodEndAuction,
		From:    actor,
		TokenID: tokenID,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.EndAuction: token %d: %w", tokenID, err)
	}

	d.afterConfirm(ctx, actor, "end_auction", tokenID, 0, tx, true)
	return nil
}

// Withdraw collects the actor's pending returns from being outbid. The
// market projection is unaffected, so no refresh is triggered.
func (d *TradeDispatcher) Withdraw(ctx context.Context, actor string) error {
	ctx, span := tracer.Start(ctx, "TradeDispatcher.Withdraw")
	defer span.End()

	tx, err := d.submitAndAwait(ctx, ledger.Call{
		Method: ledger.MethodWithdraw,
		From:   actor,
	})
	if err != nil {
		return fmt.Errorf("TradeDispatcher.Withdraw: %w", err)
	}

	d.afterConfirm(ctx, actor, "withdraw", 0, 0, tx, false)
	return nil
}

// PendingReturns reports the refundable balance an address has accumulated
// from lost bids.
func (d *TradeDispatcher) PendingReturns(ctx context.Context, addr string) (float64, error) {
	amount, err := d.ledger.PendingReturns(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("TradeDispatcher.PendingReturns: %w", err)
	}
	return amount, nil
}

// ensureApproval checks the market contract's transfer approval for the
// actor and, when missing, submits and confirms one before returning.
func (d *TradeDispatcher) ensureApproval(ctx context.Context, actor string) error {
	approved, err := d.ledger.IsApprovedForAll(ctx, actor)
	if err != nil {
		return fmt.Errorf("approval check: %w", err)
	}
	if approved {
		return nil
	}

	d.logger.Info("TradeDispatcher: approving market contract for transfers",
		zap.String("actor", actor))
	if _, err := d.submitAndAwait(ctx, ledger.Call{
		Method: ledger.MethodSetApprovalForAll,
		From:   actor,
	}); err != nil {
		return fmt.Errorf("approval: %w", err)
	}
	return nil
}

func (d *TradeDispatcher) submitAndAwait(ctx context.Context, call ledger.Call) (ledger.PendingTx, error) {
	tx, err := d.ledger.Submit(ctx, call)
	if err != nil {
		return ledger.PendingTx{}, fmt.Errorf("submit %s: %w", call.Method, err)
	}
	d.logger.Debug("TradeDispatcher: transaction submitted",
		zap.String("method", string(call.Method)),
		zap.String("tx_hash", tx.Hash),
	)
	if err := d.ledger.Await(ctx, tx); err != nil {
		return ledger.PendingTx{}, fmt.Errorf("confirm %s: %w", call.Method, err)
	}
	return tx, nil
}

// afterConfirm runs the post-confirmation side effects: view refresh, trade
// archive and event publish. The action already succeeded on-chain, so none
// of these may fail it; problems are logged and the stale-but-available
// snapshot remains readable.
func (d *TradeDispatcher) afterConfirm(ctx context.Context, actor, action string, tokenID uint64, amount float64, tx ledger.PendingTx, refresh bool) {
	if refresh {
		if err := d.view.Refresh(ctx); err != nil {
			d.logger.Warn("TradeDispatcher: view refresh after confirmed action failed",
				zap.String("action", action), zap.Error(err))
		}
	}

	rec := &entity.TradeRecord{
		ID:        uuid.NewString(),
		Actor:     actor,
		Action:    action,
		TokenID:   tokenID,
		Amount:    amount,
		TxHash:    tx.Hash,
		CreatedAt: time.Now(),
	}
	if d.archive != nil {
		if err := d.archive.Save(ctx, rec); err != nil {
			d.logger.Warn("TradeDispatcher: failed to archive trade",
				zap.String("action", action), zap.Error(err))
		}
	}
	if d.publisher != nil {
		if err := d.publisher.PublishTradeExecuted(ctx, rec); err != nil {
			d.logger.Warn("TradeDispatcher: failed to publish trade event",
				zap.String("action", action), zap.Error(err))
		}
	}
	d.logger.Info("TradeDispatcher: action confirmed",
		zap.String("action", action),
		zap.String("actor", actor),
		zap.Uint64("token_id", tokenID),
		zap.String("tx_hash", tx.Hash),
	)
}
