package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gokhancode/PokemonNFT/internal/config"
	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	MarketRefreshedSubject = "market.refreshed"
	TradeExecutedSubject   = "market.trade.executed"
)

// Publisher broadcasts projection refreshes and confirmed trade actions so
// other consumers (bots, indexers, notification services) can react without
// polling the engine.
type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

type refreshedEventPayload struct {
	EntryCount  int       `json:"entry_count"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

func NewMarketPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) PublishMarketRefreshed(ctx context.Context, entryCount int, refreshedAt time.Time) error {
	data, err := json.Marshal(refreshedEventPayload{
		EntryCount:  entryCount,
		RefreshedAt: refreshedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", MarketRefreshedSubject, err)
	}

	if err := p.nc.Publish(MarketRefreshedSubject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", MarketRefreshedSubject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", MarketRefreshedSubject, err)
	}
	p.logger.Debug("Published NATS message",
		zap.String("subject", MarketRefreshedSubject),
		zap.Int("entry_count", entryCount),
	)
	return nil
}

func (p *Publisher) PublishTradeExecuted(ctx context.Context, rec *entity.TradeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal trade record for %s: %w", TradeExecutedSubject, err)
	}

	if err := p.nc.Publish(TradeExecutedSubject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", TradeExecutedSubject),
			zap.String("trade_id", rec.ID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", TradeExecutedSubject, err)
	}
	p.logger.Info("Published NATS message",
		zap.String("subject", TradeExecutedSubject),
		zap.String("trade_id", rec.ID),
		zap.String("action", rec.Action),
	)
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
