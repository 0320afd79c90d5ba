package mongo

import (
	"context"
	"fmt"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/archive"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const tradesCollection = "trades"

type tradeArchive struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewTradeArchive(client *mongo.Client, dbName string, logger *zap.Logger) archive.TradeArchive {
	return &tradeArchive{
		coll:   client.Database(dbName).Collection(tradesCollection),
		logger: logger,
	}
}

func (a *tradeArchive) Save(ctx context.Context, rec *entity.TradeRecord) error {
	if _, err := a.coll.InsertOne(ctx, rec); err != nil {
		a.logger.Error("Failed to insert trade record",
			zap.String("trade_id", rec.ID), zap.Error(err))
		return fmt.Errorf("tradeArchive.Save: %w", err)
	}
	return nil
}

func (a *tradeArchive) ListByActor(ctx context.Context, actor string, limit int64) ([]*entity.TradeRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := a.coll.Find(ctx, bson.M{"actor": actor}, opts)
	if err != nil {
		return nil, fmt.Errorf("tradeArchive.ListByActor: find: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*entity.TradeRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("tradeArchive.ListByActor: decode: %w", err)
	}
	return records, nil
}
