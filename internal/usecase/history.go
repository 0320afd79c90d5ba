package usecase

import (
	"context"
	"fmt"

	"github.com/gokhancode/PokemonNFT/internal/entity"
	"github.com/gokhancode/PokemonNFT/internal/port/archive"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

// History reads back the trades this client archived after confirmation.
type History struct {
	archive archive.TradeArchive
	logger  *zap.Logger
}

func NewHistory(a archive.TradeArchive, log *zap.Logger) *History {
	return &History{
		archive: a,
		logger:  log,
	}
}

func (h *History) ByActor(ctx context.Context, actor string, limit int64) ([]*entity.TradeRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	records, err := h.archive.ListByActor(ctx, actor, limit)
	if err != nil {
		h.logger.Error("History.ByActor: archive query failed",
			zap.String("actor", actor), zap.Error(err))
		return nil, fmt.Errorf("History.ByActor: %w", err)
	}
	return records, nil
}
