package archive

import (
	"context"

	"github.com/gokhancode/PokemonNFT/internal/entity"
)

// TradeArchive persists this client's confirmed trade actions for history
// queries. The archive is a convenience record, never a source of truth;
// write failures are tolerated by callers.
type TradeArchive interface {
	Save(ctx context.Context, rec *entity.TradeRecord) error
	ListByActor(ctx context.Context, actor string, limit int64) ([]*entity.TradeRecord, error)
}
