package port

import (
	"context"

	"github.com/nbelova/order-matching/internal/domain"
)

type TradeCache interface {
	SetTrades(ctx context.Context, trades []domain.TradeView) error
	GetTrades(ctx context.Context) ([]domain.TradeView, error)
	Invalidate(ctx context.Context) error
}
