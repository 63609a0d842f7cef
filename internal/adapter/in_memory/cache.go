package in_memory

import (
	"context"
	"sync"

	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/port"
)

var _ port.TradeCache = (*TradeCache)(nil)

type TradeCache struct {
	mu     sync.Mutex
	trades []domain.TradeView
	warm   bool
}

func NewTradeCache() *TradeCache {
	return &TradeCache{}
}

func (c *TradeCache) SetTrades(ctx context.Context, trades []domain.TradeView) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = append([]domain.TradeView(nil), trades...)
	c.warm = true
	return nil
}

func (c *TradeCache) GetTrades(ctx context.Context) ([]domain.TradeView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.warm {
		return nil, nil
	}
	return append([]domain.TradeView(nil), c.trades...), nil
}

func (c *TradeCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = nil
	c.warm = false
	return nil
}
