package port

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nbelova/order-matching/internal/domain"
)

// ErrOrderNotFound is returned by volume updates that hit no row. During a
// matching run it means the engine worked from a stale read, which the
// transaction rollback then discards.
var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	SaveOrder(ctx context.Context, o *domain.Order) error
	ListTrades(ctx context.Context) ([]domain.TradeView, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListOrderTypes(ctx context.Context) ([]domain.OrderType, error)
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx scopes one matching run. Every write goes through the same Tx and
// becomes visible only on Commit; Rollback discards all of them.
type Tx interface {
	ListRestingOrders(ctx context.Context, side domain.Side) ([]*domain.Order, error)
	UpdateOrderVolume(ctx context.Context, orderID int64, volume decimal.Decimal) error
	InsertTrade(ctx context.Context, t *domain.Trade) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
