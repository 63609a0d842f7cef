package core

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/port"
)

// Engine implements business logic: order submission, the matching run and
// the trade listing. Runs are serialized by a mutex so two runs can never
// decrement the same resting order from the same pre-read volume.
type Engine struct {
	repo   port.Repository
	cache  port.TradeCache
	logger *zap.Logger

	mu sync.Mutex
}

func NewEngine(repo port.Repository, cache port.TradeCache, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{repo: repo, cache: cache, logger: logger}
}

// SubmitOrder persists a new resting order. Matching is not triggered here;
// it runs on demand via RunMatching.
func (e *Engine) SubmitOrder(ctx context.Context, o *domain.Order) error {
	if err := e.repo.SaveOrder(ctx, o); err != nil {
		return err
	}
	e.logger.Info("order submitted",
		zap.Int64("order_id", o.OrderID),
		zap.String("side", string(o.Side)),
		zap.Int64("product_id", o.ProductID),
		zap.String("price", o.Price.String()),
		zap.String("volume", o.Volume.String()),
	)
	return nil
}

// RunMatching pairs resting buy and sell orders per product under price-time-
// volume priority and commits all volume decrements and trade inserts in one
// transaction. On any persistence failure the whole run rolls back and no
// trade is considered executed.
func (e *Engine) RunMatching(ctx context.Context) ([]domain.Trade, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var executed []domain.Trade
	err := withTx(ctx, e.repo, func(tx port.Tx) error {
		buys, err := tx.ListRestingOrders(ctx, domain.Buy)
		if err != nil {
			return err
		}
		sells, err := tx.ListRestingOrders(ctx, domain.Sell)
		if err != nil {
			return err
		}

		buysByProduct := groupByProduct(buys)
		sellsByProduct := groupByProduct(sells)

		for _, pid := range productIDs(buysByProduct) {
			sellSide, ok := sellsByProduct[pid]
			if !ok {
				continue
			}
			buySide := buysByProduct[pid]
			sortBuyOrders(buySide)
			sortSellOrders(sellSide)

			trades, err := e.matchProduct(ctx, tx, buySide, sellSide)
			if err != nil {
				return err
			}
			executed = append(executed, trades...)
		}
		return nil
	})
	if err != nil {
		e.logger.Error("matching run aborted", zap.Error(err))
		return nil, err
	}

	if e.cache != nil {
		// listing is stale after new trades; next read repopulates it
		_ = e.cache.Invalidate(ctx)
	}
	e.logger.Info("matching run complete", zap.Int("trades", len(executed)))
	return executed, nil
}

// matchProduct walks both priority-ordered sides of one product with two
// cursors. The loop stops as soon as the best remaining buy no longer crosses
// the best remaining sell; by sort order no later pair can cross either.
func (e *Engine) matchProduct(ctx context.Context, tx port.Tx, buys, sells []*domain.Order) ([]domain.Trade, error) {
	var trades []domain.Trade
	bi, si := 0, 0
	for bi < len(buys) && si < len(sells) {
		b, s := buys[bi], sells[si]
		if b.Price.LessThan(s.Price) {
			break
		}

		volume := decimal.Min(b.Volume, s.Volume)
		if volume.IsPositive() {
			// execution price is the buy order's limit price
			t := &domain.Trade{
				BuyerUserID:  b.UserID,
				SellerUserID: s.UserID,
				ProductID:    b.ProductID,
				Price:        b.Price,
				Volume:       volume,
			}
			if err := tx.InsertTrade(ctx, t); err != nil {
				return nil, err
			}

			b.Volume = b.Volume.Sub(volume)
			s.Volume = s.Volume.Sub(volume)
			if err := tx.UpdateOrderVolume(ctx, b.OrderID, b.Volume); err != nil {
				return nil, err
			}
			if err := tx.UpdateOrderVolume(ctx, s.OrderID, s.Volume); err != nil {
				return nil, err
			}
			trades = append(trades, *t)
		}

		// both sides may fill on the same trade
		if b.Filled() {
			bi++
		}
		if s.Filled() {
			si++
		}
	}
	return trades, nil
}

// ListTrades returns all executed trades joined with counterparty and product
// names, newest first. Served from cache when warm.
func (e *Engine) ListTrades(ctx context.Context) ([]domain.TradeView, error) {
	if e.cache != nil {
		if trades, err := e.cache.GetTrades(ctx); err == nil && trades != nil {
			return trades, nil
		}
	}
	trades, err := e.repo.ListTrades(ctx)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		_ = e.cache.SetTrades(ctx, trades)
	}
	return trades, nil
}

func (e *Engine) ListUsers(ctx context.Context) ([]domain.User, error) {
	return e.repo.ListUsers(ctx)
}

func (e *Engine) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return e.repo.ListProducts(ctx)
}

func (e *Engine) ListOrderTypes(ctx context.Context) ([]domain.OrderType, error) {
	return e.repo.ListOrderTypes(ctx)
}

func groupByProduct(orders []*domain.Order) map[int64][]*domain.Order {
	res := make(map[int64][]*domain.Order)
	for _, o := range orders {
		res[o.ProductID] = append(res[o.ProductID], o)
	}
	return res
}

// productIDs returns keys in ascending order so a run's output is
// deterministic across invocations.
func productIDs(m map[int64][]*domain.Order) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// sortBuyOrders orders bids best-first: price desc, then FIFO on Timestamp,
// then larger remaining volume first.
func sortBuyOrders(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if c := orders[i].Price.Cmp(orders[j].Price); c != 0 {
			return c > 0
		}
		if !orders[i].Timestamp.Equal(orders[j].Timestamp) {
			return orders[i].Timestamp.Before(orders[j].Timestamp)
		}
		return orders[i].Volume.GreaterThan(orders[j].Volume)
	})
}

// sortSellOrders orders asks best-first: price asc, then FIFO on Timestamp,
// then larger remaining volume first.
func sortSellOrders(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if c := orders[i].Price.Cmp(orders[j].Price); c != 0 {
			return c < 0
		}
		if !orders[i].Timestamp.Equal(orders[j].Timestamp) {
			return orders[i].Timestamp.Before(orders[j].Timestamp)
		}
		return orders[i].Volume.GreaterThan(orders[j].Volume)
	})
}
