package in_memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/port"
)

var _ port.Repository = (*MemoryRepo)(nil)

// MemoryRepo is a transactional in-memory stand-in for the Postgres
// repository. Writes made through a Tx are staged and only applied on Commit,
// so rollback behaviour can be exercised without a live database.
//
// InsertTradeErr, when set, makes trade inserts fail after InsertTradeErrAfter
// successful staged inserts.
type MemoryRepo struct {
	mu        sync.Mutex
	users     map[int64]string
	products  map[int64]string
	orders    map[int64]*domain.Order
	trades    []domain.Trade
	nextID    int64
	nextMatch int64
	nextUser  int64
	nextProd  int64

	InsertTradeErr      error
	InsertTradeErrAfter int
	UpdateVolumeErr     error
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[int64]string),
		products: make(map[int64]string),
		orders:   make(map[int64]*domain.Order),
	}
}

func (r *MemoryRepo) SeedUser(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextUser++
	r.users[r.nextUser] = name
	return r.nextUser
}

func (r *MemoryRepo) SeedProduct(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextProd++
	r.products[r.nextProd] = name
	return r.nextProd
}

func (r *MemoryRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.OrderID == 0 {
		r.nextID++
		o.OrderID = r.nextID
	}
	if o.Timestamp.IsZero() {
		o.Timestamp = time.Now()
	}
	cp := *o
	r.orders[o.OrderID] = &cp
	return nil
}

// Order returns a copy of a stored order, for test assertions.
func (r *MemoryRepo) Order(orderID int64) (domain.Order, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

func (r *MemoryRepo) ListTrades(ctx context.Context) ([]domain.TradeView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]domain.TradeView, 0, len(r.trades))
	for _, t := range r.trades {
		res = append(res, domain.TradeView{
			MatchingID:  t.MatchingID,
			SellerName:  r.users[t.SellerUserID],
			BuyerName:   r.users[t.BuyerUserID],
			ProductName: r.products[t.ProductID],
			Price:       t.Price,
			Volume:      t.Volume,
			Timestamp:   t.Timestamp,
		})
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Timestamp.Equal(res[j].Timestamp) {
			return res[i].Timestamp.After(res[j].Timestamp)
		}
		return res[i].MatchingID > res[j].MatchingID
	})
	return res, nil
}

func (r *MemoryRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]domain.User, 0, len(r.users))
	for id, name := range r.users {
		res = append(res, domain.User{UserID: id, Name: name})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *MemoryRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]domain.Product, 0, len(r.products))
	for id, name := range r.products {
		res = append(res, domain.Product{ProductID: id, Name: name})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (r *MemoryRepo) ListOrderTypes(ctx context.Context) ([]domain.OrderType, error) {
	return []domain.OrderType{
		{OrderTypeID: 1, Name: "Buy"},
		{OrderTypeID: 2, Name: "Sell"},
	}, nil
}

func (r *MemoryRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memTx{
		repo:    r,
		volumes: make(map[int64]decimal.Decimal),
	}, nil
}

var _ port.Tx = (*memTx)(nil)

// memTx stages volume updates and trade inserts; they reach the repo only on
// Commit.
type memTx struct {
	repo    *MemoryRepo
	volumes map[int64]decimal.Decimal
	trades  []domain.Trade
	done    bool
}

func (t *memTx) ListRestingOrders(ctx context.Context, side domain.Side) ([]*domain.Order, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	var res []*domain.Order
	for _, o := range t.repo.orders {
		if o.Side == side && o.Volume.IsPositive() {
			cp := *o
			res = append(res, &cp)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Timestamp.Equal(res[j].Timestamp) {
			return res[i].Timestamp.Before(res[j].Timestamp)
		}
		return res[i].OrderID < res[j].OrderID
	})
	return res, nil
}

func (t *memTx) UpdateOrderVolume(ctx context.Context, orderID int64, volume decimal.Decimal) error {
	if t.repo.UpdateVolumeErr != nil {
		return t.repo.UpdateVolumeErr
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if _, ok := t.repo.orders[orderID]; !ok {
		return port.ErrOrderNotFound
	}
	t.volumes[orderID] = volume
	return nil
}

func (t *memTx) InsertTrade(ctx context.Context, tr *domain.Trade) error {
	if t.repo.InsertTradeErr != nil && len(t.trades) >= t.repo.InsertTradeErrAfter {
		return t.repo.InsertTradeErr
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.repo.nextMatch++
	tr.MatchingID = t.repo.nextMatch
	tr.Timestamp = time.Now()
	t.trades = append(t.trades, *tr)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.done {
		return nil
	}
	for id, vol := range t.volumes {
		if o, ok := t.repo.orders[id]; ok {
			o.Volume = vol
		}
	}
	t.repo.trades = append(t.repo.trades, t.trades...)
	t.done = true
	return nil
}

func (t *memTx) Rollback(ctx context.Context) error {
	t.done = true
	return nil
}
