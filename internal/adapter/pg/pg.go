package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nbelova/order-matching/internal/domain"
	"github.com/nbelova/order-matching/internal/port"
)

var _ port.Repository = (*PgRepo)(nil)

type PgRepo struct {
	pool *pgxpool.Pool
}

// call Close when finished working with the database.
func NewPgRepo(ctx context.Context, dsn string) (*PgRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	return &PgRepo{pool: pool}, nil
}

func NewRepository(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

func (p *PgRepo) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// sideTypeName maps the domain side to the order_types row name.
func sideTypeName(side domain.Side) string {
	if side == domain.Buy {
		return "Buy"
	}
	return "Sell"
}

func (p *PgRepo) SaveOrder(ctx context.Context, o *domain.Order) error {
	if o == nil {
		return errors.New("nil order")
	}
	err := p.pool.QueryRow(ctx, `
INSERT INTO orders(user_id, order_type_id, product_id, price, volume, client_order_id)
VALUES($1, (SELECT order_type_id FROM order_types WHERE name = $2), $3, $4, $5, $6)
RETURNING order_id, timestamp
`, o.UserID, sideTypeName(o.Side), o.ProductID, o.Price, o.Volume, o.ClientOrderID).
		Scan(&o.OrderID, &o.Timestamp)
	if err != nil {
		return fmt.Errorf("pg: save order: %w", err)
	}
	return nil
}

// ListTrades returns all executed trades joined with user and product names,
// newest first.
func (p *PgRepo) ListTrades(ctx context.Context) ([]domain.TradeView, error) {
	rows, err := p.pool.Query(ctx, `
SELECT
    m.matching_id,
    s.name AS seller_name,
    b.name AS buyer_name,
    pr.name AS product_name,
    m.price,
    m.volume,
    m.timestamp
FROM matchings m
JOIN users s ON m.seller_user_id = s.user_id
JOIN users b ON m.buyer_user_id = b.user_id
JOIN products pr ON m.product_id = pr.product_id
ORDER BY m.timestamp DESC, m.matching_id DESC
`)
	if err != nil {
		return nil, fmt.Errorf("pg: list trades: %w", err)
	}
	defer rows.Close()

	var res []domain.TradeView
	for rows.Next() {
		var t domain.TradeView
		if err := rows.Scan(&t.MatchingID, &t.SellerName, &t.BuyerName, &t.ProductName, &t.Price, &t.Volume, &t.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, t)
	}
	return res, rows.Err()
}

func (p *PgRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := p.pool.Query(ctx, `SELECT user_id, name FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pg: list users: %w", err)
	}
	defer rows.Close()

	var res []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.UserID, &u.Name); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (p *PgRepo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := p.pool.Query(ctx, `SELECT product_id, name FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("pg: list products: %w", err)
	}
	defer rows.Close()

	var res []domain.Product
	for rows.Next() {
		var pr domain.Product
		if err := rows.Scan(&pr.ProductID, &pr.Name); err != nil {
			return nil, err
		}
		res = append(res, pr)
	}
	return res, rows.Err()
}

func (p *PgRepo) ListOrderTypes(ctx context.Context) ([]domain.OrderType, error) {
	rows, err := p.pool.Query(ctx, `SELECT order_type_id, name FROM order_types ORDER BY order_type_id`)
	if err != nil {
		return nil, fmt.Errorf("pg: list order types: %w", err)
	}
	defer rows.Close()

	var res []domain.OrderType
	for rows.Next() {
		var ot domain.OrderType
		if err := rows.Scan(&ot.OrderTypeID, &ot.Name); err != nil {
			return nil, err
		}
		res = append(res, ot)
	}
	return res, rows.Err()
}

func (p *PgRepo) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: begin tx: %w", err)
	}
	return &PgTx{tx: tx}, nil
}

var _ port.Tx = (*PgTx)(nil)

type PgTx struct {
	tx pgx.Tx
}

// ListRestingOrders returns all orders of one side with remaining volume.
// Rows are locked FOR UPDATE so a concurrent run in another process blocks
// instead of matching from the same pre-decrement volumes.
func (t *PgTx) ListRestingOrders(ctx context.Context, side domain.Side) ([]*domain.Order, error) {
	rows, err := t.tx.Query(ctx, `
SELECT o.order_id, o.user_id, o.product_id, o.price, o.volume, o.timestamp, COALESCE(o.client_order_id, '')
FROM orders o
WHERE o.order_type_id = (SELECT order_type_id FROM order_types WHERE name = $1)
  AND o.volume > 0
ORDER BY o.timestamp ASC, o.order_id ASC
FOR UPDATE OF o
`, sideTypeName(side))
	if err != nil {
		return nil, fmt.Errorf("pg: list resting orders: %w", err)
	}
	defer rows.Close()

	var res []*domain.Order
	for rows.Next() {
		o := &domain.Order{Side: side}
		if err := rows.Scan(&o.OrderID, &o.UserID, &o.ProductID, &o.Price, &o.Volume, &o.Timestamp, &o.ClientOrderID); err != nil {
			return nil, err
		}
		res = append(res, o)
	}
	return res, rows.Err()
}

func (t *PgTx) UpdateOrderVolume(ctx context.Context, orderID int64, volume decimal.Decimal) error {
	res, err := t.tx.Exec(ctx, `UPDATE orders SET volume = $1 WHERE order_id = $2`, volume, orderID)
	if err != nil {
		return fmt.Errorf("pg: update order volume: %w", err)
	}
	if res.RowsAffected() == 0 {
		return port.ErrOrderNotFound
	}
	return nil
}

func (t *PgTx) InsertTrade(ctx context.Context, tr *domain.Trade) error {
	if tr == nil {
		return errors.New("nil trade")
	}
	err := t.tx.QueryRow(ctx, `
INSERT INTO matchings(seller_user_id, buyer_user_id, product_id, price, volume)
VALUES($1, $2, $3, $4, $5)
RETURNING matching_id, timestamp
`, tr.SellerUserID, tr.BuyerUserID, tr.ProductID, tr.Price, tr.Volume).
		Scan(&tr.MatchingID, &tr.Timestamp)
	if err != nil {
		return fmt.Errorf("pg: insert trade: %w", err)
	}
	return nil
}

func (t *PgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *PgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
