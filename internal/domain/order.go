package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is a resting limit order. Volume is the remaining unfilled quantity;
// it only ever decreases and never drops below zero. Price and Side are fixed
// at creation.
type Order struct {
	OrderID       int64
	UserID        int64
	Side          Side
	ProductID     int64
	Price         decimal.Decimal
	Volume        decimal.Decimal
	Timestamp     time.Time
	ClientOrderID string
}

func (o *Order) Filled() bool {
	return o.Volume.IsZero()
}
