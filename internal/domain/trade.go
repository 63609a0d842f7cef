package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade records one execution between a buy and a sell order on the same
// product. Immutable once written; MatchingID and Timestamp are assigned by
// the store at insert.
type Trade struct {
	MatchingID   int64
	BuyerUserID  int64
	SellerUserID int64
	ProductID    int64
	Price        decimal.Decimal
	Volume       decimal.Decimal
	Timestamp    time.Time
}

// TradeView is a trade joined with human-readable counterparty and product
// names, as served by the trade listing.
type TradeView struct {
	MatchingID  int64           `json:"matching_id"`
	SellerName  string          `json:"seller_name"`
	BuyerName   string          `json:"buyer_name"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Volume      decimal.Decimal `json:"volume"`
	Timestamp   time.Time       `json:"timestamp"`
}
