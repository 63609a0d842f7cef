package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

type SubmitOrderRequest struct {
	ClientOrderID string          `json:"client_order_id,omitempty"` // for deduplication
	UserID        int64           `json:"user_id" binding:"required"`
	Side          Side            `json:"side" binding:"required"`
	ProductID     int64           `json:"product_id" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"required"`
	Volume        decimal.Decimal `json:"volume" binding:"required"`
}

type SubmitOrderResponse struct {
	Message string `json:"message"`
	Order   Order  `json:"order"`
}

type RunMatchingResponse struct {
	Message string  `json:"message"`
	Matches []Trade `json:"matches"`
}

type Order struct {
	OrderID   int64           `json:"order_id"`
	UserID    int64           `json:"user_id"`
	Side      Side            `json:"side"`
	ProductID int64           `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Volume    decimal.Decimal `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

type Trade struct {
	MatchingID   int64           `json:"matching_id"`
	SellerUserID int64           `json:"seller_user_id"`
	BuyerUserID  int64           `json:"buyer_user_id"`
	ProductID    int64           `json:"product_id"`
	Price        decimal.Decimal `json:"price"`
	Volume       decimal.Decimal `json:"volume"`
	Timestamp    time.Time       `json:"timestamp"`
}
