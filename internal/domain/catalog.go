package domain

type User struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type Product struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
}

type OrderType struct {
	OrderTypeID int64  `json:"order_type_id"`
	Name        string `json:"name"`
}
