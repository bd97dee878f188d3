package models

import "github.com/shopspring/decimal"

// CartItem представляет позицию корзины. Пара (user_id, product_id) уникальна,
// повторное добавление товара увеличивает количество
type CartItem struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"` // Имя товара; заполняется через JOIN с таблицей products
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}
