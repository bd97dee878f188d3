package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Сентинельные значения платежной информации для наличной оплаты:
// что бы клиент ни прислал, для CASH сохраняются именно они
const (
	CashAccountNumber = "CASH"
	CashAccountName   = "Paiement en espèces"
)

// PaymentStatusPending — статус любого только что созданного заказа,
// оплата наличными подтверждается при выдаче
const PaymentStatusPending = "pending"

// PaymentInfo представляет платежные реквизиты заказа
type PaymentInfo struct {
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	IsCashPayment bool   `json:"is_cash_payment"`
}

// Order представляет заказ, созданный при оформлении корзины
type Order struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"order_number"`
	UserID        int64           `json:"user_id"`
	Items         []OrderItem     `json:"items"`
	Payment       PaymentInfo     `json:"payment"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderItem представляет строку заказа. Имя, цена и категория фиксируются
// на момент покупки и не меняются при последующих правках каталога
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"order_id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
}
