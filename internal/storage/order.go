package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/webstore/internal/domain/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderStorage описывает методы для работы с заказами.
type OrderStorage interface {
	// CreateOrderTx вставляет заказ и его строки внутри транзакции, возвращает id заказа.
	CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error)
	// GetOrdersByUserID возвращает заказы пользователя вместе со строками, новые первыми.
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrderByNumber возвращает заказ пользователя по номеру.
	GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*models.Order, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) (int64, error) {
	var orderID int64
	query := `INSERT INTO orders (order_number, user_id, total_amount, payment_status, account_number, account_name, is_cash_payment, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW()) RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		order.OrderNumber, order.UserID, order.TotalAmount, order.PaymentStatus,
		order.Payment.AccountNumber, order.Payment.AccountName, order.Payment.IsCashPayment,
	).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `INSERT INTO order_items (order_id, product_id, name, quantity, price, category)
	              VALUES ($1, $2, $3, $4, $5, $6)`
	for _, item := range order.Items {
		if _, err := tx.ExecContext(ctx, itemQuery,
			orderID, item.ProductID, item.Name, item.Quantity, item.Price, item.Category,
		); err != nil {
			return 0, fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return orderID, nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	query := `
		SELECT o.id, o.order_number, o.user_id, o.total_amount, o.payment_status,
		       o.account_number, o.account_name, o.is_cash_payment, o.created_at,
		       oi.id, oi.product_id, oi.name, oi.quantity, oi.price, oi.category
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, oi.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// Группируем плоский результат JOIN по заказам, сохраняя порядок строк
	var orders []*models.Order
	byID := make(map[int64]*models.Order)
	for rows.Next() {
		var (
			order models.Order
			item  models.OrderItem
		)
		if err := rows.Scan(
			&order.ID, &order.OrderNumber, &order.UserID, &order.TotalAmount, &order.PaymentStatus,
			&order.Payment.AccountNumber, &order.Payment.AccountName, &order.Payment.IsCashPayment, &order.CreatedAt,
			&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Category,
		); err != nil {
			return nil, err
		}
		existing, ok := byID[order.ID]
		if !ok {
			existing = &order
			byID[order.ID] = existing
			orders = append(orders, existing)
		}
		item.OrderID = existing.ID
		existing.Items = append(existing.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string, userID int64) (*models.Order, error) {
	query := `
		SELECT o.id, o.order_number, o.user_id, o.total_amount, o.payment_status,
		       o.account_number, o.account_name, o.is_cash_payment, o.created_at,
		       oi.id, oi.product_id, oi.name, oi.quantity, oi.price, oi.category
		FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		WHERE o.order_number = $1 AND o.user_id = $2
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, orderNumber, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var order *models.Order
	for rows.Next() {
		var (
			o    models.Order
			item models.OrderItem
		)
		if err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.TotalAmount, &o.PaymentStatus,
			&o.Payment.AccountNumber, &o.Payment.AccountName, &o.Payment.IsCashPayment, &o.CreatedAt,
			&item.ID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Category,
		); err != nil {
			return nil, err
		}
		if order == nil {
			order = &o
		}
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
