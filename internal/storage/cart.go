package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/linemk/webstore/internal/domain/models"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartStorage описывает методы для работы с корзиной.
// Все операции изменения привязаны к userID владельца: чужую позицию
// нельзя ни изменить, ни удалить, даже зная её идентификатор.
type CartStorage interface {
	// ListItemsByUserID возвращает корзину пользователя с именем и текущей ценой товара.
	ListItemsByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error)
	// UpsertItem добавляет товар в корзину; если он уже есть — увеличивает количество.
	UpsertItem(ctx context.Context, userID, productID int64, quantity int) (int64, error)
	// UpdateQuantity выставляет количество для собственной позиции корзины.
	UpdateQuantity(ctx context.Context, id, userID int64, quantity int) error
	// DeleteItem удаляет собственную позицию корзины.
	DeleteItem(ctx context.Context, id, userID int64) error
	// DeleteItemsTx удаляет позиции по списку id внутри транзакции заказа.
	DeleteItemsTx(ctx context.Context, tx *sql.Tx, userID int64, ids []int64) error
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) CartStorage {
	return &cartRepository{db: db}
}

func (r *cartRepository) ListItemsByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	query := `
		SELECT ci.id, ci.user_id, ci.product_id, p.name, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON ci.product_id = p.id
		WHERE ci.user_id = $1
		ORDER BY ci.id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.ProductName, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *cartRepository) UpsertItem(ctx context.Context, userID, productID int64, quantity int) (int64, error) {
	var id int64
	query := `INSERT INTO cart_items (user_id, product_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (user_id, product_id)
	          DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	          RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, userID, productID, quantity).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return id, nil
}

func (r *cartRepository) UpdateQuantity(ctx context.Context, id, userID int64, quantity int) error {
	res, err := r.db.ExecContext(ctx, "UPDATE cart_items SET quantity = $1 WHERE id = $2 AND user_id = $3", quantity, id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

func (r *cartRepository) DeleteItem(ctx context.Context, id, userID int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cart_items WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// DeleteItemsTx чистит корзину после успешного заказа. Фильтр по user_id
// обязателен: чужой id позиции в запросе не должен удалять чужую корзину
func (r *cartRepository) DeleteItemsTx(ctx context.Context, tx *sql.Tx, userID int64, ids []int64) error {
	_, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1 AND id = ANY($2)", userID, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	return nil
}
