package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/webstore/internal/domain/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductStorage описывает методы для работы с таблицей товаров.
type ProductStorage interface {
	// ListActiveProducts возвращает активные товары каталога с именем категории.
	ListActiveProducts(ctx context.Context) ([]*models.Product, error)
	// GetProductByID возвращает товар по идентификатору.
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// LockProductByIDTx читает и блокирует строку товара внутри транзакции.
	LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error)
	// UpdateStockTx записывает новые значения stock и sold внутри транзакции.
	UpdateStockTx(ctx context.Context, tx *sql.Tx, id int64, newStock, newSold int) error
}

// productRepository — конкретная реализация ProductStorage.
type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

func (r *productRepository) ListActiveProducts(ctx context.Context) ([]*models.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sold, p.is_active, p.category_id, c.name
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.is_active = TRUE
		ORDER BY p.name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product := &models.Product{}
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.Stock, &product.Sold, &product.IsActive, &product.CategoryID, &product.CategoryName,
		); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sold, p.is_active, p.category_id, c.name
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	if err := row.Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Sold, &product.IsActive, &product.CategoryID, &product.CategoryName,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// LockProductByIDTx блокирует строку товара до конца транзакции.
// Конкурирующее оформление ждет на этой блокировке и после коммита победителя
// перечитывает уже списанный остаток — проигравший получает insufficient_stock,
// а не ошибку блокировки
func (r *productRepository) LockProductByIDTx(ctx context.Context, tx *sql.Tx, id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `
		SELECT p.id, p.name, p.description, p.price, p.stock, p.sold, p.is_active, p.category_id, c.name
		FROM products p
		JOIN categories c ON p.category_id = c.id
		WHERE p.id = $1
		FOR UPDATE OF p`
	row := tx.QueryRowContext(ctx, query, id)
	if err := row.Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Stock, &product.Sold, &product.IsActive, &product.CategoryID, &product.CategoryName,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

// TODO - можно заменить на атомарный UPDATE ... SET stock = stock - $1 с проверкой остатка
func (r *productRepository) UpdateStockTx(ctx context.Context, tx *sql.Tx, id int64, newStock, newSold int) error {
	res, err := tx.ExecContext(ctx, "UPDATE products SET stock = $1, sold = $2 WHERE id = $3", newStock, newSold, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}
