package storage

import (
	"context"
	"database/sql"

	"github.com/linemk/webstore/internal/domain/models"
)

// CategoryStorage описывает методы для работы с категориями каталога.
type CategoryStorage interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryStorage {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return categories, nil
}
