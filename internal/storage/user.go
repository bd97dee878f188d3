package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/linemk/webstore/internal/domain/models"
)

var ErrUserNotFound = errors.New("user not found")

type UserStorage interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

// GetUserByID возвращает пользователя по идентификатору из токена.
// Пароли и сессии здесь не проверяются — только существование и активность аккаунта
func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	row := r.db.QueryRowContext(ctx, "SELECT id, email, is_active FROM users WHERE id = $1", id)
	if err := row.Scan(&user.ID, &user.Email, &user.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
