package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linemk/webstore/internal/domain/models"
	"github.com/linemk/webstore/internal/storage"
)

// ProfileService определяет интерфейс для получения профиля пользователя.
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error)
}

// ProfileResponse — профиль пользователя с историей заказов, новые первыми.
type ProfileResponse struct {
	Email  string          `json:"email"`
	Orders []*models.Order `json:"orders"`
}

type profileService struct {
	log       *slog.Logger
	userRepo  storage.UserStorage
	orderRepo storage.OrderStorage
}

func NewProfileService(log *slog.Logger, userRepo storage.UserStorage, orderRepo storage.OrderStorage) ProfileService {
	return &profileService{
		log:       log,
		userRepo:  userRepo,
		orderRepo: orderRepo,
	}
}

func (s *profileService) GetProfile(ctx context.Context, userID int64) (*ProfileResponse, error) {
	const op = "service.ProfileService.GetProfile"
	s.log.Info("getting profile", slog.String("op", op), slog.Int64("userID", userID))

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get user by id", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get orders: %w", err)
	}

	return &ProfileResponse{
		Email:  user.Email,
		Orders: orders,
	}, nil
}
