package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/linemk/webstore/internal/storage"
	"github.com/shopspring/decimal"
)

// ErrProductUnavailable — попытка положить в корзину несуществующий или снятый с продажи товар
var ErrProductUnavailable = errors.New("product is unavailable")

// CartLine — позиция корзины с посчитанной суммой строки.
type CartLine struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartResponse — корзина пользователя с общей суммой.
type CartResponse struct {
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// CartService управляет корзиной пользователя.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*CartResponse, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) error
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) error
	RemoveItem(ctx context.Context, userID, itemID int64) error
}

type cartService struct {
	log         *slog.Logger
	cartRepo    storage.CartStorage
	productRepo storage.ProductStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage, productRepo storage.ProductStorage) CartService {
	return &cartService{
		log:         log,
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID int64) (*CartResponse, error) {
	const op = "service.CartService.GetCart"

	items, err := s.cartRepo.ListItemsByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to list cart items", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list cart items: %w", op, err)
	}

	resp := &CartResponse{Total: decimal.Zero}
	for _, item := range items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		resp.Items = append(resp.Items, CartLine{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.ProductName,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: lineTotal,
		})
		resp.Total = resp.Total.Add(lineTotal)
	}
	return resp, nil
}

// AddItem добавляет товар в корзину. Товар должен существовать и быть активным,
// повторное добавление увеличивает количество существующей позиции
func (s *cartService) AddItem(ctx context.Context, userID, productID int64, quantity int) error {
	const op = "service.CartService.AddItem"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("productID", productID))

	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.GetProductByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			logger.Warn("product not found")
			return ErrProductUnavailable
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get product: %w", op, err)
	}
	if !product.IsActive {
		logger.Warn("product is inactive")
		return ErrProductUnavailable
	}

	if _, err := s.cartRepo.UpsertItem(ctx, userID, productID, quantity); err != nil {
		logger.Error("failed to upsert cart item", slog.Any("error", err))
		return fmt.Errorf("%s: failed to upsert cart item: %w", op, err)
	}

	logger.Info("item added to cart", slog.Int("quantity", quantity))
	return nil
}

func (s *cartService) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) error {
	const op = "service.CartService.UpdateItem"

	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if err := s.cartRepo.UpdateQuantity(ctx, itemID, userID, quantity); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return err
		}
		s.log.Error("failed to update cart item", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to update cart item: %w", op, err)
	}
	return nil
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID int64) error {
	const op = "service.CartService.RemoveItem"

	if err := s.cartRepo.DeleteItem(ctx, itemID, userID); err != nil {
		if errors.Is(err, storage.ErrCartItemNotFound) {
			return err
		}
		s.log.Error("failed to delete cart item", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: failed to delete cart item: %w", op, err)
	}
	return nil
}
