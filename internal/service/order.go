package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/linemk/webstore/internal/domain/models"
	"github.com/linemk/webstore/internal/storage"
	"github.com/shopspring/decimal"
)

// Способы оплаты, принимаемые при оформлении заказа.
const (
	PaymentMethodCash    = "CASH"
	PaymentMethodAccount = "ACCOUNT"
)

// priceTolerance — допустимое абсолютное расхождение между ценой из запроса
// и ценой в БД. Цена из БД всегда авторитетна, проверка ловит подмену цены клиентом
var priceTolerance = decimal.NewFromFloat(0.01)

var (
	// ErrUserInactive — актор не найден или деактивирован, транзакция не начинается
	ErrUserInactive = errors.New("account is not active")
	// ErrEmptyOrder — заказ без позиций отклоняется до обращения к БД
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrInvalidQuantity — неположительное количество в какой-либо позиции
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrInvalidPayment — безналичная оплата без реквизитов счета
	ErrInvalidPayment = errors.New("account number and account name are required")
	// ErrTransactionFailed — сбой на уровне БД, все изменения откатаны
	ErrTransactionFailed = errors.New("transaction failed")
)

// Причины недоступности позиции заказа.
const (
	ReasonNotFound          = "not_found"
	ReasonProductInactive   = "product_inactive"
	ReasonInsufficientStock = "insufficient_stock"
	ReasonPriceMismatch     = "price_mismatch"
)

// UnavailableProduct — диагностика по одной непрошедшей проверку позиции.
type UnavailableProduct struct {
	ProductID     int64            `json:"product_id"`
	Name          string           `json:"name,omitempty"`
	Reason        string           `json:"reason"`
	Stock         *int             `json:"stock,omitempty"`
	Requested     *int             `json:"requested,omitempty"`
	ExpectedPrice *decimal.Decimal `json:"expected_price,omitempty"`
	ProvidedPrice *decimal.Decimal `json:"provided_price,omitempty"`
}

// StockError возвращается, когда хотя бы одна позиция не прошла проверки.
// Список типизирован, а не упакован в текст ошибки: обработчик отдает его клиенту как есть
type StockError struct {
	Unavailable []UnavailableProduct
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%d product(s) unavailable", len(e.Unavailable))
}

// OrderLine — позиция запроса на оформление заказа.
type OrderLine struct {
	ProductID  int64
	Quantity   int
	UnitPrice  decimal.Decimal // цена, которую видел клиент; сверяется с БД
	CartItemID *int64          // позиция корзины, которую нужно удалить после заказа
}

// PaymentDetails — платежные данные запроса.
type PaymentDetails struct {
	Method        string
	AccountNumber string
	AccountName   string
}

// PlaceOrderRequest — запрос на оформление заказа.
type PlaceOrderRequest struct {
	Items   []OrderLine
	Payment PaymentDetails
}

// OrderConfirmation — результат успешного оформления.
type OrderConfirmation struct {
	OrderNumber   string          `json:"order_number"`
	PaymentStatus string          `json:"payment_status"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// OrderService оформляет заказы и читает историю заказов.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*OrderConfirmation, error)
	GetOrder(ctx context.Context, userID int64, orderNumber string) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	userRepo    storage.UserStorage
	productRepo storage.ProductStorage
	orderRepo   storage.OrderStorage
	cartRepo    storage.CartStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, userRepo storage.UserStorage, productRepo storage.ProductStorage, orderRepo storage.OrderStorage, cartRepo storage.CartStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
	}
}

// PlaceOrder проверяет и оформляет заказ одной транзакцией:
// блокировка строк товара, проверки (наличие, активность, остаток, цена),
// списание остатка, создание заказа и чистка корзины. Заказ либо создается
// целиком, либо не создается вовсе — частичных списаний не остается
func (s *orderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*OrderConfirmation, error) {
	const op = "service.OrderService.PlaceOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting order transaction", slog.Int("items", len(req.Items)))

	// Проверка актора до начала транзакции
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return nil, ErrUserInactive
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get user: %w", op, err)
	}
	if !user.IsActive {
		logger.Warn("user is not active")
		return nil, ErrUserInactive
	}

	// Валидация формы запроса до обращения к БД
	if err := validateOrderRequest(req); err != nil {
		logger.Warn("invalid order request", slog.Any("error", err))
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, ErrTransactionFailed)
	}

	var (
		unavailable []UnavailableProduct
		orderItems  []models.OrderItem
		cartIDs     []int64
		total       = decimal.Zero
	)

	for _, line := range req.Items {
		product, err := s.productRepo.LockProductByIDTx(ctx, tx, line.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				unavailable = append(unavailable, UnavailableProduct{
					ProductID: line.ProductID,
					Reason:    ReasonNotFound,
				})
				continue
			}
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to lock product", slog.Int64("productID", line.ProductID), slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to lock product: %w", op, ErrTransactionFailed)
		}

		if !product.IsActive {
			unavailable = append(unavailable, UnavailableProduct{
				ProductID: product.ID,
				Name:      product.Name,
				Reason:    ReasonProductInactive,
			})
			continue
		}

		if product.Stock < line.Quantity {
			stock, requested := product.Stock, line.Quantity
			unavailable = append(unavailable, UnavailableProduct{
				ProductID: product.ID,
				Name:      product.Name,
				Reason:    ReasonInsufficientStock,
				Stock:     &stock,
				Requested: &requested,
			})
			continue
		}

		if product.Price.Sub(line.UnitPrice).Abs().GreaterThan(priceTolerance) {
			expected, provided := product.Price, line.UnitPrice
			unavailable = append(unavailable, UnavailableProduct{
				ProductID:     product.ID,
				Name:          product.Name,
				Reason:        ReasonPriceMismatch,
				ExpectedPrice: &expected,
				ProvidedPrice: &provided,
			})
			continue
		}

		// Списание остатка имеет смысл только пока все позиции проходят проверки:
		// при любой недоступной позиции транзакция всё равно откатится
		if len(unavailable) == 0 {
			if err := s.productRepo.UpdateStockTx(ctx, tx, product.ID, product.Stock-line.Quantity, product.Sold+line.Quantity); err != nil {
				if rbErr := tx.Rollback(); rbErr != nil {
					logger.Error("transaction rollback failed", slog.Any("error", rbErr))
				}
				logger.Error("failed to update stock", slog.Int64("productID", product.ID), slog.Any("error", err))
				return nil, fmt.Errorf("%s: failed to update stock: %w", op, ErrTransactionFailed)
			}
		}

		orderItems = append(orderItems, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
			Category:  product.CategoryName,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		if line.CartItemID != nil {
			cartIDs = append(cartIDs, *line.CartItemID)
		}
	}

	// Любая недоступная позиция блокирует заказ целиком
	if len(unavailable) > 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("order rejected", slog.Int("unavailable", len(unavailable)))
		return nil, &StockError{Unavailable: unavailable}
	}

	order := &models.Order{
		OrderNumber:   newOrderNumber(),
		UserID:        userID,
		Items:         orderItems,
		Payment:       normalizePayment(req.Payment),
		PaymentStatus: models.PaymentStatusPending,
		TotalAmount:   total,
	}

	if _, err := s.orderRepo.CreateOrderTx(ctx, tx, order); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, ErrTransactionFailed)
	}

	if len(cartIDs) > 0 {
		if err := s.cartRepo.DeleteItemsTx(ctx, tx, userID, cartIDs); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("transaction rollback failed", slog.Any("error", rbErr))
			}
			logger.Error("failed to clear cart items", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to clear cart items: %w", op, ErrTransactionFailed)
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, ErrTransactionFailed)
	}

	logger.Info("order placed successfully", slog.String("orderNumber", order.OrderNumber))
	return &OrderConfirmation{
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, userID int64, orderNumber string) (*models.Order, error) {
	const op = "service.OrderService.GetOrder"

	order, err := s.orderRepo.GetOrderByNumber(ctx, orderNumber, userID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, err
		}
		s.log.Error("failed to get order", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order: %w", op, err)
	}
	return order, nil
}

func validateOrderRequest(req *PlaceOrderRequest) error {
	if len(req.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	if req.Payment.Method != PaymentMethodCash {
		if req.Payment.AccountNumber == "" || req.Payment.AccountName == "" {
			return ErrInvalidPayment
		}
	}
	return nil
}

// normalizePayment приводит платежные данные к сохраняемому виду:
// для наличной оплаты клиентские реквизиты игнорируются полностью
func normalizePayment(p PaymentDetails) models.PaymentInfo {
	if p.Method == PaymentMethodCash {
		return models.PaymentInfo{
			AccountNumber: models.CashAccountNumber,
			AccountName:   models.CashAccountName,
			IsCashPayment: true,
		}
	}
	return models.PaymentInfo{
		AccountNumber: p.AccountNumber,
		AccountName:   p.AccountName,
		IsCashPayment: false,
	}
}

func newOrderNumber() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "CMD-" + strings.ToUpper(raw[:8])
}
