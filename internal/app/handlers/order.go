package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/webstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/webstore/internal/service"
	"github.com/linemk/webstore/internal/storage"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// OrderItemRequest — позиция входящего заказа с тегами валидации.
type OrderItemRequest struct {
	ProductID  int64           `json:"productId" validate:"required"`
	Quantity   int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	CartItemID *int64          `json:"cartItemId,omitempty"`
}

// PaymentRequest — платежные данные входящего заказа.
// Для безналичной оплаты реквизиты счета обязательны
type PaymentRequest struct {
	Method        string `json:"method" validate:"required,oneof=CASH ACCOUNT"`
	AccountNumber string `json:"accountNumber,omitempty" validate:"required_if=Method ACCOUNT"`
	AccountName   string `json:"accountName,omitempty" validate:"required_if=Method ACCOUNT"`
}

// PlaceOrderRequest представляет входной JSON для оформления заказа.
type PlaceOrderRequest struct {
	Items   []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	Payment PaymentRequest     `json:"payment" validate:"required"`
}

// stockErrorResponse — структура ответа при недоступных позициях.
type stockErrorResponse struct {
	Error               string                       `json:"error"`
	Message             string                       `json:"message"`
	UnavailableProducts []service.UnavailableProduct `json:"unavailableProducts"`
}

// PlaceOrderHandler обрабатывает запрос POST /api/order.
// Ошибки уровня БД наружу не уходят: клиент получает обезличенный 500,
// детали остаются в логе
func PlaceOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.PlaceOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req PlaceOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		// Валидация структуры запроса с использованием validator
		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		svcReq := &service.PlaceOrderRequest{
			Payment: service.PaymentDetails{
				Method:        req.Payment.Method,
				AccountNumber: req.Payment.AccountNumber,
				AccountName:   req.Payment.AccountName,
			},
		}
		for _, item := range req.Items {
			svcReq.Items = append(svcReq.Items, service.OrderLine{
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				CartItemID: item.CartItemID,
			})
		}

		confirmation, err := orderService.PlaceOrder(r.Context(), userID, svcReq)
		if err != nil {
			var stockErr *service.StockError
			switch {
			case errors.As(err, &stockErr):
				logger.Warn("order rejected: unavailable products", slog.Int("count", len(stockErr.Unavailable)))
				writeJSON(w, http.StatusConflict, stockErrorResponse{
					Error:               "STOCK_ERROR",
					Message:             "some products are unavailable",
					UnavailableProducts: stockErr.Unavailable,
				})
			case errors.Is(err, service.ErrUserInactive):
				logger.Warn("order rejected: inactive account")
				http.Error(w, err.Error(), http.StatusForbidden)
			case errors.Is(err, service.ErrEmptyOrder),
				errors.Is(err, service.ErrInvalidQuantity),
				errors.Is(err, service.ErrInvalidPayment):
				logger.Warn("order rejected: invalid request", slog.Any("error", err))
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				logger.Error("failed to place order", slog.Any("error", err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, confirmation)
	}
}

// GetOrderHandler обрабатывает запрос GET /api/orders/{orderNumber}.
// Чужие заказы неотличимы от несуществующих — в обоих случаях 404
func GetOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrderHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderNumber := chi.URLParam(r, "orderNumber")
		if orderNumber == "" {
			http.Error(w, "orderNumber parameter is required", http.StatusBadRequest)
			return
		}

		order, err := orderService.GetOrder(r.Context(), userID, orderNumber)
		if err != nil {
			if errors.Is(err, storage.ErrOrderNotFound) {
				http.Error(w, "order not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get order", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

// writeJSON отправляет объект клиенту; статус пишется до тела,
// поэтому сообщить клиенту об ошибке кодирования уже нельзя
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
