package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/webstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/webstore/internal/service"
	"github.com/linemk/webstore/internal/storage"
)

// AddToCartRequest представляет входной JSON для добавления товара в корзину.
type AddToCartRequest struct {
	ProductID int64 `json:"productId" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest представляет входной JSON для изменения количества.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// CartMessageResponse — структура ответа при успешной операции с корзиной.
type CartMessageResponse struct {
	Message string `json:"message"`
}

// GetCartHandler обрабатывает запрос GET /api/cart.
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		cart, err := cartService.GetCart(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, cart)
	}
}

// AddToCartHandler обрабатывает запрос POST /api/cart.
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req AddToCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		if err := cartService.AddItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
			if errors.Is(err, service.ErrProductUnavailable) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			logger.Error("failed to add item to cart", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, CartMessageResponse{Message: "Item added to cart"})
	}
}

// UpdateCartItemHandler обрабатывает запрос PUT /api/cart/{id}.
func UpdateCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid cart item id", http.StatusBadRequest)
			return
		}

		var req UpdateCartItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			http.Error(w, "validation error", http.StatusBadRequest)
			return
		}

		if err := cartService.UpdateItem(r.Context(), userID, itemID, req.Quantity); err != nil {
			// Чужая позиция корзины выглядит как несуществующая
			if errors.Is(err, storage.ErrCartItemNotFound) {
				http.Error(w, "cart item not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to update cart item", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, CartMessageResponse{Message: "Cart item updated"})
	}
}

// RemoveCartItemHandler обрабатывает запрос DELETE /api/cart/{id}.
func RemoveCartItemHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveCartItemHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid cart item id", http.StatusBadRequest)
			return
		}

		if err := cartService.RemoveItem(r.Context(), userID, itemID); err != nil {
			if errors.Is(err, storage.ErrCartItemNotFound) {
				http.Error(w, "cart item not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to remove cart item", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, CartMessageResponse{Message: "Cart item removed"})
	}
}
