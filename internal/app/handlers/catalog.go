package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/webstore/internal/service"
	"github.com/linemk/webstore/internal/storage"
)

// ListProductsHandler обрабатывает запрос GET /api/products.
func ListProductsHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListProductsHandler"
		logger := log.With(slog.String("op", op))

		products, err := catalogService.ListProducts(r.Context())
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, products)
	}
}

// GetProductHandler обрабатывает запрос GET /api/products/{id}.
func GetProductHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProductHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}

		product, err := catalogService.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrProductNotFound) {
				http.Error(w, "product not found", http.StatusNotFound)
				return
			}
			logger.Error("failed to get product", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, product)
	}
}

// ListCategoriesHandler обрабатывает запрос GET /api/categories.
func ListCategoriesHandler(log *slog.Logger, catalogService service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCategoriesHandler"
		logger := log.With(slog.String("op", op))

		categories, err := catalogService.ListCategories(r.Context())
		if err != nil {
			logger.Error("failed to list categories", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, categories)
	}
}
