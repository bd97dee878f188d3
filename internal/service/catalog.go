package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/linemk/webstore/internal/domain/models"
	"github.com/linemk/webstore/internal/lib/cache"
	"github.com/linemk/webstore/internal/storage"
)

// CatalogService отдает каталог на чтение. Список товаров и категорий
// кэшируется в redis; ошибки кэша не фатальны — читаем из БД
type CatalogService interface {
	ListProducts(ctx context.Context) ([]*models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type catalogService struct {
	log          *slog.Logger
	productRepo  storage.ProductStorage
	categoryRepo storage.CategoryStorage
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewCatalogService(log *slog.Logger, productRepo storage.ProductStorage, categoryRepo storage.CategoryStorage, c cache.Cache, cacheTTL time.Duration) CatalogService {
	return &catalogService{
		log:          log,
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

func (s *catalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	const op = "service.CatalogService.ListProducts"
	logger := s.log.With(slog.String("op", op))

	key := s.cache.GenerateKey("catalog", "products")
	var products []*models.Product
	if hit := s.fromCache(ctx, logger, key, &products); hit {
		return products, nil
	}

	products, err := s.productRepo.ListActiveProducts(ctx)
	if err != nil {
		logger.Error("failed to list products", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list products: %w", op, err)
	}

	s.toCache(ctx, logger, key, products)
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	const op = "service.CatalogService.GetProduct"
	logger := s.log.With(slog.String("op", op), slog.Int64("productID", id))

	key := s.cache.GenerateKey("catalog", "product:"+strconv.FormatInt(id, 10))
	var product *models.Product
	if hit := s.fromCache(ctx, logger, key, &product); hit {
		return product, nil
	}

	product, err := s.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return nil, err
		}
		logger.Error("failed to get product", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get product: %w", op, err)
	}

	s.toCache(ctx, logger, key, product)
	return product, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	const op = "service.CatalogService.ListCategories"
	logger := s.log.With(slog.String("op", op))

	key := s.cache.GenerateKey("catalog", "categories")
	var categories []*models.Category
	if hit := s.fromCache(ctx, logger, key, &categories); hit {
		return categories, nil
	}

	categories, err := s.categoryRepo.ListCategories(ctx)
	if err != nil {
		logger.Error("failed to list categories", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to list categories: %w", op, err)
	}

	s.toCache(ctx, logger, key, categories)
	return categories, nil
}

// fromCache пытается прочитать и распаковать значение; любой сбой — это промах
func (s *catalogService) fromCache(ctx context.Context, logger *slog.Logger, key string, dest interface{}) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", slog.Any("error", err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("cache entry is malformed", slog.Any("error", err))
		return false
	}
	return true
}

func (s *catalogService) toCache(ctx context.Context, logger *slog.Logger, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		logger.Warn("cache marshal failed", slog.Any("error", err))
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
		logger.Warn("cache write failed", slog.Any("error", err))
	}
}
