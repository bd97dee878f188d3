package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/linemk/webstore/internal/app"
	"github.com/linemk/webstore/internal/app/handlers"
	"github.com/linemk/webstore/internal/config"
	"github.com/linemk/webstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/webstore/internal/lib/cache"
	"github.com/linemk/webstore/internal/lib/logger"
	"github.com/linemk/webstore/internal/lib/logger/handlers/urllog"
	"github.com/linemk/webstore/internal/service"
	"github.com/linemk/webstore/internal/storage"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	categoryRepo := storage.NewCategoryRepository(application.DB)
	productRepo := storage.NewProductRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)

	// кэш каталога в redis
	catalogCache := cache.NewRedisCache(cfg.Redis.Address, "webstore")

	catalogService := service.NewCatalogService(application.Logger, productRepo, categoryRepo, catalogCache, cfg.Redis.CacheTTL)
	cartService := service.NewCartService(application.Logger, cartRepo, productRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, userRepo, productRepo, orderRepo, cartRepo)
	profileService := service.NewProfileService(application.Logger, userRepo, orderRepo)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// публичная часть каталога
	router.Get("/api/products", handlers.ListProductsHandler(application.Logger, catalogService))
	router.Get("/api/products/{id}", handlers.GetProductHandler(application.Logger, catalogService))
	router.Get("/api/categories", handlers.ListCategoriesHandler(application.Logger, catalogService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret)
		r.Use(jwtMW)
		// корзина
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart", handlers.AddToCartHandler(application.Logger, cartService))
		r.Put("/api/cart/{id}", handlers.UpdateCartItemHandler(application.Logger, cartService))
		r.Delete("/api/cart/{id}", handlers.RemoveCartItemHandler(application.Logger, cartService))
		// оформление заказа и история
		r.Post("/api/order", handlers.PlaceOrderHandler(application.Logger, orderService))
		r.Get("/api/orders/{orderNumber}", handlers.GetOrderHandler(application.Logger, orderService))
		r.Get("/api/profile", handlers.ProfileHandler(application.Logger, profileService))
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
