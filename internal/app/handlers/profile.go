package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/webstore/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/webstore/internal/service"
)

// ProfileHandler обрабатывает запрос GET /api/profile.
// Идентификатор пользователя берется из контекста (установленного JWT middleware),
// сервис собирает email и историю заказов
func ProfileHandler(log *slog.Logger, profileService service.ProfileService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProfileHandler"
		logger := log.With(slog.String("op", op))

		userID, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("userID not found in context")
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		profile, err := profileService.GetProfile(r.Context(), userID)
		if err != nil {
			logger.Error("failed to get profile", slog.Any("error", err))
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}
