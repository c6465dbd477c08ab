package wire

import (
	"cineweb/internal/adaptor"
	"cineweb/pkg/middleware"
	"cineweb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, config *utils.Config, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// ==================== AUTHENTICATED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(config.JWT.Secret, log))

		// GET /api/user/me - profile of the token owner, any role
		r.Get("/api/user/me", authHandler.Me)
	})
}
