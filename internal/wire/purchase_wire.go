package wire

import (
	"cineweb/internal/adaptor"
	"cineweb/internal/data/entity"
	"cineweb/pkg/middleware"
	"cineweb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePurchase(
	r chi.Router,
	purchaseHandler *adaptor.PurchaseHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== CUSTOMER ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(config.JWT.Secret, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleCustomer)))

		// POST /api/purchases - buy tickets for a showtime
		r.Post("/api/purchases", purchaseHandler.Purchase)

		// GET /api/user/orders - "my tickets"
		r.Get("/api/user/orders", purchaseHandler.ListMyOrders)

		// GET /api/user/orders/{id} - one of my orders
		r.Get("/api/user/orders/{id}", purchaseHandler.GetMyOrder)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Authenticate(config.JWT.Secret, log))
		r.Use(middleware.RequireRole(log, string(entity.RoleAdmin)))

		// GET /api/admin/showtimes/{id}/orders - orders of one showtime
		r.Get("/showtimes/{id}/orders", purchaseHandler.ListShowtimeOrders)
	})
}
