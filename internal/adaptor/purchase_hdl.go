package adaptor

import (
	"net/http"

	"cineweb/internal/dto/request"
	"cineweb/internal/usecase"
	"cineweb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PurchaseHandler struct {
	service usecase.PurchaseService
	log     *zap.Logger
}

func NewPurchaseHandler(service usecase.PurchaseService, log *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service: service,
		log:     log.With(zap.String("handler", "purchase")),
	}
}

// Purchase handles POST /api/purchases (customer)
func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Normalize()
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	purchase, err := h.service.Purchase(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "purchase")
		return
	}

	utils.ResponseCreated(w, "Purchase successful", purchase)
}

// ListMyOrders handles GET /api/user/orders (customer)
func (h *PurchaseHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	orders, err := h.service.ListMyOrders(r.Context(), userID, paginationFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list my orders")
		return
	}

	utils.ResponseSuccess(w, "success", orders)
}

// GetMyOrder handles GET /api/user/orders/{id} (customer)
func (h *PurchaseHandler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	order, err := h.service.GetMyOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get my order")
		return
	}

	utils.ResponseSuccess(w, "success", order)
}

// Availability handles GET /api/showtimes/{id}/availability
func (h *PurchaseHandler) Availability(w http.ResponseWriter, r *http.Request) {
	availability, err := h.service.Availability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get availability")
		return
	}

	utils.ResponseSuccess(w, "success", availability)
}

// ==================== ADMIN METHODS ====================

// ListShowtimeOrders handles GET /api/admin/showtimes/{id}/orders (admin only)
func (h *PurchaseHandler) ListShowtimeOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListShowtimeOrders(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list showtime orders")
		return
	}

	utils.ResponseSuccess(w, "success", orders)
}
