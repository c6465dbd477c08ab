package adaptor

import (
	"net/http"

	"cineweb/internal/dto/request"
	"cineweb/internal/usecase"
	"cineweb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// ListMovies handles GET /api/movies
func (h *CatalogHandler) ListMovies(w http.ResponseWriter, r *http.Request) {
	movies, err := h.service.ListMovies(r.Context(), paginationFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list movies")
		return
	}

	utils.ResponseSuccess(w, "success", movies)
}

// ListShowtimes handles GET /api/showtimes
func (h *CatalogHandler) ListShowtimes(w http.ResponseWriter, r *http.Request) {
	showtimes, err := h.service.ListUpcomingShowtimes(r.Context(), paginationFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list showtimes")
		return
	}

	utils.ResponseSuccess(w, "success", showtimes)
}

// GetShowtime handles GET /api/showtimes/{id}
func (h *CatalogHandler) GetShowtime(w http.ResponseWriter, r *http.Request) {
	showtimeID := chi.URLParam(r, "id")
	if showtimeID == "" {
		utils.ResponseBadRequest(w, "Showtime ID is required", nil)
		return
	}

	showtime, err := h.service.GetShowtime(r.Context(), showtimeID)
	if err != nil {
		handleServiceError(w, h.log, err, "get showtime")
		return
	}

	utils.ResponseSuccess(w, "success", showtime)
}

// ListAddOns handles GET /api/addons
func (h *CatalogHandler) ListAddOns(w http.ResponseWriter, r *http.Request) {
	addOns, err := h.service.ListAddOns(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list add-ons")
		return
	}

	utils.ResponseSuccess(w, "success", addOns)
}

// ListRooms handles GET /api/rooms
func (h *CatalogHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list rooms")
		return
	}

	utils.ResponseSuccess(w, "success", rooms)
}

func paginationFromQuery(r *http.Request) *request.PaginatedRequest {
	query := r.URL.Query()
	return &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}
}
