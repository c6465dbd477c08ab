package wire

import (
	"cineweb/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, catalogHandler *adaptor.CatalogHandler, purchaseHandler *adaptor.PurchaseHandler) {
	// ==================== PUBLIC ROUTES ====================
	// Catalog is read-only here, data entry happens elsewhere
	r.Get("/api/movies", catalogHandler.ListMovies)
	r.Get("/api/rooms", catalogHandler.ListRooms)
	r.Get("/api/addons", catalogHandler.ListAddOns)

	r.Route("/api/showtimes", func(r chi.Router) {
		r.Get("/", catalogHandler.ListShowtimes)
		r.Get("/{id}", catalogHandler.GetShowtime)

		// GET /api/showtimes/{id}/availability - remaining seats from the ledger
		r.Get("/{id}/availability", purchaseHandler.Availability)
	})
}
