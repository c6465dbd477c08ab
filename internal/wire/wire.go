// internal/wire/wire.go
package wire

import (
	"net/http"

	"cineweb/internal/adaptor"
	"cineweb/internal/data/repository"
	"cineweb/internal/reservation"
	"cineweb/internal/usecase"
	"cineweb/pkg/middleware"
	"cineweb/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App menyimpan semua dependencies
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// Wiring menginisialisasi semua dependencies
func Wiring(
	repo *repository.Repository,
	ledger reservation.Ledger,
	events usecase.EventPublisher,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, ledger, events, config, logger)
	handler := adaptor.NewHandler(service, logger)

	return &App{
		Router:  setupRouter(handler, config, logger),
		Service: service,
	}
}

// setupRouter konfigurasi Chi router
func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.CORS.AllowedOrigins))
	r.Use(middleware.Metrics())

	// Apply routes
	wireAuth(r, handler.Auth, config, logger)
	wireCatalog(r, handler.Catalog, handler.Purchase)
	wirePurchase(r, handler.Purchase, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
