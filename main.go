// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"cineweb/cmd"
	"cineweb/internal/data/repository"
	"cineweb/internal/reservation"
	"cineweb/internal/usecase"
	"cineweb/internal/wire"
	"cineweb/pkg/broker"
	"cineweb/pkg/cache"
	"cineweb/pkg/database"
	"cineweb/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	// Load config
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := utils.InitLogger(config.App)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("ledger", config.Ledger.Backend),
	)

	// Connect to database
	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		logger.Fatal("Failed to apply schema", zap.Error(err))
	}
	cancel()

	logger.Info("Database connected successfully")

	// Initialize all repositories
	repos := repository.NewRepository(db, logger)

	ledger, closeLedger, err := newLedger(config, db, repos, logger)
	if err != nil {
		logger.Fatal("Failed to init capacity ledger", zap.Error(err))
	}
	defer closeLedger()

	events := newEventPublisher(config, logger)
	if closer, ok := events.(*broker.Publisher); ok {
		defer closer.Close()
	}

	// Wire all dependencies
	app := wire.Wiring(repos, ledger, events, config, logger)

	if config.Ledger.RebuildOnStart {
		rebuildCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := app.Service.Purchase.RebuildLedger(rebuildCtx)
		cancel()
		if err != nil {
			logger.Fatal("Failed to rebuild capacity ledger", zap.Error(err))
		}
	}

	// Start server
	if err := cmd.APIServer(app.Router, config.App.Port, config.App.ShutdownTimeout, logger); err != nil {
		logger.Error("Server exited", zap.Error(err))
	}
}

// newLedger builds the configured capacity ledger. The returned func
// releases whatever connection the backend opened.
func newLedger(config *utils.Config, db database.PgxIface, repos *repository.Repository, logger *zap.Logger) (reservation.Ledger, func(), error) {
	noop := func() {}

	switch config.Ledger.Backend {
	case "", reservation.BackendMemory:
		return reservation.NewMemoryLedger(repos.Showtime, config.Ledger.LockTimeout, logger), noop, nil

	case reservation.BackendPostgres:
		return reservation.NewPostgresLedger(db, config.Ledger.LockTimeout, logger), noop, nil

	case reservation.BackendRedis:
		client, err := cache.NewRedisClient(config.Redis)
		if err != nil {
			return nil, noop, err
		}
		ledger := reservation.NewRedisLedger(client, repos.Showtime, config.Ledger.KeyPrefix, config.Ledger.LockTimeout, logger)
		return ledger, func() { client.Close() }, nil

	default:
		return nil, noop, fmt.Errorf("unknown ledger backend %q", config.Ledger.Backend)
	}
}

// newEventPublisher connects to RabbitMQ when configured. Purchases do not
// depend on the broker, so a failed connection only disables events.
func newEventPublisher(config *utils.Config, logger *zap.Logger) usecase.EventPublisher {
	if config.RabbitMQ.URL == "" {
		logger.Info("RabbitMQ not configured, order events disabled")
		return usecase.NopPublisher{}
	}

	publisher, err := broker.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange, logger)
	if err != nil {
		logger.Warn("Failed to connect to RabbitMQ, order events disabled", zap.Error(err))
		return usecase.NopPublisher{}
	}

	logger.Info("RabbitMQ connected", zap.String("exchange", config.RabbitMQ.Exchange))
	return publisher
}
