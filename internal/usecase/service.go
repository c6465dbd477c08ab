package usecase

import (
	"cineweb/internal/data/repository"
	"cineweb/internal/reservation"
	"cineweb/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	Catalog  CatalogService
	Purchase PurchaseService
}

func NewService(
	repo *repository.Repository,
	ledger reservation.Ledger,
	events EventPublisher,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo, config.JWT, log),
		Catalog:  NewCatalogService(repo, log),
		Purchase: NewPurchaseService(repo, ledger, events, log),
	}
}
