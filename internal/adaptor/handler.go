package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cineweb/internal/reservation"
	"cineweb/internal/usecase"
	"cineweb/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	Catalog  *CatalogHandler
	Purchase *PurchaseHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, log),
		Catalog:  NewCatalogHandler(service.Catalog, log),
		Purchase: NewPurchaseHandler(service.Purchase, log),
	}
}

// retry hint for transient failures, in seconds
const retryAfterSeconds = "1"

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 64 << 10

// decodeJSON reads a size-limited JSON body into dst. On failure it has
// already written the response.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.ResponseJSON(w, http.StatusRequestEntityTooLarge, false, "Request body too large", nil, nil)
			return false
		}
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// handleServiceError maps service and ledger errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError
	var capacityErr *reservation.InsufficientCapacityError

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" validation failed",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.Is(err, usecase.ErrValidation), errors.Is(err, reservation.ErrInvalidQuantity):
		log.Warn("Invalid input for "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound), errors.Is(err, reservation.ErrNotFound):
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, reservation.ErrSoldOut):
		utils.ResponseConflict(w, "Showtime is sold out", map[string]int{"available": 0})

	case errors.As(err, &capacityErr):
		utils.ResponseConflict(w,
			fmt.Sprintf("Only %d seats left for this showtime", capacityErr.Available),
			map[string]int{
				"available": capacityErr.Available,
				"requested": capacityErr.Requested,
			})

	case errors.Is(err, reservation.ErrLockTimeout):
		log.Warn(operation+" failed - showtime busy",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseUnavailable(w, "Showtime is busy, please retry", retryAfterSeconds)

	case errors.Is(err, usecase.ErrPersistence):
		log.Error(operation+" failed - order not saved",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseUnavailable(w, usecase.ErrPersistence.Error(), retryAfterSeconds)

	case errors.Is(err, usecase.ErrInvalidCredentials):
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrUsernameTaken):
		utils.ResponseConflict(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
