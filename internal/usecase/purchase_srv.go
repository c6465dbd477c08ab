package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineweb/internal/data/entity"
	"cineweb/internal/data/repository"
	"cineweb/internal/dto/request"
	"cineweb/internal/dto/response"
	"cineweb/internal/pricing"
	"cineweb/internal/reservation"
	"cineweb/pkg/metrics"
	"cineweb/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxTicketsPerOrder = 20
	MaxAddOnsPerOrder  = 20

	// bounds the order write, compensating release and event publish,
	// which run detached from the request context
	backgroundTimeout = 5 * time.Second
)

// purchase outcomes, used as metric labels
const (
	outcomeCommitted    = "committed"
	outcomeInvalid      = "invalid"
	outcomeNotFound     = "not_found"
	outcomeSoldOut      = "sold_out"
	outcomeInsufficient = "insufficient_capacity"
	outcomeLockTimeout  = "lock_timeout"
	outcomePersistence  = "persistence_failure"
	outcomeError        = "error"
)

type PurchaseService interface {
	// Purchase runs validate -> admit -> price -> commit for one request.
	Purchase(ctx context.Context, userID uuid.UUID, req *request.PurchaseRequest) (*response.PurchaseResponse, error)

	ListMyOrders(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.OrderHistoryResponse], error)
	GetMyOrder(ctx context.Context, userID uuid.UUID, orderID string) (*response.OrderResponse, error)
	Availability(ctx context.Context, showtimeID string) (*response.AvailabilityResponse, error)

	// Admin
	ListShowtimeOrders(ctx context.Context, showtimeID string) ([]response.OrderResponse, error)

	// RebuildLedger loads committed totals from the order store.
	RebuildLedger(ctx context.Context) error
}

type purchaseService struct {
	repo   *repository.Repository
	ledger reservation.Ledger
	events EventPublisher
	log    *zap.Logger
}

func NewPurchaseService(repo *repository.Repository, ledger reservation.Ledger, events EventPublisher, log *zap.Logger) PurchaseService {
	if events == nil {
		events = NopPublisher{}
	}
	return &purchaseService{
		repo:   repo,
		ledger: ledger,
		events: events,
		log:    log.With(zap.String("service", "purchase")),
	}
}

func (s *purchaseService) Purchase(ctx context.Context, userID uuid.UUID, req *request.PurchaseRequest) (*response.PurchaseResponse, error) {
	// 1. Validated
	req.Normalize()
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Purchase validation failed", zap.Any("errors", errs))
		metrics.Purchases.WithLabelValues(outcomeInvalid).Inc()
		return nil, &ValidationError{Fields: errs}
	}
	if err := checkPurchaseRanges(req); err != nil {
		s.log.Warn("Purchase rejected by range check", zap.Error(err))
		metrics.Purchases.WithLabelValues(outcomeInvalid).Inc()
		return nil, err
	}

	showtimeID, err := uuid.Parse(req.ShowtimeID)
	if err != nil {
		metrics.Purchases.WithLabelValues(outcomeInvalid).Inc()
		return nil, validationError("showtime_id", "Must be a valid UUID")
	}

	// 2. Resolve references before touching the ledger
	showtime, err := s.repo.Showtime.FindByID(ctx, showtimeID)
	if err != nil {
		metrics.Purchases.WithLabelValues(outcomeError).Inc()
		return nil, fmt.Errorf("find showtime %s: %w", showtimeID, err)
	}
	if showtime == nil {
		metrics.Purchases.WithLabelValues(outcomeNotFound).Inc()
		return nil, fmt.Errorf("showtime %s: %w", showtimeID, ErrNotFound)
	}

	var addOn *entity.AddOn
	if req.HasAddOn() {
		addOnID, err := uuid.Parse(req.AddOnID)
		if err != nil {
			metrics.Purchases.WithLabelValues(outcomeInvalid).Inc()
			return nil, validationError("addon_id", "Must be a valid UUID")
		}

		addOn, err = s.repo.AddOn.FindByID(ctx, addOnID)
		if err != nil {
			metrics.Purchases.WithLabelValues(outcomeError).Inc()
			return nil, fmt.Errorf("find add-on %s: %w", addOnID, err)
		}
		if addOn == nil {
			metrics.Purchases.WithLabelValues(outcomeNotFound).Inc()
			return nil, fmt.Errorf("add-on %s: %w", addOnID, ErrNotFound)
		}
	}

	// 3. CapacityChecked
	admission, err := s.ledger.Admit(ctx, showtimeID, req.Quantity)
	if err != nil {
		outcome := admissionOutcome(err)
		metrics.Purchases.WithLabelValues(outcome).Inc()
		s.log.Info("Purchase rejected",
			zap.String("showtime_id", showtimeID.String()),
			zap.String("user_id", userID.String()),
			zap.Int("quantity", req.Quantity),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		if errors.Is(err, reservation.ErrNotFound) {
			return nil, fmt.Errorf("showtime %s: %w", showtimeID, ErrNotFound)
		}
		return nil, err
	}

	// 4. Priced
	input := pricing.Input{
		BasePrice: showtime.BasePrice,
		Type:      pricing.TicketType(req.TicketType),
		Quantity:  req.Quantity,
	}
	if addOn != nil {
		input.AddOn = &pricing.AddOnLine{UnitPrice: addOn.UnitPrice, Quantity: req.AddOnQuantity}
	}
	quote := pricing.Price(input)

	// 5. Committed
	now := time.Now()
	orderID := uuid.New()
	order := &entity.Order{
		BaseSimple: entity.BaseSimple{
			ID:        orderID,
			CreatedAt: now,
		},
		Code:           utils.GenerateOrderCode(orderID, now),
		UserID:         userID,
		ShowtimeID:     showtimeID,
		TicketType:     entity.TicketType(req.TicketType),
		Quantity:       req.Quantity,
		TicketSubtotal: quote.TicketSubtotal,
		AddOnSubtotal:  quote.AddOnSubtotal,
		Total:          quote.Total,
	}
	if addOn != nil {
		order.AddOnID = &addOn.ID
		order.AddOnQuantity = req.AddOnQuantity
	}

	// detached so a client disconnect cannot turn a stored order into released seats
	writeCtx, cancelWrite := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
	err = s.repo.Order.Create(writeCtx, order)
	cancelWrite()
	if err != nil {
		metrics.Purchases.WithLabelValues(outcomePersistence).Inc()
		s.log.Error("Failed to commit order, releasing reservation",
			zap.Error(err),
			zap.String("code", order.Code),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("quantity", req.Quantity),
		)
		s.release(ctx, showtimeID, req.Quantity)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.Purchases.WithLabelValues(outcomeCommitted).Inc()
	metrics.TicketsSold.Add(float64(order.Quantity))

	s.log.Info("Order committed",
		zap.String("order_id", order.ID.String()),
		zap.String("code", order.Code),
		zap.String("user_id", userID.String()),
		zap.String("showtime_id", showtimeID.String()),
		zap.Int("quantity", order.Quantity),
		zap.Int("seats_remaining", admission.Remaining()),
		zap.String("total", pricing.Display(order.Total)),
	)

	// 6. Announce, best effort
	s.publishCommitted(ctx, order, admission)

	return &response.PurchaseResponse{
		Order:          response.OrderToResponse(order),
		SeatsRemaining: admission.Remaining(),
	}, nil
}

// release undoes an admission whose order was not written. It outlives
// the request context so a client disconnect cannot leak seats.
func (s *purchaseService) release(ctx context.Context, showtimeID uuid.UUID, quantity int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
	defer cancel()

	if err := s.ledger.Release(ctx, showtimeID, quantity); err != nil {
		metrics.Rollbacks.WithLabelValues("failed").Inc()
		s.log.Error("Failed to release reservation, ledger is ahead of orders until rebuild",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
			zap.Int("quantity", quantity),
		)
		return
	}

	metrics.Rollbacks.WithLabelValues("released").Inc()
	s.log.Warn("Reservation released after failed order write",
		zap.String("showtime_id", showtimeID.String()),
		zap.Int("quantity", quantity),
	)
}

func (s *purchaseService) publishCommitted(ctx context.Context, order *entity.Order, admission reservation.Admission) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
	defer cancel()

	var addOnID *string
	if order.AddOnID != nil {
		id := order.AddOnID.String()
		addOnID = &id
	}

	event := OrderCommittedEvent{
		OrderID:     order.ID.String(),
		Code:        order.Code,
		UserID:      order.UserID.String(),
		ShowtimeID:  order.ShowtimeID.String(),
		TicketType:  string(order.TicketType),
		Quantity:    order.Quantity,
		AddOnID:     addOnID,
		AddOnQty:    order.AddOnQuantity,
		Total:       pricing.Display(order.Total),
		Remaining:   admission.Remaining(),
		CommittedAt: order.CreatedAt,
	}

	if err := s.events.Publish(ctx, RoutingKeyOrderCommitted, event); err != nil {
		s.log.Warn("Failed to publish order event",
			zap.Error(err),
			zap.String("code", order.Code),
		)
	}
}

func (s *purchaseService) ListMyOrders(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.OrderHistoryResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	details, err := s.repo.Order.FindDetailedByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user orders",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("page", req.Page),
			zap.Int("per_page", req.PerPage),
		)
		return nil, fmt.Errorf("get user orders: %w", err)
	}

	total, err := s.repo.Order.CountByUserID(ctx, userID)
	if err != nil {
		s.log.Error("Failed to count user orders", zap.Error(err))
		return nil, fmt.Errorf("count user orders: %w", err)
	}

	orders := make([]response.OrderHistoryResponse, len(details))
	for i, detail := range details {
		orders[i] = response.OrderDetailToResponse(detail)
	}

	return response.NewPaginatedResponse(orders, req.Page, limit, total), nil
}

// GetMyOrder returns one order of the user. Orders of other users are
// reported as not found.
func (s *purchaseService) GetMyOrder(ctx context.Context, userID uuid.UUID, orderID string) (*response.OrderResponse, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return nil, validationError("id", "Must be a valid UUID")
	}

	order, err := s.repo.Order.FindByID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get order", zap.Error(err), zap.String("order_id", id.String()))
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	if order == nil || order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}

	resp := response.OrderToResponse(order)
	return &resp, nil
}

func (s *purchaseService) Availability(ctx context.Context, showtimeID string) (*response.AvailabilityResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, validationError("id", "Must be a valid UUID")
	}

	snap, err := s.ledger.Snapshot(ctx, id)
	if errors.Is(err, reservation.ErrNotFound) {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot showtime %s: %w", id, err)
	}

	return &response.AvailabilityResponse{
		ShowtimeID: snap.ShowtimeID.String(),
		Capacity:   snap.Capacity,
		Committed:  snap.Committed,
		Available:  snap.Available,
		SoldOut:    snap.Available <= 0,
	}, nil
}

func (s *purchaseService) ListShowtimeOrders(ctx context.Context, showtimeID string) ([]response.OrderResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, validationError("id", "Must be a valid UUID")
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find showtime %s: %w", id, err)
	}
	if showtime == nil {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}

	orders, err := s.repo.Order.FindByShowtimeID(ctx, id)
	if err != nil {
		s.log.Error("Failed to get showtime orders",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("get showtime orders: %w", err)
	}

	resp := make([]response.OrderResponse, len(orders))
	for i, order := range orders {
		resp[i] = response.OrderToResponse(order)
	}
	return resp, nil
}

func (s *purchaseService) RebuildLedger(ctx context.Context) error {
	totals, err := s.repo.Order.SumQuantityByShowtime(ctx)
	if err != nil {
		return fmt.Errorf("load committed totals: %w", err)
	}

	if err := s.ledger.Rebuild(ctx, totals); err != nil {
		return fmt.Errorf("rebuild %s ledger: %w", s.ledger.Backend(), err)
	}

	s.log.Info("Capacity ledger ready",
		zap.String("backend", s.ledger.Backend()),
		zap.Int("showtimes", len(totals)),
	)
	return nil
}

// checkPurchaseRanges enforces the order limits independently of struct tags.
func checkPurchaseRanges(req *request.PurchaseRequest) error {
	if !pricing.TicketType(req.TicketType).Valid() {
		return validationError("ticket_type", "Must be one of: full, half")
	}
	if req.Quantity < 1 || req.Quantity > MaxTicketsPerOrder {
		return validationError("quantity", fmt.Sprintf("Must be between 1 and %d", MaxTicketsPerOrder))
	}
	if req.HasAddOn() && (req.AddOnQuantity < 1 || req.AddOnQuantity > MaxAddOnsPerOrder) {
		return validationError("addon_quantity", fmt.Sprintf("Must be between 1 and %d", MaxAddOnsPerOrder))
	}
	return nil
}

func admissionOutcome(err error) string {
	switch {
	case errors.Is(err, reservation.ErrSoldOut):
		return outcomeSoldOut
	case errors.Is(err, reservation.ErrInsufficientCapacity):
		return outcomeInsufficient
	case errors.Is(err, reservation.ErrLockTimeout):
		return outcomeLockTimeout
	case errors.Is(err, reservation.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, reservation.ErrInvalidQuantity):
		return outcomeInvalid
	default:
		return outcomeError
	}
}
