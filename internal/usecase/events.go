package usecase

import (
	"context"
	"time"
)

const RoutingKeyOrderCommitted = "order.committed"

// EventPublisher delivers domain events to other services.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

type OrderCommittedEvent struct {
	OrderID     string    `json:"order_id"`
	Code        string    `json:"code"`
	UserID      string    `json:"user_id"`
	ShowtimeID  string    `json:"showtime_id"`
	TicketType  string    `json:"ticket_type"`
	Quantity    int       `json:"quantity"`
	AddOnID     *string   `json:"addon_id,omitempty"`
	AddOnQty    int       `json:"addon_quantity"`
	Total       string    `json:"total"`
	Remaining   int       `json:"seats_remaining"`
	CommittedAt time.Time `json:"committed_at"`
}
