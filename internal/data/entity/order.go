package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TicketType string

const (
	TicketTypeFull TicketType = "full"
	TicketTypeHalf TicketType = "half"
)

// Order is a committed ticket purchase. Orders are insert-only.
type Order struct {
	BaseSimple
	Code           string          `db:"code"`
	UserID         uuid.UUID       `db:"user_id"`
	ShowtimeID     uuid.UUID       `db:"showtime_id"`
	TicketType     TicketType      `db:"ticket_type"`
	Quantity       int             `db:"quantity"`
	AddOnID        *uuid.UUID      `db:"addon_id"`
	AddOnQuantity  int             `db:"addon_quantity"`
	TicketSubtotal decimal.Decimal `db:"ticket_subtotal"`
	AddOnSubtotal  decimal.Decimal `db:"addon_subtotal"`
	Total          decimal.Decimal `db:"total"`
}

// OrderDetail is an order joined with the catalog data shown in the
// purchase history.
type OrderDetail struct {
	Order
	MovieTitle string
	RoomLabel  string
	StartsAt   time.Time
	AddOnName  *string
}
