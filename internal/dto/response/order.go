package response

import (
	"fmt"
	"time"

	"cineweb/internal/data/entity"
	"cineweb/internal/pricing"
)

type OrderResponse struct {
	ID             string            `json:"id"`
	Code           string            `json:"code"`
	UserID         string            `json:"user_id"`
	ShowtimeID     string            `json:"showtime_id"`
	TicketType     entity.TicketType `json:"ticket_type"`
	Quantity       int               `json:"quantity"`
	AddOnID        *string           `json:"addon_id,omitempty"`
	AddOnQuantity  int               `json:"addon_quantity"`
	TicketSubtotal string            `json:"ticket_subtotal"`
	AddOnSubtotal  string            `json:"addon_subtotal"`
	Total          string            `json:"total"`
	CreatedAt      time.Time         `json:"created_at"`
}

// PurchaseResponse is returned after a committed purchase.
type PurchaseResponse struct {
	Order          OrderResponse `json:"order"`
	SeatsRemaining int           `json:"seats_remaining"`
}

// OrderHistoryResponse is one row of the "my tickets" page.
type OrderHistoryResponse struct {
	OrderResponse
	MovieTitle string    `json:"movie_title"`
	RoomLabel  string    `json:"room_label"`
	StartsAt   time.Time `json:"starts_at"`
	AddOn      string    `json:"addon"`
}

// Helper converters
func OrderToResponse(order *entity.Order) OrderResponse {
	var addOnID *string
	if order.AddOnID != nil {
		id := order.AddOnID.String()
		addOnID = &id
	}

	return OrderResponse{
		ID:             order.ID.String(),
		Code:           order.Code,
		UserID:         order.UserID.String(),
		ShowtimeID:     order.ShowtimeID.String(),
		TicketType:     order.TicketType,
		Quantity:       order.Quantity,
		AddOnID:        addOnID,
		AddOnQuantity:  order.AddOnQuantity,
		TicketSubtotal: pricing.Display(order.TicketSubtotal),
		AddOnSubtotal:  pricing.Display(order.AddOnSubtotal),
		Total:          pricing.Display(order.Total),
		CreatedAt:      order.CreatedAt,
	}
}

func OrderDetailToResponse(detail *entity.OrderDetail) OrderHistoryResponse {
	return OrderHistoryResponse{
		OrderResponse: OrderToResponse(&detail.Order),
		MovieTitle:    detail.MovieTitle,
		RoomLabel:     detail.RoomLabel,
		StartsAt:      detail.StartsAt,
		AddOn:         DescribeAddOn(detail.AddOnName, detail.AddOnQuantity),
	}
}

// DescribeAddOn renders the add-on column, e.g. "2x Popcorn" or "None".
func DescribeAddOn(name *string, quantity int) string {
	if name == nil || quantity <= 0 {
		return "None"
	}
	return fmt.Sprintf("%dx %s", quantity, *name)
}
