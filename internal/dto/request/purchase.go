package request

type PurchaseRequest struct {
	ShowtimeID string `json:"showtime_id" validate:"required,uuid"`
	TicketType string `json:"ticket_type" validate:"required,oneof=full half"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=20"`

	// Add-on (snack) is optional; its quantity is required only with it.
	AddOnID       string `json:"addon_id,omitempty" validate:"omitempty,uuid"`
	AddOnQuantity int    `json:"addon_quantity,omitempty" validate:"required_with=AddOnID,omitempty,min=1,max=20"`
}

// Normalize drops a stray add-on quantity sent without an add-on.
func (r *PurchaseRequest) Normalize() {
	if r.AddOnID == "" {
		r.AddOnQuantity = 0
	}
}

func (r PurchaseRequest) HasAddOn() bool {
	return r.AddOnID != ""
}
