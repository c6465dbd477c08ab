// Package pricing computes order totals from ticket type, quantity and an
// optional add-on line. All arithmetic is exact; rounding happens only when
// a Quote is rendered.
package pricing

import (
	"github.com/shopspring/decimal"
)

type TicketType string

const (
	Full TicketType = "full"
	Half TicketType = "half"
)

var halfFactor = decimal.RequireFromString("0.5")

func (t TicketType) Valid() bool {
	return t == Full || t == Half
}

// Factor is the multiplier applied to the showtime base price.
// Unknown types are rejected before pricing and fall back to 1.
func (t TicketType) Factor() decimal.Decimal {
	if t == Half {
		return halfFactor
	}
	return decimal.NewFromInt(1)
}

// AddOnLine is a selected add-on with its unit price.
type AddOnLine struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Input struct {
	BasePrice decimal.Decimal
	Type      TicketType
	Quantity  int
	AddOn     *AddOnLine // nil when no add-on was selected
}

type Quote struct {
	TicketUnitPrice decimal.Decimal
	TicketSubtotal  decimal.Decimal
	AddOnSubtotal   decimal.Decimal
	Total           decimal.Decimal
}

// Price is stateless and safe to call concurrently.
func Price(in Input) Quote {
	unit := in.BasePrice.Mul(in.Type.Factor())
	tickets := unit.Mul(decimal.NewFromInt(int64(in.Quantity)))

	addOn := decimal.Zero
	if in.AddOn != nil && in.AddOn.Quantity > 0 {
		addOn = in.AddOn.UnitPrice.Mul(decimal.NewFromInt(int64(in.AddOn.Quantity)))
	}

	return Quote{
		TicketUnitPrice: unit,
		TicketSubtotal:  tickets,
		AddOnSubtotal:   addOn,
		Total:           tickets.Add(addOn),
	}
}

// Display renders an amount with two decimal places.
func Display(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
