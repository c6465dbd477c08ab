package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice_HalfTicketsWithAddOn(t *testing.T) {
	q := Price(Input{
		BasePrice: dec("20.00"),
		Type:      Half,
		Quantity:  4,
		AddOn:     &AddOnLine{UnitPrice: dec("8.00"), Quantity: 2},
	})

	assert.True(t, q.TicketUnitPrice.Equal(dec("10")))
	assert.True(t, q.TicketSubtotal.Equal(dec("40")))
	assert.True(t, q.AddOnSubtotal.Equal(dec("16")))
	assert.True(t, q.Total.Equal(dec("56")))
	assert.Equal(t, "56.00", Display(q.Total))
}

func TestPrice_FullTickets(t *testing.T) {
	q := Price(Input{BasePrice: dec("32.50"), Type: Full, Quantity: 3})

	assert.True(t, q.TicketSubtotal.Equal(dec("97.50")))
	assert.True(t, q.AddOnSubtotal.IsZero())
	assert.True(t, q.Total.Equal(dec("97.50")))
}

func TestPrice_HalfIsExactlyHalfOfFull(t *testing.T) {
	cases := []struct {
		base string
		qty  int
	}{
		{"19.99", 1},
		{"19.99", 7},
		{"0.01", 3},
		{"45.35", 20},
	}

	for _, tc := range cases {
		full := Price(Input{BasePrice: dec(tc.base), Type: Full, Quantity: tc.qty})
		half := Price(Input{BasePrice: dec(tc.base), Type: Half, Quantity: tc.qty})

		assert.True(t, half.TicketSubtotal.Mul(decimal.NewFromInt(2)).Equal(full.TicketSubtotal),
			"base %s qty %d", tc.base, tc.qty)
	}
}

func TestPrice_RoundsOnlyForDisplay(t *testing.T) {
	// 0.5 * 19.99 = 9.995, kept exact internally
	q := Price(Input{BasePrice: dec("19.99"), Type: Half, Quantity: 1})

	assert.True(t, q.Total.Equal(dec("9.995")))
	assert.Equal(t, "10.00", Display(q.Total))

	q = Price(Input{BasePrice: dec("19.99"), Type: Half, Quantity: 2})
	assert.Equal(t, "19.99", Display(q.Total))
}

func TestPrice_NoAddOnIgnoresQuantity(t *testing.T) {
	q := Price(Input{BasePrice: dec("10"), Type: Full, Quantity: 2, AddOn: nil})
	assert.True(t, q.AddOnSubtotal.IsZero())
	assert.True(t, q.Total.Equal(dec("20")))

	q = Price(Input{BasePrice: dec("10"), Type: Full, Quantity: 2, AddOn: &AddOnLine{UnitPrice: dec("5"), Quantity: 0}})
	assert.True(t, q.AddOnSubtotal.IsZero())
}

func TestTicketType(t *testing.T) {
	assert.True(t, Full.Valid())
	assert.True(t, Half.Valid())
	assert.False(t, TicketType("student").Valid())
	assert.True(t, TicketType("student").Factor().Equal(decimal.NewFromInt(1)))
}
