package entity

import "github.com/shopspring/decimal"

// AddOn is a snack sold together with tickets.
type AddOn struct {
	Base
	Name      string          `db:"name"`
	UnitPrice decimal.Decimal `db:"unit_price"`
}
