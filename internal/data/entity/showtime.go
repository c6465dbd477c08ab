package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Showtime struct {
	Base
	MovieID   uuid.UUID       `db:"movie_id"`
	RoomID    uuid.UUID       `db:"room_id"`
	StartsAt  time.Time       `db:"starts_at"`
	BasePrice decimal.Decimal `db:"base_price"`
}
