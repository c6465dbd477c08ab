package entity

// Room is a screening room. Capacity is the seat count sold per showtime.
type Room struct {
	Base
	Label    string `db:"label"`
	Capacity int    `db:"capacity"`
}
