package entity

type Movie struct {
	Base
	Title             string  `db:"title"`
	Synopsis          *string `db:"synopsis"`
	DurationInMinutes int     `db:"duration_in_minutes"`
	Rating            *string `db:"rating"`
	Genre             *string `db:"genre"`
}
