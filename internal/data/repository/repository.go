package repository

import (
	"cineweb/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User     UserRepository
	Movie    MovieRepository
	Room     RoomRepository
	Showtime ShowtimeRepository
	AddOn    AddOnRepository
	Order    OrderRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(db, log),
		Movie:    NewMovieRepository(db, log),
		Room:     NewRoomRepository(db, log),
		Showtime: NewShowtimeRepository(db, log),
		AddOn:    NewAddOnRepository(db, log),
		Order:    NewOrderRepository(db, log),
	}
}
