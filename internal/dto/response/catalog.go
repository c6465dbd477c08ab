package response

import (
	"time"

	"cineweb/internal/data/entity"
	"cineweb/internal/pricing"
)

type MovieResponse struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Synopsis          *string `json:"synopsis,omitempty"`
	DurationInMinutes int     `json:"duration_in_minutes"`
	Rating            *string `json:"rating,omitempty"`
	Genre             *string `json:"genre,omitempty"`
}

type RoomResponse struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

type ShowtimeResponse struct {
	ID        string    `json:"id"`
	MovieID   string    `json:"movie_id"`
	RoomID    string    `json:"room_id"`
	StartsAt  time.Time `json:"starts_at"`
	BasePrice string    `json:"base_price"`
}

// ShowtimeDetailResponse is what the purchase page shows before buying.
type ShowtimeDetailResponse struct {
	ShowtimeResponse
	Movie *MovieResponse `json:"movie,omitempty"`
	Room  RoomResponse   `json:"room"`
}

type AddOnResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
}

type AvailabilityResponse struct {
	ShowtimeID string `json:"showtime_id"`
	Capacity   int    `json:"capacity"`
	Committed  int    `json:"committed"`
	Available  int    `json:"available"`
	SoldOut    bool   `json:"sold_out"`
}

// Helper converters
func MovieToResponse(movie *entity.Movie) MovieResponse {
	return MovieResponse{
		ID:                movie.ID.String(),
		Title:             movie.Title,
		Synopsis:          movie.Synopsis,
		DurationInMinutes: movie.DurationInMinutes,
		Rating:            movie.Rating,
		Genre:             movie.Genre,
	}
}

func RoomToResponse(room *entity.Room) RoomResponse {
	return RoomResponse{
		ID:       room.ID.String(),
		Label:    room.Label,
		Capacity: room.Capacity,
	}
}

func ShowtimeToResponse(showtime *entity.Showtime) ShowtimeResponse {
	return ShowtimeResponse{
		ID:        showtime.ID.String(),
		MovieID:   showtime.MovieID.String(),
		RoomID:    showtime.RoomID.String(),
		StartsAt:  showtime.StartsAt,
		BasePrice: pricing.Display(showtime.BasePrice),
	}
}

func AddOnToResponse(addOn *entity.AddOn) AddOnResponse {
	return AddOnResponse{
		ID:        addOn.ID.String(),
		Name:      addOn.Name,
		UnitPrice: pricing.Display(addOn.UnitPrice),
	}
}
