package usecase

import (
	"context"
	"fmt"
	"time"

	"cineweb/internal/data/repository"
	"cineweb/internal/dto/request"
	"cineweb/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService is the read-only view of movies, showtimes and add-ons.
// Catalog data is maintained outside this service.
type CatalogService interface {
	ListMovies(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.MovieResponse], error)
	ListUpcomingShowtimes(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ShowtimeResponse], error)
	GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeDetailResponse, error)
	ListAddOns(ctx context.Context) ([]response.AddOnResponse, error)
	ListRooms(ctx context.Context) ([]response.RoomResponse, error)
}

type catalogService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) CatalogService {
	return &catalogService{
		repo: repo,
		log:  log.With(zap.String("service", "catalog")),
		now:  time.Now,
	}
}

func (s *catalogService) ListMovies(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.MovieResponse], error) {
	limit := req.Limit()

	movies, err := s.repo.Movie.FindAll(ctx, limit, req.Offset())
	if err != nil {
		s.log.Error("Failed to list movies", zap.Error(err))
		return nil, fmt.Errorf("list movies: %w", err)
	}

	total, err := s.repo.Movie.CountAll(ctx)
	if err != nil {
		s.log.Error("Failed to count movies", zap.Error(err))
		return nil, fmt.Errorf("count movies: %w", err)
	}

	resp := make([]response.MovieResponse, len(movies))
	for i, movie := range movies {
		resp[i] = response.MovieToResponse(movie)
	}

	return response.NewPaginatedResponse(resp, req.Page, limit, total), nil
}

func (s *catalogService) ListUpcomingShowtimes(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ShowtimeResponse], error) {
	limit := req.Limit()
	from := s.now()

	showtimes, err := s.repo.Showtime.FindUpcoming(ctx, from, limit, req.Offset())
	if err != nil {
		s.log.Error("Failed to list upcoming showtimes", zap.Error(err))
		return nil, fmt.Errorf("list upcoming showtimes: %w", err)
	}

	total, err := s.repo.Showtime.CountUpcoming(ctx, from)
	if err != nil {
		s.log.Error("Failed to count upcoming showtimes", zap.Error(err))
		return nil, fmt.Errorf("count upcoming showtimes: %w", err)
	}

	resp := make([]response.ShowtimeResponse, len(showtimes))
	for i, showtime := range showtimes {
		resp[i] = response.ShowtimeToResponse(showtime)
	}

	return response.NewPaginatedResponse(resp, req.Page, limit, total), nil
}

func (s *catalogService) GetShowtime(ctx context.Context, showtimeID string) (*response.ShowtimeDetailResponse, error) {
	id, err := uuid.Parse(showtimeID)
	if err != nil {
		return nil, validationError("id", "Must be a valid UUID")
	}

	showtime, err := s.repo.Showtime.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find showtime %s: %w", id, err)
	}
	if showtime == nil {
		return nil, fmt.Errorf("showtime %s: %w", id, ErrNotFound)
	}

	room, err := s.repo.Room.FindByID(ctx, showtime.RoomID)
	if err != nil {
		return nil, fmt.Errorf("find room %s: %w", showtime.RoomID, err)
	}
	if room == nil {
		return nil, fmt.Errorf("room %s: %w", showtime.RoomID, ErrNotFound)
	}

	detail := &response.ShowtimeDetailResponse{
		ShowtimeResponse: response.ShowtimeToResponse(showtime),
		Room:             response.RoomToResponse(room),
	}

	// movie is display-only, a missing one does not fail the lookup
	movie, err := s.repo.Movie.FindByID(ctx, showtime.MovieID)
	if err != nil {
		s.log.Warn("Failed to load movie for showtime",
			zap.Error(err),
			zap.String("showtime_id", id.String()))
	}
	if movie != nil {
		m := response.MovieToResponse(movie)
		detail.Movie = &m
	}

	return detail, nil
}

func (s *catalogService) ListAddOns(ctx context.Context) ([]response.AddOnResponse, error) {
	addOns, err := s.repo.AddOn.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list add-ons", zap.Error(err))
		return nil, fmt.Errorf("list add-ons: %w", err)
	}

	resp := make([]response.AddOnResponse, len(addOns))
	for i, addOn := range addOns {
		resp[i] = response.AddOnToResponse(addOn)
	}
	return resp, nil
}

func (s *catalogService) ListRooms(ctx context.Context) ([]response.RoomResponse, error) {
	rooms, err := s.repo.Room.FindAll(ctx)
	if err != nil {
		s.log.Error("Failed to list rooms", zap.Error(err))
		return nil, fmt.Errorf("list rooms: %w", err)
	}

	resp := make([]response.RoomResponse, len(rooms))
	for i, room := range rooms {
		resp[i] = response.RoomToResponse(room)
	}
	return resp, nil
}
