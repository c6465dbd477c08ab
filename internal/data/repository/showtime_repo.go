package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineweb/internal/data/entity"
	"cineweb/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ShowtimeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error)
	FindUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]*entity.Showtime, error)
	CountUpcoming(ctx context.Context, from time.Time) (int64, error)

	// CapacityOf resolves showtime -> room capacity for the capacity ledger.
	CapacityOf(ctx context.Context, showtimeID uuid.UUID) (int, bool, error)
}

type showtimeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewShowtimeRepository(db database.PgxIface, log *zap.Logger) ShowtimeRepository {
	return &showtimeRepository{
		db:  db,
		log: log.With(zap.String("repository", "showtime")),
	}
}

func (r *showtimeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Showtime, error) {
	query := `
		SELECT id, movie_id, room_id, starts_at, base_price, created_at, updated_at
		FROM showtimes
		WHERE id = $1
	`

	var showtime entity.Showtime
	err := r.db.QueryRow(ctx, query, id).Scan(
		&showtime.ID,
		&showtime.MovieID,
		&showtime.RoomID,
		&showtime.StartsAt,
		&showtime.BasePrice,
		&showtime.CreatedAt,
		&showtime.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find showtime by ID",
			zap.Error(err),
			zap.String("showtime_id", id.String()),
		)
		return nil, fmt.Errorf("find showtime by ID %s: %w", id.String(), err)
	}

	return &showtime, nil
}

func (r *showtimeRepository) FindUpcoming(ctx context.Context, from time.Time, limit, offset int) ([]*entity.Showtime, error) {
	query := `
		SELECT id, movie_id, room_id, starts_at, base_price, created_at, updated_at
		FROM showtimes
		WHERE starts_at >= $1
		ORDER BY starts_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, from, limit, offset)
	if err != nil {
		r.log.Error("Failed to find upcoming showtimes",
			zap.Error(err),
			zap.Time("from", from),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find upcoming showtimes: %w", err)
	}
	defer rows.Close()

	var showtimes []*entity.Showtime
	for rows.Next() {
		var showtime entity.Showtime
		if err := rows.Scan(
			&showtime.ID,
			&showtime.MovieID,
			&showtime.RoomID,
			&showtime.StartsAt,
			&showtime.BasePrice,
			&showtime.CreatedAt,
			&showtime.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan showtime row", zap.Error(err))
			return nil, fmt.Errorf("scan showtime row: %w", err)
		}
		showtimes = append(showtimes, &showtime)
	}

	return showtimes, rows.Err()
}

func (r *showtimeRepository) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM showtimes WHERE starts_at >= $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, from).Scan(&count); err != nil {
		r.log.Error("Failed to count upcoming showtimes", zap.Error(err))
		return 0, fmt.Errorf("count upcoming showtimes: %w", err)
	}

	return count, nil
}

func (r *showtimeRepository) CapacityOf(ctx context.Context, showtimeID uuid.UUID) (int, bool, error) {
	query := `
		SELECT r.capacity
		FROM showtimes s
		JOIN rooms r ON r.id = s.room_id
		WHERE s.id = $1
	`

	var capacity int
	err := r.db.QueryRow(ctx, query, showtimeID).Scan(&capacity)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		r.log.Error("Failed to resolve showtime capacity",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return 0, false, fmt.Errorf("resolve capacity of showtime %s: %w", showtimeID.String(), err)
	}

	return capacity, true, nil
}
