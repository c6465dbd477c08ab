package repository

import (
	"context"
	"errors"
	"fmt"

	"cineweb/internal/data/entity"
	"cineweb/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Order, error)
	FindDetailedByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.OrderDetail, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// SumQuantityByShowtime returns committed tickets per showtime, used to
	// rebuild the capacity ledger.
	SumQuantityByShowtime(ctx context.Context) (map[uuid.UUID]int, error)
}

type orderRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewOrderRepository(db database.PgxIface, log *zap.Logger) OrderRepository {
	return &orderRepository{
		db:  db,
		log: log.With(zap.String("repository", "order")),
	}
}

const orderColumns = `id, code, user_id, showtime_id, ticket_type, quantity, addon_id, addon_quantity,
		       ticket_subtotal, addon_subtotal, total, created_at`

func (r *orderRepository) Create(ctx context.Context, order *entity.Order) error {
	query := `
		INSERT INTO orders (id, code, user_id, showtime_id, ticket_type, quantity, addon_id, addon_quantity,
		                    ticket_subtotal, addon_subtotal, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		order.ID,
		order.Code,
		order.UserID,
		order.ShowtimeID,
		order.TicketType,
		order.Quantity,
		order.AddOnID,
		order.AddOnQuantity,
		order.TicketSubtotal,
		order.AddOnSubtotal,
		order.Total,
		order.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create order",
			zap.Error(err),
			zap.String("code", order.Code),
			zap.String("showtime_id", order.ShowtimeID.String()),
		)
		return fmt.Errorf("create order %s: %w", order.Code, err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find order by ID",
			zap.Error(err),
			zap.String("order_id", id.String()),
		)
		return nil, fmt.Errorf("find order by ID %s: %w", id.String(), err)
	}

	return order, nil
}

func (r *orderRepository) FindByShowtimeID(ctx context.Context, showtimeID uuid.UUID) ([]*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE showtime_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, showtimeID)
	if err != nil {
		r.log.Error("Failed to find orders by showtime ID",
			zap.Error(err),
			zap.String("showtime_id", showtimeID.String()),
		)
		return nil, fmt.Errorf("find orders by showtime ID %s: %w", showtimeID.String(), err)
	}
	defer rows.Close()

	var orders []*entity.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.log.Error("Failed to scan order row", zap.Error(err))
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) FindDetailedByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.OrderDetail, error) {
	query := `
		SELECT o.id, o.code, o.user_id, o.showtime_id, o.ticket_type, o.quantity, o.addon_id, o.addon_quantity,
		       o.ticket_subtotal, o.addon_subtotal, o.total, o.created_at,
		       m.title, r.label, s.starts_at, a.name
		FROM orders o
		JOIN showtimes s ON s.id = o.showtime_id
		JOIN movies m ON m.id = s.movie_id
		JOIN rooms r ON r.id = s.room_id
		LEFT JOIN addons a ON a.id = o.addon_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find orders by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find orders by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var details []*entity.OrderDetail
	for rows.Next() {
		var d entity.OrderDetail
		if err := rows.Scan(
			&d.ID,
			&d.Code,
			&d.UserID,
			&d.ShowtimeID,
			&d.TicketType,
			&d.Quantity,
			&d.AddOnID,
			&d.AddOnQuantity,
			&d.TicketSubtotal,
			&d.AddOnSubtotal,
			&d.Total,
			&d.CreatedAt,
			&d.MovieTitle,
			&d.RoomLabel,
			&d.StartsAt,
			&d.AddOnName,
		); err != nil {
			r.log.Error("Failed to scan order detail row", zap.Error(err))
			return nil, fmt.Errorf("scan order detail row: %w", err)
		}
		details = append(details, &d)
	}

	return details, rows.Err()
}

func (r *orderRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM orders WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count orders by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count orders by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *orderRepository) SumQuantityByShowtime(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `SELECT showtime_id, SUM(quantity) FROM orders GROUP BY showtime_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to sum order quantities", zap.Error(err))
		return nil, fmt.Errorf("sum order quantities: %w", err)
	}
	defer rows.Close()

	totals := make(map[uuid.UUID]int)
	for rows.Next() {
		var showtimeID uuid.UUID
		var sum int64
		if err := rows.Scan(&showtimeID, &sum); err != nil {
			r.log.Error("Failed to scan order sum row", zap.Error(err))
			return nil, fmt.Errorf("scan order sum row: %w", err)
		}
		totals[showtimeID] = int(sum)
	}

	return totals, rows.Err()
}

func scanOrder(row pgx.Row) (*entity.Order, error) {
	var order entity.Order
	err := row.Scan(
		&order.ID,
		&order.Code,
		&order.UserID,
		&order.ShowtimeID,
		&order.TicketType,
		&order.Quantity,
		&order.AddOnID,
		&order.AddOnQuantity,
		&order.TicketSubtotal,
		&order.AddOnSubtotal,
		&order.Total,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
