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

type AddOnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AddOn, error)
	FindAll(ctx context.Context) ([]*entity.AddOn, error)
}

type addOnRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewAddOnRepository(db database.PgxIface, log *zap.Logger) AddOnRepository {
	return &addOnRepository{
		db:  db,
		log: log.With(zap.String("repository", "addon")),
	}
}

func (r *addOnRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AddOn, error) {
	query := `
		SELECT id, name, unit_price, created_at, updated_at
		FROM addons
		WHERE id = $1
	`

	var addOn entity.AddOn
	err := r.db.QueryRow(ctx, query, id).Scan(
		&addOn.ID,
		&addOn.Name,
		&addOn.UnitPrice,
		&addOn.CreatedAt,
		&addOn.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find add-on by ID",
			zap.Error(err),
			zap.String("addon_id", id.String()),
		)
		return nil, fmt.Errorf("find add-on by ID %s: %w", id.String(), err)
	}

	return &addOn, nil
}

func (r *addOnRepository) FindAll(ctx context.Context) ([]*entity.AddOn, error) {
	query := `
		SELECT id, name, unit_price, created_at, updated_at
		FROM addons
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find add-ons", zap.Error(err))
		return nil, fmt.Errorf("find add-ons: %w", err)
	}
	defer rows.Close()

	var addOns []*entity.AddOn
	for rows.Next() {
		var addOn entity.AddOn
		if err := rows.Scan(
			&addOn.ID,
			&addOn.Name,
			&addOn.UnitPrice,
			&addOn.CreatedAt,
			&addOn.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan add-on row", zap.Error(err))
			return nil, fmt.Errorf("scan add-on row: %w", err)
		}
		addOns = append(addOns, &addOn)
	}

	return addOns, rows.Err()
}
