package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineweb/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const BackendPostgres = "postgres"

// PostgresLedger keeps one showtime_ledgers row per showtime. Admission
// locks that row with SELECT ... FOR UPDATE, so the row lock is the
// per-showtime lock and the total survives restarts.
type PostgresLedger struct {
	db          database.PgxIface
	lockTimeout time.Duration
	log         *zap.Logger
}

func NewPostgresLedger(db database.PgxIface, lockTimeout time.Duration, log *zap.Logger) *PostgresLedger {
	return &PostgresLedger{
		db:          db,
		lockTimeout: lockTimeout,
		log:         log.With(zap.String("ledger", BackendPostgres)),
	}
}

func (l *PostgresLedger) Backend() string { return BackendPostgres }

// ensureRow creates the ledger row from the catalog on first use, seeded
// with the quantities already stored as orders.
const ensureLedgerRow = `
	INSERT INTO showtime_ledgers (showtime_id, capacity, committed)
	SELECT s.id, r.capacity,
	       COALESCE((SELECT SUM(o.quantity) FROM orders o WHERE o.showtime_id = s.id), 0)
	FROM showtimes s
	JOIN rooms r ON r.id = s.room_id
	WHERE s.id = $1
	ON CONFLICT (showtime_id) DO NOTHING
`

func (l *PostgresLedger) Admit(ctx context.Context, showtimeID uuid.UUID, quantity int) (Admission, error) {
	if quantity < 1 {
		return Admission{}, ErrInvalidQuantity
	}

	start := time.Now()
	defer observeAdmission(BackendPostgres, start)

	ctx, cancel := withLockTimeout(ctx, l.lockTimeout)
	defer cancel()

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return Admission{}, lockErr(ctx, fmt.Errorf("begin admission: %w", err))
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	if _, err := tx.Exec(ctx, ensureLedgerRow, showtimeID); err != nil {
		return Admission{}, lockErr(ctx, fmt.Errorf("ensure ledger row %s: %w", showtimeID, err))
	}

	var capacity, current int
	err = tx.QueryRow(ctx, `
		SELECT capacity, committed
		FROM showtime_ledgers
		WHERE showtime_id = $1
		FOR UPDATE
	`, showtimeID).Scan(&capacity, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Admission{}, ErrNotFound
	}
	if err != nil {
		err = lockErr(ctx, fmt.Errorf("lock ledger row %s: %w", showtimeID, err))
		l.log.Warn("Failed to lock ledger row",
			zap.String("showtime_id", showtimeID.String()),
			zap.Error(err))
		return Admission{}, err
	}

	if err := admit(capacity, current, quantity); err != nil {
		return Admission{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE showtime_ledgers
		SET committed = committed + $2, updated_at = NOW()
		WHERE showtime_id = $1
	`, showtimeID, quantity); err != nil {
		return Admission{}, lockErr(ctx, fmt.Errorf("increment ledger %s: %w", showtimeID, err))
	}

	if err := tx.Commit(ctx); err != nil {
		return Admission{}, lockErr(ctx, fmt.Errorf("commit admission %s: %w", showtimeID, err))
	}
	committed = true

	return Admission{
		ShowtimeID: showtimeID,
		Quantity:   quantity,
		Committed:  current + quantity,
		Capacity:   capacity,
	}, nil
}

func (l *PostgresLedger) Release(ctx context.Context, showtimeID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	// bounded by ctx only, not the lock timeout
	_, err := l.db.Exec(ctx, `
		UPDATE showtime_ledgers
		SET committed = GREATEST(committed - $2, 0), updated_at = NOW()
		WHERE showtime_id = $1
	`, showtimeID, quantity)
	if err != nil {
		return lockErr(ctx, fmt.Errorf("release %d from ledger %s: %w", quantity, showtimeID, err))
	}

	return nil
}

func (l *PostgresLedger) Snapshot(ctx context.Context, showtimeID uuid.UUID) (Availability, error) {
	ctx, cancel := withLockTimeout(ctx, l.lockTimeout)
	defer cancel()

	if _, err := l.db.Exec(ctx, ensureLedgerRow, showtimeID); err != nil {
		return Availability{}, lockErr(ctx, fmt.Errorf("ensure ledger row %s: %w", showtimeID, err))
	}

	var capacity, current int
	err := l.db.QueryRow(ctx, `
		SELECT capacity, committed FROM showtime_ledgers WHERE showtime_id = $1
	`, showtimeID).Scan(&capacity, &current)
	if errors.Is(err, pgx.ErrNoRows) {
		return Availability{}, ErrNotFound
	}
	if err != nil {
		return Availability{}, lockErr(ctx, fmt.Errorf("read ledger %s: %w", showtimeID, err))
	}

	return availability(showtimeID, capacity, current), nil
}

func (l *PostgresLedger) Rebuild(ctx context.Context, totals map[uuid.UUID]int) error {
	tx, err := l.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.Background())
		}
	}()

	// LOCK blocks admissions until the new totals are in place
	if _, err := tx.Exec(ctx, `LOCK TABLE showtime_ledgers IN EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("lock ledger table: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE showtime_ledgers SET committed = 0, updated_at = NOW()`); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}

	for showtimeID, total := range totals {
		_, err := tx.Exec(ctx, `
			INSERT INTO showtime_ledgers (showtime_id, capacity, committed)
			SELECT s.id, r.capacity, $2
			FROM showtimes s
			JOIN rooms r ON r.id = s.room_id
			WHERE s.id = $1
			ON CONFLICT (showtime_id) DO UPDATE
			SET committed = EXCLUDED.committed, updated_at = NOW()
		`, showtimeID, max(total, 0))
		if err != nil {
			return fmt.Errorf("rebuild ledger %s: %w", showtimeID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	committed = true

	l.log.Info("Ledger rebuilt", zap.Int("showtimes", len(totals)))
	return nil
}
