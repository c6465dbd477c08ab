// Package reservation tracks how many tickets each showtime has committed and
// admits or rejects new quantities against the room capacity.
package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cineweb/pkg/metrics"

	"github.com/google/uuid"
)

var (
	ErrSoldOut              = errors.New("showtime is sold out")
	ErrInsufficientCapacity = errors.New("not enough seats left")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrNotFound             = errors.New("showtime not found")
	ErrLockTimeout          = errors.New("timed out waiting for showtime")
)

// InsufficientCapacityError reports how many seats are still available.
// errors.Is(err, ErrInsufficientCapacity) holds for it.
type InsufficientCapacityError struct {
	Available int
	Requested int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("only %d seats left, %d requested", e.Available, e.Requested)
}

func (e *InsufficientCapacityError) Is(target error) bool {
	return target == ErrInsufficientCapacity
}

// Admission is the result of a successful Admit.
type Admission struct {
	ShowtimeID uuid.UUID
	Quantity   int
	Committed  int // committed total after this admission
	Capacity   int
}

func (a Admission) Remaining() int {
	return a.Capacity - a.Committed
}

type Availability struct {
	ShowtimeID uuid.UUID
	Capacity   int
	Committed  int
	Available  int
}

// CapacitySource resolves the seating capacity of a showtime's room.
// ok is false when the showtime or its room does not exist.
type CapacitySource interface {
	CapacityOf(ctx context.Context, showtimeID uuid.UUID) (capacity int, ok bool, err error)
}

// Ledger owns the committed ticket total of every showtime. All reads and
// writes of that total go through it.
type Ledger interface {
	// Admit checks quantity against the remaining capacity and reserves it
	// in one indivisible step per showtime.
	Admit(ctx context.Context, showtimeID uuid.UUID, quantity int) (Admission, error)

	// Release gives back a reservation whose order could not be written.
	// The committed total never drops below zero. Waits as long as ctx
	// allows, not the lock timeout.
	Release(ctx context.Context, showtimeID uuid.UUID, quantity int) error

	Snapshot(ctx context.Context, showtimeID uuid.UUID) (Availability, error)

	// Rebuild replaces all committed totals, e.g. with sums from the order
	// store on startup. Showtimes missing from committed reset to zero.
	Rebuild(ctx context.Context, committed map[uuid.UUID]int) error

	Backend() string
}

// admit applies the admission rule to a consistent (capacity, committed) pair.
func admit(capacity, committed, quantity int) error {
	available := capacity - committed
	if available <= 0 {
		return ErrSoldOut
	}
	if quantity > available {
		return &InsufficientCapacityError{Available: available, Requested: quantity}
	}
	return nil
}

func availability(showtimeID uuid.UUID, capacity, committed int) Availability {
	return Availability{
		ShowtimeID: showtimeID,
		Capacity:   capacity,
		Committed:  committed,
		Available:  max(capacity-committed, 0),
	}
}

// withLockTimeout bounds how long a caller may wait on a busy showtime.
func withLockTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// lockErr turns a context failure while waiting into ErrLockTimeout.
func lockErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, ctxErr)
	}
	return err
}

func observeAdmission(backend string, start time.Time) {
	metrics.AdmissionDuration.WithLabelValues(backend).Observe(time.Since(start).Seconds())
}
