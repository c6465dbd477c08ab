package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const BackendMemory = "memory"

// MemoryLedger keeps committed totals in process memory. Each showtime has
// its own one-slot channel used as a lock, so waiting honours the context
// and unrelated showtimes never contend.
type MemoryLedger struct {
	source      CapacitySource
	lockTimeout time.Duration
	log         *zap.Logger

	mu    sync.Mutex // guards slots, never held while waiting on a slot
	slots map[uuid.UUID]*slot
}

type slot struct {
	lock      chan struct{}
	capacity  int
	resolved  bool
	committed int
}

func NewMemoryLedger(source CapacitySource, lockTimeout time.Duration, log *zap.Logger) *MemoryLedger {
	return &MemoryLedger{
		source:      source,
		lockTimeout: lockTimeout,
		log:         log.With(zap.String("ledger", BackendMemory)),
		slots:       make(map[uuid.UUID]*slot),
	}
}

func (l *MemoryLedger) Backend() string { return BackendMemory }

// lookup returns the slot of a showtime already seen, or nil.
func (l *MemoryLedger) lookup(showtimeID uuid.UUID) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.slots[showtimeID]
}

// ensureSlot returns the slot of showtimeID, adding an unresolved one if
// needed. Only used for ids known to exist, e.g. from the order store.
func (l *MemoryLedger) ensureSlot(showtimeID uuid.UUID) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[showtimeID]
	if !ok {
		s = &slot{lock: make(chan struct{}, 1)}
		l.slots[showtimeID] = s
	}
	return s
}

// slotFor returns the slot of showtimeID. A new slot is only added once
// the capacity source knows the showtime, so unknown ids leave no entry.
func (l *MemoryLedger) slotFor(ctx context.Context, showtimeID uuid.UUID) (*slot, error) {
	if s := l.lookup(showtimeID); s != nil {
		return s, nil
	}

	capacity, ok, err := l.source.CapacityOf(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("resolve capacity of showtime %s: %w", showtimeID, err)
	}
	if !ok {
		return nil, ErrNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	s, exists := l.slots[showtimeID]
	if !exists {
		// not yet visible to other goroutines, safe to fill without the slot lock
		s = &slot{lock: make(chan struct{}, 1), capacity: capacity, resolved: true}
		l.slots[showtimeID] = s
	}
	return s, nil
}

// acquire locks the slot of showtimeID, waiting at most lockTimeout.
func (l *MemoryLedger) acquire(ctx context.Context, showtimeID uuid.UUID) (*slot, error) {
	ctx, cancel := withLockTimeout(ctx, l.lockTimeout)
	defer cancel()

	s, err := l.slotFor(ctx, showtimeID)
	if err != nil {
		return nil, err
	}
	if err := s.lockCtx(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *slot) lockCtx(ctx context.Context) error {
	// fast path so an already expired context still gets a free slot checked
	select {
	case s.lock <- struct{}{}:
		return nil
	default:
	}

	select {
	case s.lock <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
	}
}

func (s *slot) unlock() { <-s.lock }

// resolve loads the room capacity once; rooms never change capacity.
// Caller holds the slot lock.
func (l *MemoryLedger) resolve(ctx context.Context, showtimeID uuid.UUID, s *slot) error {
	if s.resolved {
		return nil
	}

	capacity, ok, err := l.source.CapacityOf(ctx, showtimeID)
	if err != nil {
		return fmt.Errorf("resolve capacity of showtime %s: %w", showtimeID, err)
	}
	if !ok {
		return ErrNotFound
	}

	s.capacity = capacity
	s.resolved = true
	return nil
}

func (l *MemoryLedger) Admit(ctx context.Context, showtimeID uuid.UUID, quantity int) (Admission, error) {
	if quantity < 1 {
		return Admission{}, ErrInvalidQuantity
	}

	start := time.Now()
	defer observeAdmission(BackendMemory, start)

	s, err := l.acquire(ctx, showtimeID)
	if err != nil {
		if errors.Is(err, ErrLockTimeout) {
			l.log.Warn("Admission gave up waiting",
				zap.String("showtime_id", showtimeID.String()),
				zap.Int("quantity", quantity),
				zap.Error(err))
		}
		return Admission{}, err
	}
	defer s.unlock()

	if err := l.resolve(ctx, showtimeID, s); err != nil {
		return Admission{}, err
	}

	if err := admit(s.capacity, s.committed, quantity); err != nil {
		return Admission{}, err
	}

	s.committed += quantity

	return Admission{
		ShowtimeID: showtimeID,
		Quantity:   quantity,
		Committed:  s.committed,
		Capacity:   s.capacity,
	}, nil
}

func (l *MemoryLedger) Release(ctx context.Context, showtimeID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	// a showtime never admitted has nothing to give back
	s := l.lookup(showtimeID)
	if s == nil {
		return nil
	}

	// bounded by ctx only, not the lock timeout
	if err := s.lockCtx(ctx); err != nil {
		return err
	}
	defer s.unlock()

	s.committed = max(s.committed-quantity, 0)
	return nil
}

func (l *MemoryLedger) Snapshot(ctx context.Context, showtimeID uuid.UUID) (Availability, error) {
	s, err := l.acquire(ctx, showtimeID)
	if err != nil {
		return Availability{}, err
	}
	defer s.unlock()

	if err := l.resolve(ctx, showtimeID, s); err != nil {
		return Availability{}, err
	}

	return availability(showtimeID, s.capacity, s.committed), nil
}

func (l *MemoryLedger) Rebuild(ctx context.Context, committed map[uuid.UUID]int) error {
	l.mu.Lock()
	ids := make([]uuid.UUID, 0, len(l.slots)+len(committed))
	for id := range l.slots {
		ids = append(ids, id)
	}
	for id := range committed {
		if _, ok := l.slots[id]; !ok {
			ids = append(ids, id)
		}
	}
	l.mu.Unlock()

	for _, id := range ids {
		s := l.ensureSlot(id)
		if err := s.lockCtx(ctx); err != nil {
			return fmt.Errorf("rebuild showtime %s: %w", id, err)
		}
		s.committed = max(committed[id], 0)
		s.unlock()
	}

	l.log.Info("Ledger rebuilt", zap.Int("showtimes", len(committed)))
	return nil
}
