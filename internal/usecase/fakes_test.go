package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"cineweb/internal/data/entity"
	"cineweb/internal/data/repository"
	"cineweb/internal/reservation"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type fakeShowtimes struct {
	showtimes  map[uuid.UUID]*entity.Showtime
	capacities map[uuid.UUID]int
	err        error
}

func (f *fakeShowtimes) FindByID(_ context.Context, id uuid.UUID) (*entity.Showtime, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.showtimes[id], nil
}

func (f *fakeShowtimes) FindUpcoming(_ context.Context, from time.Time, limit, offset int) ([]*entity.Showtime, error) {
	var out []*entity.Showtime
	for _, s := range f.showtimes {
		if !s.StartsAt.Before(from) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeShowtimes) CountUpcoming(ctx context.Context, from time.Time) (int64, error) {
	out, _ := f.FindUpcoming(ctx, from, 0, 0)
	return int64(len(out)), nil
}

func (f *fakeShowtimes) CapacityOf(_ context.Context, id uuid.UUID) (int, bool, error) {
	c, ok := f.capacities[id]
	return c, ok, nil
}

type fakeAddOns struct {
	addOns map[uuid.UUID]*entity.AddOn
}

func (f *fakeAddOns) FindByID(_ context.Context, id uuid.UUID) (*entity.AddOn, error) {
	return f.addOns[id], nil
}

func (f *fakeAddOns) FindAll(context.Context) ([]*entity.AddOn, error) {
	var out []*entity.AddOn
	for _, a := range f.addOns {
		out = append(out, a)
	}
	return out, nil
}

type fakeOrders struct {
	mu           sync.Mutex
	orders       []*entity.Order
	createErr    error
	createCtxErr error
	onCreate     func()
}

func (f *fakeOrders) Create(ctx context.Context, order *entity.Order) error {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	f.createCtxErr = ctx.Err()
	f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeOrders) FindByID(_ context.Context, id uuid.UUID) (*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakeOrders) FindByShowtimeID(_ context.Context, showtimeID uuid.UUID) ([]*entity.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Order
	for _, o := range f.orders {
		if o.ShowtimeID == showtimeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) FindDetailedByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.OrderDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.OrderDetail
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, &entity.OrderDetail{Order: *o, MovieTitle: "Dune", RoomLabel: "Room 1"})
		}
	}
	return out, nil
}

func (f *fakeOrders) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	out, _ := f.FindDetailedByUserID(ctx, userID, 0, 0)
	return int64(len(out)), nil
}

func (f *fakeOrders) SumQuantityByShowtime(context.Context) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := make(map[uuid.UUID]int)
	for _, o := range f.orders {
		totals[o.ShowtimeID] += o.Quantity
	}
	return totals, nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

// spyLedger records calls and delegates to a real ledger.
type spyLedger struct {
	reservation.Ledger
	mu            sync.Mutex
	admits        int
	releases      []int
	releaseErr    error
	releaseCtxErr error
}

func (s *spyLedger) Admit(ctx context.Context, id uuid.UUID, quantity int) (reservation.Admission, error) {
	s.mu.Lock()
	s.admits++
	s.mu.Unlock()
	return s.Ledger.Admit(ctx, id, quantity)
}

func (s *spyLedger) Release(ctx context.Context, id uuid.UUID, quantity int) error {
	s.mu.Lock()
	s.releases = append(s.releases, quantity)
	s.releaseCtxErr = ctx.Err()
	s.mu.Unlock()
	if s.releaseErr != nil {
		return s.releaseErr
	}
	return s.Ledger.Release(ctx, id, quantity)
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	events []any
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	p.events = append(p.events, payload)
	return p.err
}

type fixture struct {
	showtimeID uuid.UUID
	addOnID    uuid.UUID
	showtimes  *fakeShowtimes
	orders     *fakeOrders
	ledger     *spyLedger
	events     *recordingPublisher
	repo       *repository.Repository
}

var errDB = errors.New("connection reset")

func newFixture(capacity int) *fixture {
	showtimeID, addOnID := uuid.New(), uuid.New()

	showtimes := &fakeShowtimes{
		showtimes: map[uuid.UUID]*entity.Showtime{
			showtimeID: {
				Base:      entity.Base{ID: showtimeID},
				MovieID:   uuid.New(),
				RoomID:    uuid.New(),
				StartsAt:  time.Now().Add(24 * time.Hour),
				BasePrice: decimal.RequireFromString("20.00"),
			},
		},
		capacities: map[uuid.UUID]int{showtimeID: capacity},
	}
	addOns := &fakeAddOns{addOns: map[uuid.UUID]*entity.AddOn{
		addOnID: {Base: entity.Base{ID: addOnID}, Name: "Popcorn", UnitPrice: decimal.RequireFromString("8.00")},
	}}
	orders := &fakeOrders{}

	return &fixture{
		showtimeID: showtimeID,
		addOnID:    addOnID,
		showtimes:  showtimes,
		orders:     orders,
		events:     &recordingPublisher{},
		repo: &repository.Repository{
			Showtime: showtimes,
			AddOn:    addOns,
			Order:    orders,
		},
	}
}
