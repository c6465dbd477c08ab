package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cineweb/internal/dto/request"
	"cineweb/internal/reservation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) service() PurchaseService {
	f.ledger = &spyLedger{Ledger: reservation.NewMemoryLedger(f.showtimes, time.Second, zap.NewNop())}
	return NewPurchaseService(f.repo, f.ledger, f.events, zap.NewNop())
}

func (f *fixture) committed(t *testing.T) int {
	t.Helper()
	snap, err := f.ledger.Snapshot(context.Background(), f.showtimeID)
	require.NoError(t, err)
	return snap.Committed
}

func TestPurchase_CommitsPricedOrder(t *testing.T) {
	f := newFixture(50)
	svc := f.service()
	userID := uuid.New()

	resp, err := svc.Purchase(context.Background(), userID, &request.PurchaseRequest{
		ShowtimeID:    f.showtimeID.String(),
		TicketType:    "half",
		Quantity:      4,
		AddOnID:       f.addOnID.String(),
		AddOnQuantity: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "40.00", resp.Order.TicketSubtotal)
	assert.Equal(t, "16.00", resp.Order.AddOnSubtotal)
	assert.Equal(t, "56.00", resp.Order.Total)
	assert.Equal(t, 46, resp.SeatsRemaining)
	assert.Equal(t, userID.String(), resp.Order.UserID)
	assert.Regexp(t, `^TKT-\d{8}-\d{6}-[0-9A-F]{8}$`, resp.Order.Code)

	require.Equal(t, 1, f.orders.count())
	assert.Equal(t, 4, f.committed(t))

	require.Len(t, f.events.keys, 1)
	assert.Equal(t, RoutingKeyOrderCommitted, f.events.keys[0])
	event, ok := f.events.events[0].(OrderCommittedEvent)
	require.True(t, ok)
	assert.Equal(t, "56.00", event.Total)
	assert.Equal(t, 46, event.Remaining)
}

func TestPurchase_StrayAddOnQuantityIgnored(t *testing.T) {
	f := newFixture(50)
	svc := f.service()

	resp, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID:    f.showtimeID.String(),
		TicketType:    "full",
		Quantity:      2,
		AddOnQuantity: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "0.00", resp.Order.AddOnSubtotal)
	assert.Equal(t, "40.00", resp.Order.Total)
	assert.Equal(t, 0, resp.Order.AddOnQuantity)
	assert.Nil(t, resp.Order.AddOnID)
}

func TestPurchase_ValidationErrors(t *testing.T) {
	f := newFixture(50)
	svc := f.service()

	cases := []struct {
		name  string
		req   request.PurchaseRequest
		field string
	}{
		{"quantity zero", request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "full", Quantity: 0}, "quantity"},
		{"quantity too large", request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "full", Quantity: 21}, "quantity"},
		{"unknown ticket type", request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "student", Quantity: 1}, "ticket_type"},
		{"bad showtime id", request.PurchaseRequest{ShowtimeID: "abc", TicketType: "full", Quantity: 1}, "showtime_id"},
		{"add-on without quantity", request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "full", Quantity: 1, AddOnID: f.addOnID.String()}, "addon_quantity"},
		{"add-on quantity too large", request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "full", Quantity: 1, AddOnID: f.addOnID.String(), AddOnQuantity: 21}, "addon_quantity"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.Purchase(context.Background(), uuid.New(), &req)

			require.ErrorIs(t, err, ErrValidation)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tc.field)
		})
	}

	assert.Zero(t, f.ledger.admits)
	assert.Zero(t, f.orders.count())
}

func TestPurchase_NotFound(t *testing.T) {
	f := newFixture(50)
	svc := f.service()

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: uuid.NewString(),
		TicketType: "full",
		Quantity:   1,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID:    f.showtimeID.String(),
		TicketType:    "full",
		Quantity:      1,
		AddOnID:       uuid.NewString(),
		AddOnQuantity: 1,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Zero(t, f.ledger.admits, "nothing is reserved for unresolved references")
	assert.Zero(t, f.orders.count())
}

func TestPurchase_RoomMissingIsNotFound(t *testing.T) {
	f := newFixture(50)
	delete(f.showtimes.capacities, f.showtimeID)
	svc := f.service()

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   1,
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.orders.count())
}

func TestPurchase_RejectionSkipsPricingAndWrite(t *testing.T) {
	f := newFixture(10)
	svc := f.service()
	require.NoError(t, f.ledger.Rebuild(context.Background(), map[uuid.UUID]int{f.showtimeID: 7}))

	req := request.PurchaseRequest{ShowtimeID: f.showtimeID.String(), TicketType: "full", Quantity: 5}

	_, err := svc.Purchase(context.Background(), uuid.New(), &req)
	require.ErrorIs(t, err, reservation.ErrInsufficientCapacity)

	var capErr *reservation.InsufficientCapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 3, capErr.Available)

	// same request again, same answer
	_, again := svc.Purchase(context.Background(), uuid.New(), &req)
	assert.Equal(t, err.Error(), again.Error())

	assert.Zero(t, f.orders.count())
	assert.Empty(t, f.events.keys)
	assert.Equal(t, 7, f.committed(t))
}

func TestPurchase_SoldOut(t *testing.T) {
	f := newFixture(10)
	svc := f.service()
	require.NoError(t, f.ledger.Rebuild(context.Background(), map[uuid.UUID]int{f.showtimeID: 10}))

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   1,
	})
	assert.ErrorIs(t, err, reservation.ErrSoldOut)
	assert.Zero(t, f.orders.count())
}

func TestPurchase_PersistenceFailureReleasesSeats(t *testing.T) {
	f := newFixture(10)
	f.orders.createErr = errDB
	svc := f.service()

	// client goes away while the order is being written
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orders.onCreate = cancel

	_, err := svc.Purchase(ctx, uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   4,
	})
	require.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errDB)

	assert.Equal(t, []int{4}, f.ledger.releases)
	assert.Equal(t, 0, f.committed(t))
	assert.Empty(t, f.events.keys)
	assert.NoError(t, f.ledger.releaseCtxErr, "release must not inherit the request cancellation")
}

func TestPurchase_ClientDisconnectDuringWriteKeepsOrder(t *testing.T) {
	f := newFixture(10)
	svc := f.service()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orders.onCreate = cancel

	resp, err := svc.Purchase(ctx, uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.SeatsRemaining)

	assert.NoError(t, f.orders.createCtxErr, "order write must not inherit the request cancellation")
	assert.Equal(t, 1, f.orders.count())
	assert.Empty(t, f.ledger.releases)
	assert.Equal(t, 3, f.committed(t))
}

func TestPurchase_FailedReleaseStillReportsPersistence(t *testing.T) {
	f := newFixture(10)
	f.orders.createErr = errDB
	svc := f.service()
	f.ledger.releaseErr = errors.New("ledger unavailable")

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   2,
	})
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestPurchase_PublishFailureDoesNotFailPurchase(t *testing.T) {
	f := newFixture(10)
	f.events.err = errors.New("broker down")
	svc := f.service()

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   1,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, f.orders.count())
}

func TestPurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	const capacity = 30
	f := newFixture(capacity)
	svc := f.service()

	var wg sync.WaitGroup
	for n := 0; n < 60; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
				ShowtimeID: f.showtimeID.String(),
				TicketType: "full",
				Quantity:   2,
			})
		}()
	}
	wg.Wait()

	totals, err := f.orders.SumQuantityByShowtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, capacity, totals[f.showtimeID])
	assert.Equal(t, capacity, f.committed(t))
}

func TestRebuildLedger_FromOrderStore(t *testing.T) {
	f := newFixture(10)
	svc := f.service()

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   6,
	})
	require.NoError(t, err)

	// a fresh ledger, as after a restart
	svc = f.service()
	assert.Equal(t, 0, f.committed(t))

	require.NoError(t, svc.RebuildLedger(context.Background()))
	assert.Equal(t, 6, f.committed(t))
}

func TestAvailability(t *testing.T) {
	f := newFixture(10)
	svc := f.service()

	_, err := svc.Purchase(context.Background(), uuid.New(), &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   10,
	})
	require.NoError(t, err)

	resp, err := svc.Availability(context.Background(), f.showtimeID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Available)
	assert.True(t, resp.SoldOut)

	_, err = svc.Availability(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Availability(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestListMyOrdersAndShowtimeOrders(t *testing.T) {
	f := newFixture(10)
	svc := f.service()
	me, other := uuid.New(), uuid.New()

	for _, user := range []uuid.UUID{me, me, other} {
		_, err := svc.Purchase(context.Background(), user, &request.PurchaseRequest{
			ShowtimeID: f.showtimeID.String(),
			TicketType: "full",
			Quantity:   1,
		})
		require.NoError(t, err)
	}

	mine, err := svc.ListMyOrders(context.Background(), me, &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, mine.Data, 2)
	assert.Equal(t, int64(2), mine.Pagination.Total)
	assert.Equal(t, "None", mine.Data[0].AddOn)

	all, err := svc.ListShowtimeOrders(context.Background(), f.showtimeID.String())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = svc.ListShowtimeOrders(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetMyOrder_OnlyOwnOrders(t *testing.T) {
	f := newFixture(10)
	svc := f.service()
	owner := uuid.New()

	resp, err := svc.Purchase(context.Background(), owner, &request.PurchaseRequest{
		ShowtimeID: f.showtimeID.String(),
		TicketType: "full",
		Quantity:   2,
	})
	require.NoError(t, err)

	order, err := svc.GetMyOrder(context.Background(), owner, resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Order.Code, order.Code)
	assert.Equal(t, "40.00", order.Total)

	_, err = svc.GetMyOrder(context.Background(), uuid.New(), resp.Order.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetMyOrder(context.Background(), owner, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetMyOrder(context.Background(), owner, "nope")
	assert.ErrorIs(t, err, ErrValidation)
}
