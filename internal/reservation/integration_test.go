//go:build integration

package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cineweb/internal/data/repository"
	"cineweb/pkg/database"
	"cineweb/pkg/utils"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testDB    database.PgxIface
	testRedis *redis.Client
)

func TestMain(m *testing.M) {
	var err error
	testDB, err = database.InitDB(utils.DatabaseConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnv("TEST_DB_PORT", "5432"),
		Name:     getEnv("TEST_DB_NAME", "cineweb_test"),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		MaxConns: 20,
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.Migrate(context.Background(), testDB); err != nil {
		log.Fatalf("failed to migrate test database: %v", err)
	}

	testRedis = redis.NewClient(&redis.Options{Addr: getEnv("TEST_REDIS_ADDR", "localhost:6379")})

	code := m.Run()

	testRedis.Close()
	testDB.Close()
	os.Exit(code)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// seedShowtime inserts a movie, a room of the given capacity and a showtime.
func seedShowtime(t *testing.T, capacity int) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	movieID, roomID, showtimeID := uuid.New(), uuid.New(), uuid.New()

	_, err := testDB.Exec(ctx, `INSERT INTO movies (id, title, duration_in_minutes) VALUES ($1, 'Test', 120)`, movieID)
	require.NoError(t, err)
	_, err = testDB.Exec(ctx, `INSERT INTO rooms (id, label, capacity) VALUES ($1, $2, $3)`, roomID, fmt.Sprintf("Room %d", capacity), capacity)
	require.NoError(t, err)
	_, err = testDB.Exec(ctx, `INSERT INTO showtimes (id, movie_id, room_id, starts_at, base_price) VALUES ($1, $2, $3, $4, 20.00)`,
		showtimeID, movieID, roomID, time.Now().Add(48*time.Hour))
	require.NoError(t, err)

	return showtimeID
}

func ledgers(t *testing.T) map[string]Ledger {
	t.Helper()
	log := zap.NewNop()
	source := repository.NewShowtimeRepository(testDB, log)
	prefix := "cineweb-test:" + uuid.NewString()

	return map[string]Ledger{
		BackendMemory:   NewMemoryLedger(source, 2*time.Second, log),
		BackendPostgres: NewPostgresLedger(testDB, 2*time.Second, log),
		BackendRedis:    NewRedisLedger(testRedis, source, prefix, 2*time.Second, log),
	}
}

func TestLedgers_Scenarios(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			a := seedShowtime(t, 50)
			adm, err := l.Admit(ctx, a, 10)
			require.NoError(t, err)
			assert.Equal(t, 10, adm.Committed)

			b := seedShowtime(t, 10)
			_, err = l.Admit(ctx, b, 10)
			require.NoError(t, err)
			_, err = l.Admit(ctx, b, 1)
			assert.ErrorIs(t, err, ErrSoldOut)

			c := seedShowtime(t, 10)
			_, err = l.Admit(ctx, c, 7)
			require.NoError(t, err)
			_, err = l.Admit(ctx, c, 5)
			var capErr *InsufficientCapacityError
			require.True(t, errors.As(err, &capErr))
			assert.Equal(t, 3, capErr.Available)

			require.NoError(t, l.Release(ctx, c, 7))
			snap, err := l.Snapshot(ctx, c)
			require.NoError(t, err)
			assert.Equal(t, 0, snap.Committed)

			_, err = l.Admit(ctx, uuid.New(), 1)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLedgers_ConcurrentAdmissions(t *testing.T) {
	const capacity = 40

	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			showtimeID := seedShowtime(t, capacity)

			var wg sync.WaitGroup
			var admitted atomic.Int64
			for i := 0; i < 60; i++ {
				wg.Add(1)
				go func(qty int) {
					defer wg.Done()
					if _, err := l.Admit(context.Background(), showtimeID, qty); err == nil {
						admitted.Add(int64(qty))
					}
				}(i%2 + 1)
			}
			wg.Wait()

			snap, err := l.Snapshot(context.Background(), showtimeID)
			require.NoError(t, err)
			assert.LessOrEqual(t, snap.Committed, capacity)
			assert.Equal(t, int64(snap.Committed), admitted.Load())
		})
	}
}

func TestLedgers_Rebuild(t *testing.T) {
	for name, l := range ledgers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			a, b := seedShowtime(t, 10), seedShowtime(t, 10)

			_, err := l.Admit(ctx, a, 4)
			require.NoError(t, err)

			require.NoError(t, l.Rebuild(ctx, map[uuid.UUID]int{b: 9}))

			snapA, err := l.Snapshot(ctx, a)
			require.NoError(t, err)
			assert.Equal(t, 0, snapA.Committed)

			_, err = l.Admit(ctx, b, 2)
			var capErr *InsufficientCapacityError
			require.True(t, errors.As(err, &capErr))
			assert.Equal(t, 1, capErr.Available)
		})
	}
}
