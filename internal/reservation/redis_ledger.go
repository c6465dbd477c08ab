package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const BackendRedis = "redis"

// Redis runs a script without interleaving other commands, so the check
// and the INCRBY below form one atomic admission per showtime key.
var admitScript = redis.NewScript(`
	local committed = tonumber(redis.call('GET', KEYS[1]) or '0')
	local capacity = tonumber(ARGV[1])
	local quantity = tonumber(ARGV[2])
	local available = capacity - committed

	if available <= 0 then
		return {0, available}
	end
	if quantity > available then
		return {1, available}
	end

	committed = redis.call('INCRBY', KEYS[1], quantity)
	return {2, committed}
`)

var releaseScript = redis.NewScript(`
	local committed = redis.call('DECRBY', KEYS[1], ARGV[1])
	if committed < 0 then
		redis.call('SET', KEYS[1], 0)
		committed = 0
	end
	return committed
`)

const (
	admitSoldOut = iota
	admitInsufficient
	admitOK
)

// RedisLedger keeps one counter per showtime so several service instances
// can share committed totals.
type RedisLedger struct {
	client      redis.UniversalClient
	source      CapacitySource
	prefix      string
	lockTimeout time.Duration
	log         *zap.Logger
}

func NewRedisLedger(client redis.UniversalClient, source CapacitySource, prefix string, lockTimeout time.Duration, log *zap.Logger) *RedisLedger {
	return &RedisLedger{
		client:      client,
		source:      source,
		prefix:      prefix,
		lockTimeout: lockTimeout,
		log:         log.With(zap.String("ledger", BackendRedis)),
	}
}

func (l *RedisLedger) Backend() string { return BackendRedis }

func (l *RedisLedger) key(showtimeID uuid.UUID) string {
	return fmt.Sprintf("%s:showtime:%s:committed", l.prefix, showtimeID)
}

func (l *RedisLedger) capacity(ctx context.Context, showtimeID uuid.UUID) (int, error) {
	capacity, ok, err := l.source.CapacityOf(ctx, showtimeID)
	if err != nil {
		return 0, fmt.Errorf("resolve capacity of showtime %s: %w", showtimeID, err)
	}
	if !ok {
		return 0, ErrNotFound
	}
	return capacity, nil
}

func (l *RedisLedger) Admit(ctx context.Context, showtimeID uuid.UUID, quantity int) (Admission, error) {
	if quantity < 1 {
		return Admission{}, ErrInvalidQuantity
	}

	start := time.Now()
	defer observeAdmission(BackendRedis, start)

	ctx, cancel := withLockTimeout(ctx, l.lockTimeout)
	defer cancel()

	capacity, err := l.capacity(ctx, showtimeID)
	if err != nil {
		return Admission{}, lockErr(ctx, err)
	}

	res, err := admitScript.Run(ctx, l.client, []string{l.key(showtimeID)}, capacity, quantity).Int64Slice()
	if err != nil {
		err = lockErr(ctx, fmt.Errorf("run admit script for %s: %w", showtimeID, err))
		l.log.Warn("Admission script failed",
			zap.String("showtime_id", showtimeID.String()),
			zap.Error(err))
		return Admission{}, err
	}
	if len(res) != 2 {
		return Admission{}, fmt.Errorf("admit script for %s: unexpected reply %v", showtimeID, res)
	}

	switch res[0] {
	case admitSoldOut:
		return Admission{}, ErrSoldOut
	case admitInsufficient:
		return Admission{}, &InsufficientCapacityError{Available: int(res[1]), Requested: quantity}
	}

	return Admission{
		ShowtimeID: showtimeID,
		Quantity:   quantity,
		Committed:  int(res[1]),
		Capacity:   capacity,
	}, nil
}

func (l *RedisLedger) Release(ctx context.Context, showtimeID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	// bounded by ctx only, not the lock timeout
	if err := releaseScript.Run(ctx, l.client, []string{l.key(showtimeID)}, quantity).Err(); err != nil {
		return lockErr(ctx, fmt.Errorf("release %d from %s: %w", quantity, showtimeID, err))
	}
	return nil
}

func (l *RedisLedger) Snapshot(ctx context.Context, showtimeID uuid.UUID) (Availability, error) {
	ctx, cancel := withLockTimeout(ctx, l.lockTimeout)
	defer cancel()

	capacity, err := l.capacity(ctx, showtimeID)
	if err != nil {
		return Availability{}, lockErr(ctx, err)
	}

	committed, err := l.client.Get(ctx, l.key(showtimeID)).Int()
	if errors.Is(err, redis.Nil) {
		committed = 0
	} else if err != nil {
		return Availability{}, lockErr(ctx, fmt.Errorf("read committed of %s: %w", showtimeID, err))
	}

	return availability(showtimeID, capacity, committed), nil
}

func (l *RedisLedger) Rebuild(ctx context.Context, totals map[uuid.UUID]int) error {
	pattern := l.prefix + ":showtime:*:committed"

	var stale []string
	iter := l.client.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		stale = append(stale, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan ledger keys: %w", err)
	}

	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(stale) > 0 {
			pipe.Del(ctx, stale...)
		}
		for showtimeID, total := range totals {
			pipe.Set(ctx, l.key(showtimeID), max(total, 0), 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("rebuild ledger keys: %w", err)
	}

	l.log.Info("Ledger rebuilt",
		zap.Int("showtimes", len(totals)),
		zap.Int("cleared", len(stale)))
	return nil
}
