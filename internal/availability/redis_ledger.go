package availability

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/constants"
	"tablewise/internal/shared/validation"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lua script seeding a whole business date, once.
var luaSeedDate = redis.NewScript(`
-- KEYS[1] = ledger hash
-- ARGV[1] = expire-at unix seconds
-- ARGV[2..N] = slot, consumed pairs
if redis.call("HEXISTS", KEYS[1], "_seeded") == 1 then
    return 0
end
for i = 2, #ARGV, 2 do
    redis.call("HSET", KEYS[1], ARGV[i], ARGV[i + 1])
end
redis.call("HSET", KEYS[1], "_seeded", "1")
redis.call("EXPIREAT", KEYS[1], tonumber(ARGV[1]))
return 1
`)

// Lua script for atomic check-and-increment
var luaReserve = redis.NewScript(`
-- KEYS[1] = ledger hash
-- ARGV[1] = slot, ARGV[2] = party size, ARGV[3] = capacity
local used = tonumber(redis.call("HGET", KEYS[1], ARGV[1]) or "0")
local party = tonumber(ARGV[2])
if used + party > tonumber(ARGV[3]) then
    return {0, used}
end
return {1, redis.call("HINCRBY", KEYS[1], ARGV[1], party)}
`)

// Lua script for atomic decrement. Refuses to go below zero.
var luaRelease = redis.NewScript(`
-- KEYS[1] = ledger hash
-- ARGV[1] = slot, ARGV[2] = party size
local used = tonumber(redis.call("HGET", KEYS[1], ARGV[1]) or "0")
local party = tonumber(ARGV[2])
if used < party then
    return {0, used}
end
return {1, redis.call("HINCRBY", KEYS[1], ARGV[1], -party)}
`)

// Lua script deleting a lock only if we still own it
var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

const lockRetryInterval = 10 * time.Millisecond

// RedisLedger keeps one hash per restaurant and business date. A per-slot lock
// serializes reserve, commit and counter update for the same slot across processes.
type RedisLedger struct {
	client    *redis.Client
	recounter Recounter
	lockTTL   time.Duration
	lockWait  time.Duration
	log       *logger.Logger
}

func NewRedisLedger(client *redis.Client, recounter Recounter, lockTTL, lockWait time.Duration) *RedisLedger {
	if lockTTL <= 0 {
		lockTTL = 5 * time.Second
	}
	if lockWait <= 0 {
		lockWait = 2 * time.Second
	}
	return &RedisLedger{
		client:    client,
		recounter: recounter,
		lockTTL:   lockTTL,
		lockWait:  lockWait,
		log:       logger.GetDefault(),
	}
}

// PreloadScripts loads the Lua scripts so the first booking does not pay for it.
func (l *RedisLedger) PreloadScripts(ctx context.Context) error {
	for _, script := range []*redis.Script{luaSeedDate, luaReserve, luaRelease, luaUnlock} {
		if err := script.Load(ctx, l.client).Err(); err != nil {
			return fmt.Errorf("failed to load ledger script: %w", err)
		}
	}
	return nil
}

func (l *RedisLedger) Consumed(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error) {
	if err := l.ensureSeeded(ctx, restaurantID, date); err != nil {
		return nil, err
	}

	raw, err := l.client.HGetAll(ctx, constants.BuildLedgerKey(restaurantID.String(), date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	consumed := make(map[string]int, len(raw))
	for field, value := range raw {
		if field == constants.LEDGER_SEEDED_FIELD {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt ledger field %s: %w", field, err)
		}
		consumed[field] = n
	}
	return consumed, nil
}

func (l *RedisLedger) Reserve(ctx context.Context, key SlotKey, partySize, capacity int, commit CommitFunc) (int, error) {
	unlock, err := l.lock(ctx, key)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := l.ensureSeeded(ctx, key.RestaurantID, key.Date); err != nil {
		return 0, err
	}

	hash := constants.BuildLedgerKey(key.RestaurantID.String(), key.Date)
	ok, value, err := runCounterScript(ctx, l.client, luaReserve, hash, key.Time, partySize, capacity)
	if err != nil {
		return 0, fmt.Errorf("failed to reserve capacity: %w", err)
	}
	if !ok {
		left := remaining(capacity, value)
		return left, &apperrors.CapacityError{Slot: key.String(), Available: left, Requested: partySize}
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			// Undo on a fresh context so a cancelled request cannot leave the increment behind.
			undoCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.lockTTL)
			defer cancel()
			if undoErr := l.client.HIncrBy(undoCtx, hash, key.Time, int64(-partySize)).Err(); undoErr != nil {
				l.log.ErrorContext(ctx, "failed to undo ledger reservation",
					"slot", key.String(), "error", undoErr.Error())
			}
			return 0, err
		}
	}
	return capacity - value, nil
}

func (l *RedisLedger) Release(ctx context.Context, key SlotKey, partySize int, commit CommitFunc) (int, error) {
	unlock, err := l.lock(ctx, key)
	if err != nil {
		return 0, err
	}
	defer unlock()

	if err := l.ensureSeeded(ctx, key.RestaurantID, key.Date); err != nil {
		return 0, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return 0, err
		}
	}

	hash := constants.BuildLedgerKey(key.RestaurantID.String(), key.Date)
	ok, value, err := runCounterScript(ctx, l.client, luaRelease, hash, key.Time, partySize, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to release capacity: %w", err)
	}
	if ok {
		return value, nil
	}

	actual := 0
	if l.recounter != nil {
		if actual, err = l.recounter.SumActive(ctx, key); err != nil {
			return 0, fmt.Errorf("failed to recount drifted entry %s: %w", key, err)
		}
	}
	if err := l.client.HSet(ctx, hash, key.Time, actual).Err(); err != nil {
		return 0, fmt.Errorf("failed to repair ledger entry: %w", err)
	}
	l.log.LogLedgerDrift(ctx, key.String(), value-partySize, actual)
	return actual, nil
}

func (l *RedisLedger) Rebuild(ctx context.Context, key SlotKey) (int, int, error) {
	unlock, err := l.lock(ctx, key)
	if err != nil {
		return 0, 0, err
	}
	defer unlock()

	if err := l.ensureSeeded(ctx, key.RestaurantID, key.Date); err != nil {
		return 0, 0, err
	}

	hash := constants.BuildLedgerKey(key.RestaurantID.String(), key.Date)
	before, err := l.client.HGet(ctx, hash, key.Time).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("failed to read ledger entry: %w", err)
	}
	if l.recounter == nil {
		return before, before, nil
	}

	actual, err := l.recounter.SumActive(ctx, key)
	if err != nil {
		return before, before, err
	}
	if err := l.client.HSet(ctx, hash, key.Time, actual).Err(); err != nil {
		return before, before, fmt.Errorf("failed to write ledger entry: %w", err)
	}
	return before, actual, nil
}

// ensureSeeded loads a cold business date from the bookings. The script ignores the
// seed once the date is marked, so concurrent seeders cannot overwrite live counters.
func (l *RedisLedger) ensureSeeded(ctx context.Context, restaurantID uuid.UUID, date string) error {
	hash := constants.BuildLedgerKey(restaurantID.String(), date)
	seeded, err := l.client.HExists(ctx, hash, constants.LEDGER_SEEDED_FIELD).Result()
	if err != nil {
		return fmt.Errorf("failed to check ledger seed: %w", err)
	}
	if seeded {
		return nil
	}

	var base map[string]int
	if l.recounter != nil {
		if base, err = l.recounter.ConsumedByDate(ctx, restaurantID, date); err != nil {
			return fmt.Errorf("failed to seed ledger: %w", err)
		}
	}

	args := make([]interface{}, 0, 1+2*len(base))
	args = append(args, expireAt(date).Unix())
	for slot, n := range base {
		args = append(args, slot, n)
	}
	if err := luaSeedDate.Run(ctx, l.client, []string{hash}, args...).Err(); err != nil {
		return fmt.Errorf("failed to seed ledger: %w", err)
	}
	return nil
}

// lock takes the slot lock, retrying until lockWait runs out.
func (l *RedisLedger) lock(ctx context.Context, key SlotKey) (func(), error) {
	lockKey := constants.BuildLedgerLockKey(key.RestaurantID.String(), key.Date, key.Time)
	token := uuid.NewString()
	deadline := time.Now().Add(l.lockWait)

	for {
		acquired, err := l.client.SetNX(ctx, lockKey, token, l.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire slot lock: %w", err)
		}
		if acquired {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: slot %s is busy", apperrors.ErrConcurrencyConflict, key)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: waiting for slot lock: %v", apperrors.ErrConcurrencyConflict, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.lockTTL)
		defer cancel()
		if err := luaUnlock.Run(unlockCtx, l.client, []string{lockKey}, token).Err(); err != nil {
			l.log.WarnContext(ctx, "failed to release slot lock", "slot", key.String(), "error", err.Error())
		}
	}, nil
}

func runCounterScript(ctx context.Context, client *redis.Client, script *redis.Script, hash, slot string, party, capacity int) (bool, int, error) {
	result, err := script.Run(ctx, client, []string{hash}, slot, party, capacity).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected result format from Lua script")
	}
	success, ok := result[0].(int64)
	if !ok {
		return false, 0, fmt.Errorf("invalid success flag in Lua script result")
	}
	value, ok := result[1].(int64)
	if !ok {
		return false, 0, fmt.Errorf("invalid counter in Lua script result")
	}
	return success == 1, int(value), nil
}

// expireAt keeps a business date's hash until two days after it ends.
func expireAt(date string) time.Time {
	floor := time.Now().Add(constants.TTL_LEDGER_MIN)
	d, err := time.Parse(validation.DateLayout, date)
	if err != nil {
		return floor
	}
	if at := d.AddDate(0, 0, 3); at.After(floor) {
		return at
	}
	return floor
}
