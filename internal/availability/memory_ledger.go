package availability

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"tablewise/internal/shared/apperrors"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

// MemoryLedger keeps counters in process memory. Each key has its own lock, so only
// requests for the same slot wait on each other.
type MemoryLedger struct {
	mu        sync.Mutex
	dates     map[dateKey]map[string]*memoryEntry
	recounter Recounter
	lockWait  time.Duration
	log       *logger.Logger
}

type dateKey struct {
	restaurantID uuid.UUID
	date         string
}

type memoryEntry struct {
	sem      chan struct{}
	consumed atomic.Int64
	seeded   atomic.Bool
}

// NewMemoryLedger creates a ledger that seeds cold keys from recounter. A nil recounter
// starts every key at zero.
func NewMemoryLedger(recounter Recounter, lockWait time.Duration) *MemoryLedger {
	return &MemoryLedger{
		dates:     make(map[dateKey]map[string]*memoryEntry),
		recounter: recounter,
		lockWait:  lockWait,
		log:       logger.GetDefault(),
	}
}

func (l *MemoryLedger) entry(key SlotKey) *memoryEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	dk := dateKey{restaurantID: key.RestaurantID, date: key.Date}
	slots, ok := l.dates[dk]
	if !ok {
		slots = make(map[string]*memoryEntry)
		l.dates[dk] = slots
	}
	e, ok := slots[key.Time]
	if !ok {
		e = &memoryEntry{sem: make(chan struct{}, 1)}
		slots[key.Time] = e
	}
	return e
}

// Prune drops the counters of business dates before the given YYYY-MM-DD date and
// returns how many dates were removed. Dates with a slot lock held are kept.
func (l *MemoryLedger) Prune(before string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for dk, slots := range l.dates {
		if dk.date >= before || anyLocked(slots) {
			continue
		}
		delete(l.dates, dk)
		removed++
	}
	return removed
}

func anyLocked(slots map[string]*memoryEntry) bool {
	for _, e := range slots {
		if len(e.sem) > 0 {
			return true
		}
	}
	return false
}

func (l *MemoryLedger) lock(ctx context.Context, e *memoryEntry) error {
	if l.lockWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.lockWait)
		defer cancel()
	}
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for slot lock: %v", apperrors.ErrConcurrencyConflict, ctx.Err())
	}
}

func (e *memoryEntry) unlock() {
	<-e.sem
}

// seed loads a cold entry. Callers hold the entry lock.
func (l *MemoryLedger) seed(ctx context.Context, key SlotKey, e *memoryEntry) error {
	if e.seeded.Load() {
		return nil
	}
	if l.recounter != nil {
		actual, err := l.recounter.SumActive(ctx, key)
		if err != nil {
			return fmt.Errorf("failed to seed ledger entry %s: %w", key, err)
		}
		e.consumed.Store(int64(actual))
	}
	e.seeded.Store(true)
	return nil
}

func (l *MemoryLedger) Consumed(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error) {
	consumed := make(map[string]int)
	if l.recounter != nil {
		base, err := l.recounter.ConsumedByDate(ctx, restaurantID, date)
		if err != nil {
			return nil, err
		}
		for slot, n := range base {
			consumed[slot] = n
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for slot, e := range l.dates[dateKey{restaurantID: restaurantID, date: date}] {
		if e.seeded.Load() {
			consumed[slot] = int(e.consumed.Load())
		}
	}
	return consumed, nil
}

func (l *MemoryLedger) Reserve(ctx context.Context, key SlotKey, partySize, capacity int, commit CommitFunc) (int, error) {
	e := l.entry(key)
	if err := l.lock(ctx, e); err != nil {
		return 0, err
	}
	defer e.unlock()

	if err := l.seed(ctx, key, e); err != nil {
		return 0, err
	}

	used := int(e.consumed.Load())
	if used+partySize > capacity {
		left := remaining(capacity, used)
		return left, &apperrors.CapacityError{Slot: key.String(), Available: left, Requested: partySize}
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return 0, err
		}
	}
	e.consumed.Store(int64(used + partySize))
	return capacity - used - partySize, nil
}

func (l *MemoryLedger) Release(ctx context.Context, key SlotKey, partySize int, commit CommitFunc) (int, error) {
	e := l.entry(key)
	if err := l.lock(ctx, e); err != nil {
		return 0, err
	}
	defer e.unlock()

	if err := l.seed(ctx, key, e); err != nil {
		return 0, err
	}

	if commit != nil {
		if err := commit(ctx); err != nil {
			return 0, err
		}
	}

	used := int(e.consumed.Load())
	after := used - partySize
	if after < 0 {
		after = 0
		if l.recounter != nil {
			actual, err := l.recounter.SumActive(ctx, key)
			if err != nil {
				return 0, fmt.Errorf("failed to recount drifted entry %s: %w", key, err)
			}
			after = actual
		}
		l.log.LogLedgerDrift(ctx, key.String(), used-partySize, after)
	}
	e.consumed.Store(int64(after))
	return after, nil
}

func (l *MemoryLedger) Rebuild(ctx context.Context, key SlotKey) (int, int, error) {
	e := l.entry(key)
	if err := l.lock(ctx, e); err != nil {
		return 0, 0, err
	}
	defer e.unlock()

	before := int(e.consumed.Load())
	if l.recounter == nil {
		e.seeded.Store(true)
		return before, before, nil
	}

	actual, err := l.recounter.SumActive(ctx, key)
	if err != nil {
		return before, before, err
	}
	if !e.seeded.Load() {
		before = actual
	}
	e.consumed.Store(int64(actual))
	e.seeded.Store(true)
	return before, actual, nil
}
