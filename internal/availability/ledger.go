package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SlotKey identifies one capacity ledger entry. Date is the restaurant's business date
// (YYYY-MM-DD) and Time the local slot start (HH:MM).
type SlotKey struct {
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
}

func (k SlotKey) String() string {
	return k.RestaurantID.String() + "@" + k.Date + "T" + k.Time
}

// CommitFunc persists the booking change guarded by a ledger operation.
// The context it receives carries the ledger's transaction when there is one.
type CommitFunc func(ctx context.Context) error

// Ledger tracks the party size consumed per slot by active bookings.
//
// Reserve and Release hold the key's critical section across the capacity check, the
// commit callback and the counter update. Either both the counter and the commit take
// effect or neither does.
type Ledger interface {
	// Consumed returns consumed capacity by slot time for a business date.
	Consumed(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error)

	// Reserve adds partySize to the key if it still fits in capacity and commit succeeds.
	// It returns the remaining capacity, or a *apperrors.CapacityError.
	Reserve(ctx context.Context, key SlotKey, partySize, capacity int, commit CommitFunc) (int, error)

	// Release removes partySize from the key once commit succeeds and returns the new consumed total.
	Release(ctx context.Context, key SlotKey, partySize int, commit CommitFunc) (int, error)

	// Rebuild recomputes the key from the active bookings.
	Rebuild(ctx context.Context, key SlotKey) (before, after int, err error)
}

// Recounter reads consumed capacity straight from the authoritative bookings.
type Recounter interface {
	SumActive(ctx context.Context, key SlotKey) (int, error)
	ConsumedByDate(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error)
}

// Pruner is implemented by ledgers that keep counters in process memory and must drop
// past business dates themselves.
type Pruner interface {
	Prune(before string) int
}

// LedgerEntry is the persisted counter behind PostgresLedger.
type LedgerEntry struct {
	RestaurantID uuid.UUID `gorm:"type:uuid;primaryKey" json:"restaurant_id"`
	Date         string    `gorm:"type:varchar(10);primaryKey" json:"date"`
	Time         string    `gorm:"type:varchar(5);primaryKey" json:"time"`
	Consumed     int       `gorm:"not null;default:0;check:consumed >= 0" json:"consumed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (LedgerEntry) TableName() string {
	return "slot_ledger"
}

func remaining(capacity, consumed int) int {
	if consumed >= capacity {
		return 0
	}
	return capacity - consumed
}
