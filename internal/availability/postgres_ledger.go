package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tablewise/internal/shared/apperrors"
	"tablewise/internal/shared/database"
	"tablewise/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Postgres error codes that mean another transaction holds or raced for the row.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// PostgresLedger keeps counters in slot_ledger. The row is locked with FOR UPDATE in the
// same transaction that persists the booking, so the counter and the booking commit together.
type PostgresLedger struct {
	db          *gorm.DB
	recounter   Recounter
	lockTimeout time.Duration
	log         *logger.Logger
}

func NewPostgresLedger(db *gorm.DB, recounter Recounter, lockTimeout time.Duration) *PostgresLedger {
	return &PostgresLedger{
		db:          db,
		recounter:   recounter,
		lockTimeout: lockTimeout,
		log:         logger.GetDefault(),
	}
}

func (l *PostgresLedger) Consumed(ctx context.Context, restaurantID uuid.UUID, date string) (map[string]int, error) {
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

	var entries []LedgerEntry
	err := database.Conn(ctx, l.db).
		Where("restaurant_id = ? AND date = ?", restaurantID, date).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	for _, e := range entries {
		consumed[e.Time] = e.Consumed
	}
	return consumed, nil
}

func (l *PostgresLedger) Reserve(ctx context.Context, key SlotKey, partySize, capacity int, commit CommitFunc) (int, error) {
	left := 0
	err := l.inTx(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		entry, err := l.lockEntry(txCtx, tx, key)
		if err != nil {
			return err
		}

		if entry.Consumed+partySize > capacity {
			left = remaining(capacity, entry.Consumed)
			return &apperrors.CapacityError{Slot: key.String(), Available: left, Requested: partySize}
		}

		if commit != nil {
			if err := commit(txCtx); err != nil {
				return err
			}
		}

		if err := l.store(tx, key, entry.Consumed+partySize); err != nil {
			return err
		}
		left = capacity - entry.Consumed - partySize
		return nil
	})
	if err != nil {
		var capErr *apperrors.CapacityError
		if errors.As(err, &capErr) {
			return left, err
		}
		return 0, err
	}
	return left, nil
}

func (l *PostgresLedger) Release(ctx context.Context, key SlotKey, partySize int, commit CommitFunc) (int, error) {
	after := 0
	err := l.inTx(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		entry, err := l.lockEntry(txCtx, tx, key)
		if err != nil {
			return err
		}

		if commit != nil {
			if err := commit(txCtx); err != nil {
				return err
			}
		}

		after = entry.Consumed - partySize
		if after < 0 {
			actual := 0
			if l.recounter != nil {
				if actual, err = l.recounter.SumActive(txCtx, key); err != nil {
					return fmt.Errorf("failed to recount drifted entry %s: %w", key, err)
				}
			}
			l.log.LogLedgerDrift(ctx, key.String(), after, actual)
			after = actual
		}
		return l.store(tx, key, after)
	})
	if err != nil {
		return 0, err
	}
	return after, nil
}

func (l *PostgresLedger) Rebuild(ctx context.Context, key SlotKey) (int, int, error) {
	var before, after int
	err := l.inTx(ctx, func(txCtx context.Context, tx *gorm.DB) error {
		entry, err := l.lockEntry(txCtx, tx, key)
		if err != nil {
			return err
		}
		before, after = entry.Consumed, entry.Consumed
		if l.recounter == nil {
			return nil
		}

		if after, err = l.recounter.SumActive(txCtx, key); err != nil {
			return err
		}
		return l.store(tx, key, after)
	})
	if err != nil {
		return 0, 0, err
	}
	return before, after, nil
}

// inTx opens a transaction with a bounded lock wait and hands it to fn both directly and
// through the context, so repositories called by the commit callback join it.
func (l *PostgresLedger) inTx(ctx context.Context, fn func(txCtx context.Context, tx *gorm.DB) error) error {
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if l.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to set lock timeout: %w", err)
			}
		}
		return fn(database.WithTx(ctx, tx), tx)
	})
	return classifyPgError(err)
}

// lockEntry returns the key's row locked FOR UPDATE, creating it from the bookings when cold.
func (l *PostgresLedger) lockEntry(ctx context.Context, tx *gorm.DB, key SlotKey) (*LedgerEntry, error) {
	entry, err := l.selectForUpdate(tx, key)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	seed := 0
	if l.recounter != nil {
		if seed, err = l.recounter.SumActive(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to seed ledger entry %s: %w", key, err)
		}
	}
	cold := &LedgerEntry{RestaurantID: key.RestaurantID, Date: key.Date, Time: key.Time, Consumed: seed}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(cold).Error; err != nil {
		return nil, fmt.Errorf("failed to seed ledger entry %s: %w", key, err)
	}
	return l.selectForUpdate(tx, key)
}

func (l *PostgresLedger) selectForUpdate(tx *gorm.DB, key SlotKey) (*LedgerEntry, error) {
	var entry LedgerEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("restaurant_id = ? AND date = ? AND time = ?", key.RestaurantID, key.Date, key.Time).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (l *PostgresLedger) store(tx *gorm.DB, key SlotKey, consumed int) error {
	err := tx.Model(&LedgerEntry{}).
		Where("restaurant_id = ? AND date = ? AND time = ?", key.RestaurantID, key.Date, key.Time).
		Updates(map[string]interface{}{"consumed": consumed, "updated_at": time.Now()}).Error
	if err != nil {
		return fmt.Errorf("failed to update ledger entry %s: %w", key, err)
	}
	return nil
}

func classifyPgError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%w: %s", apperrors.ErrConcurrencyConflict, pgErr.Message)
		}
	}
	return err
}
