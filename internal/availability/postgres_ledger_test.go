package availability

import (
	"errors"
	"fmt"
	"testing"

	"tablewise/internal/shared/apperrors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPgError(t *testing.T) {
	assert.NoError(t, classifyPgError(nil))

	for _, code := range []string{pgLockNotAvailable, pgSerializationFailure, pgDeadlockDetected} {
		err := classifyPgError(fmt.Errorf("commit: %w", &pgconn.PgError{Code: code, Message: "could not obtain lock"}))
		assert.ErrorIs(t, err, apperrors.ErrConcurrencyConflict, code)
		assert.Contains(t, err.Error(), "could not obtain lock")
	}

	unique := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	err := classifyPgError(unique)
	assert.NotErrorIs(t, err, apperrors.ErrConcurrencyConflict)
	assert.Same(t, unique, err)

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classifyPgError(plain))
}
