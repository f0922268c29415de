package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrapToSentinels(t *testing.T) {
	var capErr error = &CapacityError{Slot: "2025-06-01 19:00", Available: 0, Requested: 1}
	assert.True(t, errors.Is(capErr, ErrCapacityExceeded))
	assert.Contains(t, capErr.Error(), "0 seats left")

	var closed error = &ClosedError{Date: "2025-06-06", Time: "16:30"}
	assert.True(t, errors.Is(closed, ErrRestaurantClosed))

	var date error = &DateError{Date: "2025-12-01", Reason: "beyond booking horizon"}
	assert.True(t, errors.Is(date, ErrInvalidDate))

	wrapped := fmt.Errorf("create booking: %w", capErr)
	var target *CapacityError
	assert.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 1, target.Requested)
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		NotFound("booking"):                  http.StatusNotFound,
		ErrUnauthorized:                      http.StatusForbidden,
		&CapacityError{}:                     http.StatusConflict,
		ErrConcurrencyConflict:               http.StatusConflict,
		ErrInvalidTransition:                 http.StatusConflict,
		&ClosedError{Date: "2025-06-01"}:     http.StatusUnprocessableEntity,
		&DateError{Date: "x", Reason: "bad"}: http.StatusUnprocessableEntity,
		Invalid("party size %d", 0):          http.StatusBadRequest,
		errors.New("boom"):                   http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "CAPACITY_EXCEEDED", Code(&CapacityError{}))
	assert.Equal(t, "RESTAURANT_CLOSED", Code(&ClosedError{}))
	assert.Equal(t, "NOT_FOUND", Code(NotFound("restaurant")))
	assert.Equal(t, "INTERNAL_ERROR", Code(errors.New("boom")))
}
