// Package apperrors holds the error taxonomy shared by the reservation engine
// and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrRestaurantClosed    = errors.New("restaurant is closed at the requested time")
	ErrCapacityExceeded    = errors.New("not enough capacity for the requested party size")
	ErrInvalidDate         = errors.New("invalid reservation date")
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("not authorized to perform this action")
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInvalidTransition   = errors.New("status transition not allowed")
	ErrAlreadyExists       = errors.New("resource already exists")
)

// CapacityError reports how much room a slot had when a reservation was refused.
type CapacityError struct {
	Slot      string
	Available int
	Requested int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("slot %s has %d seats left, %d requested", e.Slot, e.Available, e.Requested)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// ClosedError reports a requested time outside of the opening window.
type ClosedError struct {
	Date string
	Time string
}

func (e *ClosedError) Error() string {
	if e.Time == "" {
		return fmt.Sprintf("restaurant is closed on %s", e.Date)
	}
	return fmt.Sprintf("restaurant is closed on %s at %s", e.Date, e.Time)
}

func (e *ClosedError) Unwrap() error { return ErrRestaurantClosed }

// DateError reports why a date cannot be booked.
type DateError struct {
	Date   string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %s: %s", e.Date, e.Reason)
}

func (e *DateError) Unwrap() error { return ErrInvalidDate }

// Invalid wraps ErrInvalidRequest with a message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// NotFound wraps ErrNotFound with the name of the missing resource.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// HTTPStatus maps an error from the taxonomy to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrRestaurantClosed),
		errors.Is(err, ErrInvalidDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Code returns a stable machine-readable code for an error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrRestaurantClosed):
		return "RESTAURANT_CLOSED"
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrInvalidDate):
		return "INVALID_DATE"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrConcurrencyConflict):
		return "CONCURRENCY_CONFLICT"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrInvalidRequest):
		return "INVALID_REQUEST"
	default:
		return "INTERNAL_ERROR"
	}
}
