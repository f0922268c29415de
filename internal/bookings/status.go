package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

var allStatuses = []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// activeStatuses are the statuses a booking can be cancelled or completed from.
var activeStatuses = []Status{StatusPending, StatusConfirmed}

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the booking is still upcoming.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// HoldsCapacity reports whether the booking's party counts against its slot.
// Completion does not give seats back.
func (s Status) HoldsCapacity() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCompleted
}

func (s Status) CanTransitionTo(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled || next == StatusCompleted
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

func capacityHoldingStatuses() []Status {
	out := make([]Status, 0, len(allStatuses))
	for _, s := range allStatuses {
		if s.HoldsCapacity() {
			out = append(out, s)
		}
	}
	return out
}
