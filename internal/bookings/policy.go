package bookings

import (
	"time"

	"tablewise/internal/availability"
	"tablewise/internal/shared/config"
)

// Policy holds the reservation rules the transaction manager enforces.
type Policy struct {
	AutoConfirm        bool
	MinLeadTime        time.Duration
	HorizonDays        int
	AllowPastDates     bool
	CancellationCutoff time.Duration
	MaxPartySize       int
	CommitTimeout      time.Duration
	CompletionBatch    int

	// Clock defaults to time.Now.
	Clock func() time.Time
}

func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		AutoConfirm:        cfg.Booking.AutoConfirm,
		MinLeadTime:        cfg.Booking.MinLeadTime,
		HorizonDays:        cfg.Booking.HorizonDays,
		AllowPastDates:     cfg.Booking.AllowPastDates,
		CancellationCutoff: cfg.Booking.CancellationCutoff,
		MaxPartySize:       cfg.Booking.MaxPartySize,
		CommitTimeout:      cfg.Booking.CommitTimeout,
		CompletionBatch:    cfg.Jobs.CompletionBatchSize,
	}
}

// Rules returns the date constraints shared with the availability engine.
func (p Policy) Rules() availability.Rules {
	return availability.Rules{
		MinLeadTime:    p.MinLeadTime,
		HorizonDays:    p.HorizonDays,
		AllowPastDates: p.AllowPastDates,
	}
}

func (p Policy) Now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock()
}

func (p Policy) withDefaults() Policy {
	if p.MaxPartySize <= 0 {
		p.MaxPartySize = 20
	}
	if p.CommitTimeout <= 0 {
		p.CommitTimeout = 3 * time.Second
	}
	if p.CompletionBatch <= 0 {
		p.CompletionBatch = 200
	}
	return p
}
