package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tablewise/pkg/logger"

	"github.com/google/uuid"
)

// Notifier delivers a booking notification to some downstream channel.
type Notifier interface {
	Notify(ctx context.Context, notification *BookingNotification) error
}

// UserDirectory resolves contact details for a recipient.
type UserDirectory interface {
	GetUserContact(ctx context.Context, userID uuid.UUID) (email, name string, err error)
}

// LogNotifier writes notifications to the structured log. Used when Kafka is disabled.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.GetDefault()}
}

func (l *LogNotifier) Notify(ctx context.Context, n *BookingNotification) error {
	l.log.InfoContext(ctx, "Notification",
		slog.String("type", string(n.Type)),
		slog.String("booking_id", n.BookingID.String()),
		slog.String("booking_ref", n.BookingRef),
		slog.String("recipient_id", n.RecipientID.String()),
		slog.String("subject", n.Subject),
	)
	return nil
}

const defaultDispatchTimeout = 5 * time.Second

// Dispatcher sends notifications in the background. Failures are logged and
// never reach the caller.
type Dispatcher struct {
	notifier Notifier
	users    UserDirectory
	timeout  time.Duration
	log      *logger.Logger
	wg       sync.WaitGroup
}

// NewDispatcher returns a dispatcher. users may be nil.
func NewDispatcher(notifier Notifier, users UserDirectory, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		notifier: notifier,
		users:    users,
		timeout:  timeout,
		log:      logger.GetDefault(),
	}
}

// Dispatch returns immediately. The send outlives ctx cancellation but not the timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, n *BookingNotification) {
	if d == nil || d.notifier == nil || n == nil {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification dispatch panicked", slog.Any("panic", r))
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.enrich(sendCtx, n)
		if err := d.notifier.Notify(sendCtx, n); err != nil {
			d.log.ErrorWithContext(sendCtx, "Failed to send notification", err, map[string]interface{}{
				"type":       string(n.Type),
				"booking_id": n.BookingID.String(),
			})
			return
		}
		d.log.DebugWithContext(sendCtx, "Notification sent", map[string]interface{}{
			"type":       string(n.Type),
			"booking_id": n.BookingID.String(),
		})
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) enrich(ctx context.Context, n *BookingNotification) {
	if d.users == nil || n.RecipientEmail != "" || n.RecipientID == uuid.Nil {
		return
	}
	email, name, err := d.users.GetUserContact(ctx, n.RecipientID)
	if err != nil {
		d.log.WarnContext(ctx, "recipient lookup failed",
			slog.String("recipient_id", n.RecipientID.String()),
			slog.String("error", err.Error()),
		)
		return
	}
	n.RecipientEmail = email
	n.RecipientName = name
}
