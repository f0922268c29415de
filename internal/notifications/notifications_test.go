package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() *BookingNotification {
	return NewNotificationBuilder(NotificationTypeBookingConfirmed).
		WithRecipient(uuid.New(), "", "").
		WithBooking(uuid.New(), "TBL-20250601-ABCDEF", "CONFIRMED").
		WithRestaurant(uuid.New(), "Le Petit Bistro").
		WithSlot("2025-06-01", "19:00", 4).
		Build()
}

func TestBuilderFillsSubjectAndPriority(t *testing.T) {
	n := sampleNotification()
	assert.Equal(t, NotificationPriorityMedium, n.Priority)
	assert.Contains(t, n.Subject, "Le Petit Bistro")
	assert.Contains(t, n.Subject, "2025-06-01 19:00")

	cancelled := NewNotificationBuilder(NotificationTypeBookingCancelled).WithReason("sick").Build()
	assert.Equal(t, NotificationPriorityHigh, cancelled.Priority)
	assert.Equal(t, "sick", cancelled.Reason)
}

func TestKafkaNotifierPublishesKeyedMessage(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	n := sampleNotification()

	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "booking-notifications" {
			return errors.New("wrong topic " + msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != n.RestaurantID.String() {
			return errors.New("message not keyed by restaurant")
		}
		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var decoded BookingNotification
		if err := json.Unmarshal(value, &decoded); err != nil {
			return err
		}
		if decoded.BookingRef != n.BookingRef {
			return errors.New("payload mismatch")
		}
		return nil
	})

	notifier := NewKafkaNotifierWithProducer(producer, "booking-notifications")
	require.NoError(t, notifier.Notify(context.Background(), n))
	require.NoError(t, notifier.Close())
}

func TestKafkaNotifierReportsSendFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	notifier := NewKafkaNotifierWithProducer(producer, "booking-notifications")
	err := notifier.Notify(context.Background(), sampleNotification())
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, notifier.Close())
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*BookingNotification
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, n *BookingNotification) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return r.err
}

type staticDirectory struct{}

func (staticDirectory) GetUserContact(_ context.Context, _ uuid.UUID) (string, string, error) {
	return "guest@example.com", "Ada Guest", nil
}

func TestDispatcherEnrichesAndSurvivesCancelledContext(t *testing.T) {
	rec := &recordingNotifier{}
	d := NewDispatcher(rec, staticDirectory{}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	d.Dispatch(ctx, sampleNotification())
	cancel()

	require.NoError(t, d.Wait(context.Background()))
	require.Len(t, rec.sent, 1)
	assert.Equal(t, "guest@example.com", rec.sent[0].RecipientEmail)
	assert.Equal(t, "Ada Guest", rec.sent[0].RecipientName)
}

func TestDispatcherSwallowsFailures(t *testing.T) {
	rec := &recordingNotifier{err: errors.New("broker down")}
	d := NewDispatcher(rec, nil, time.Second)

	d.Dispatch(context.Background(), sampleNotification())
	require.NoError(t, d.Wait(context.Background()))
	assert.Len(t, rec.sent, 1)

	var nilDispatcher *Dispatcher
	assert.NotPanics(t, func() { nilDispatcher.Dispatch(context.Background(), sampleNotification()) })
}
