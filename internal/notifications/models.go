package notifications

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingRequested NotificationType = "BOOKING_REQUESTED"
	NotificationTypeBookingCancelled NotificationType = "BOOKING_CANCELLED"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// BookingNotification is one booking lifecycle event addressed to the guest.
type BookingNotification struct {
	ID       uuid.UUID            `json:"id"`
	Type     NotificationType     `json:"type"`
	Priority NotificationPriority `json:"priority"`

	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email,omitempty"`
	RecipientName  string    `json:"recipient_name,omitempty"`

	BookingID      uuid.UUID `json:"booking_id"`
	BookingRef     string    `json:"booking_ref"`
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	RestaurantName string    `json:"restaurant_name,omitempty"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	PartySize      int       `json:"party_size"`
	Status         string    `json:"status"`
	Reason         string    `json:"reason,omitempty"`

	Subject   string    `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationBuilder struct {
	notification *BookingNotification
}

func NewNotificationBuilder(notType NotificationType) *NotificationBuilder {
	return &NotificationBuilder{
		notification: &BookingNotification{
			ID:        uuid.New(),
			Type:      notType,
			Priority:  GetDefaultPriority(notType),
			CreatedAt: time.Now(),
		},
	}
}

func (nb *NotificationBuilder) WithRecipient(userID uuid.UUID, email, name string) *NotificationBuilder {
	nb.notification.RecipientID = userID
	nb.notification.RecipientEmail = email
	nb.notification.RecipientName = name
	return nb
}

func (nb *NotificationBuilder) WithBooking(bookingID uuid.UUID, ref, status string) *NotificationBuilder {
	nb.notification.BookingID = bookingID
	nb.notification.BookingRef = ref
	nb.notification.Status = status
	return nb
}

func (nb *NotificationBuilder) WithRestaurant(restaurantID uuid.UUID, name string) *NotificationBuilder {
	nb.notification.RestaurantID = restaurantID
	nb.notification.RestaurantName = name
	return nb
}

func (nb *NotificationBuilder) WithSlot(date, clock string, partySize int) *NotificationBuilder {
	nb.notification.Date = date
	nb.notification.Time = clock
	nb.notification.PartySize = partySize
	return nb
}

func (nb *NotificationBuilder) WithReason(reason string) *NotificationBuilder {
	nb.notification.Reason = reason
	return nb
}

func (nb *NotificationBuilder) Build() *BookingNotification {
	nb.notification.Subject = generateSubject(nb.notification)
	return nb.notification
}

func GetDefaultPriority(notType NotificationType) NotificationPriority {
	switch notType {
	case NotificationTypeBookingCancelled:
		return NotificationPriorityHigh
	case NotificationTypeBookingRequested:
		return NotificationPriorityLow
	default:
		return NotificationPriorityMedium
	}
}

func generateSubject(n *BookingNotification) string {
	place := n.RestaurantName
	if place == "" {
		place = "your restaurant"
	}
	switch n.Type {
	case NotificationTypeBookingConfirmed:
		return fmt.Sprintf("✅ Table for %d confirmed at %s on %s %s", n.PartySize, place, n.Date, n.Time)
	case NotificationTypeBookingRequested:
		return fmt.Sprintf("⏳ Reservation request received by %s for %s %s", place, n.Date, n.Time)
	case NotificationTypeBookingCancelled:
		return fmt.Sprintf("❌ Reservation at %s on %s %s cancelled", place, n.Date, n.Time)
	default:
		return "📧 Notification from Tablewise"
	}
}

// GetPartitionKey keeps all events of one restaurant on one partition.
func (n *BookingNotification) GetPartitionKey() string {
	return n.RestaurantID.String()
}

func (n *BookingNotification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}
