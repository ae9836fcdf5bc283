package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"puja-booking/logger"
)

// Routing keys published for booking lifecycle events.
const (
	EventBookingSubmitted     = "booking.submitted"
	EventBookingConfirmed     = "booking.confirmed"
	EventBookingCancelled     = "booking.cancelled"
	EventBookingStatusChanged = "booking.status_changed"
	EventCancellationRequest  = "booking.cancellation_requested"
	EventCancellationRejected = "booking.cancellation_rejected"
	EventAssignmentExpired    = "booking.assignment_expired"
	EventRefundIssued         = "booking.refund_issued"
)

// Notification carries enough booking context for the delivery service to
// address the parties. Delivery itself happens elsewhere.
type Notification struct {
	Event         string    `json:"event"`
	BookingNumber string    `json:"booking_number"`
	Status        string    `json:"status"`
	Recipients    []string  `json:"recipients"`
	Reason        string    `json:"reason,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (n Notification) String() string {
	return fmt.Sprintf("%s %s -> %s", n.Event, n.BookingNumber, strings.Join(n.Recipients, ","))
}

// Notifier hands notifications to a delivery channel.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Console logs notifications. Used when no broker or webhook is configured.
type Console struct{}

func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Notify(_ context.Context, n Notification) error {
	logger.Info("[notify] " + n.String())
	return nil
}
