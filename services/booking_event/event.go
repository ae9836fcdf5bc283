package booking_event

import (
	bookingModel "puja-booking/models/booking"

	"gorm.io/gorm"
)

// SnapshotBookingToEvent writes the booking's status and money fields into BookingEvent with the given event type.
func SnapshotBookingToEvent(tx *gorm.DB, b *bookingModel.Booking, eventType string, updatedBy string) error {
	ev := BuildEvent(b, eventType, updatedBy)
	return tx.Create(&ev).Error
}

// BuildEvent copies the fields an audit reader needs to reconstruct the booking at that moment.
func BuildEvent(b *bookingModel.Booking, eventType string, updatedBy string) bookingModel.BookingEvent {
	return bookingModel.BookingEvent{
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,

		Status:        b.Status,
		TravelStatus:  b.TravelStatus,
		Pricing:       b.Pricing,
		PaymentStatus: b.PaymentStatus,
		PayoutStatus:  b.PayoutStatus,
		RefundAmount:  b.RefundAmount,
		RefundStatus:  b.RefundStatus,

		EventType: eventType,
		CreatedBy: updatedBy,
	}
}
