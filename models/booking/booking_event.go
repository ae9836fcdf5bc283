// models/booking/booking_event.go
package booking

import (
	"time"

	"puja-booking/services/pricing"
)

// BookingEvent is a snapshot of a booking's status and money fields taken on every mutation.
type BookingEvent struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// DO NOT make this unique here (events are many per booking)
	BookingID     uint   `gorm:"not null;index" json:"booking_id"`
	BookingNumber string `gorm:"type:varchar(32);not null;index" json:"booking_number"`

	Status        BookingStatus     `gorm:"size:30;not null" json:"status"`
	TravelStatus  TravelStatus      `gorm:"size:20;not null" json:"travel_status"`
	Pricing       pricing.Breakdown `gorm:"embedded" json:"pricing"`
	PaymentStatus PaymentStatus     `gorm:"size:20;not null" json:"payment_status"`
	PayoutStatus  PayoutStatus      `gorm:"size:20;not null" json:"payout_status"`
	RefundAmount  int64             `json:"refund_amount"`
	RefundStatus  RefundStatus      `gorm:"size:20;not null" json:"refund_status"`

	EventType string    `gorm:"type:varchar(50);not null;index" json:"event_type"` // created, updated, submit, accept, payment_captured, etc.
	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
