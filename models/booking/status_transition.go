package booking

import (
	"time"

	"puja-booking/constants"
)

// StatusTransition is an append-only audit record of a status change
type StatusTransition struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Foreign key for booking relationship
	BookingID uint `gorm:"not null;uniqueIndex:idx_booking_transition_seq" json:"booking_id"`
	// Seq is the commit order within one booking
	Seq int `gorm:"not null;uniqueIndex:idx_booking_transition_seq" json:"seq"`

	FromStatus BookingStatus  `gorm:"size:30;not null" json:"from_status"`
	ToStatus   BookingStatus  `gorm:"size:30;not null" json:"to_status"`
	Action     string         `gorm:"type:varchar(50);not null" json:"action"`
	ActorID    string         `gorm:"type:varchar(255);not null" json:"actor_id"`
	ActorRole  constants.Role `gorm:"size:20;not null" json:"actor_role"`
	Reason     string         `gorm:"type:text" json:"reason,omitempty"`
	Override   bool           `gorm:"default:false" json:"override"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

// TableName sets the table name for the StatusTransition model
func (StatusTransition) TableName() string {
	return "booking_status_transitions"
}
