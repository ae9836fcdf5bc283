package booking

import "time"

// CancellationRequest records a customer's cancellation and the admin decision on it.
// The policy refund is always stored, even when an override supersedes it.
type CancellationRequest struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uint `gorm:"not null;index" json:"booking_id"`

	RequestedBy    string        `gorm:"type:varchar(255);not null" json:"requested_by"`
	RequestedAt    time.Time     `gorm:"not null" json:"requested_at"`
	Reason         string        `gorm:"type:text;not null" json:"reason"`
	PreviousStatus BookingStatus `gorm:"size:30;not null" json:"previous_status"`

	Outcome        CancellationOutcome `gorm:"size:20;not null;default:PENDING;index" json:"outcome"`
	DaysUntilEvent int                 `json:"days_until_event"`
	Tier           string              `gorm:"type:varchar(50)" json:"tier,omitempty"`
	TierBps        int64               `json:"tier_bps"`
	PolicyAmount   int64               `json:"policy_amount"`
	RefundAmount   int64               `json:"refund_amount"`
	OverrideAmount *int64              `json:"override_amount,omitempty"`
	OverrideReason *string             `gorm:"type:text" json:"override_reason,omitempty"`
	DecisionReason *string             `gorm:"type:text" json:"decision_reason,omitempty"`
	DecidedBy      *string             `gorm:"type:varchar(255)" json:"decided_by,omitempty"`
	DecidedAt      *time.Time          `json:"decided_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the CancellationRequest model
func (CancellationRequest) TableName() string {
	return "booking_cancellation_requests"
}
