package booking

import (
	"time"

	"puja-booking/models/address"
	"puja-booking/services/pricing"
)

// Booking is the aggregate root of a ceremony request. Money fields are
// derived by the pricing and refund engines and never edited by hand.
type Booking struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingNumber string `gorm:"type:varchar(32);not null;unique" json:"booking_number"`

	CustomerID  string  `gorm:"type:varchar(255);not null;index" json:"customer_id"`
	OfficiantID *string `gorm:"type:varchar(255);index" json:"officiant_id,omitempty"`

	CeremonyType string     `gorm:"type:varchar(100);not null" json:"ceremony_type"`
	EventDate    time.Time  `gorm:"not null;index" json:"event_date"`
	MuhuratStart *time.Time `json:"muhurat_start,omitempty"`
	MuhuratEnd   *time.Time `json:"muhurat_end,omitempty"`
	Attendees    int        `gorm:"not null;default:0" json:"attendees"`

	// Foreign key for venue relationship
	VenueAddressID uint            `gorm:"not null" json:"venue_address_id"`
	VenueAddress   address.Address `gorm:"foreignKey:VenueAddressID" json:"venue_address"`

	TravelRequired      bool                      `gorm:"default:false" json:"travel_required"`
	TravelMode          pricing.TravelMode        `gorm:"size:20" json:"travel_mode,omitempty"`
	DistanceKm          float64                   `gorm:"default:0" json:"distance_km"`
	TravelFacilitated   bool                      `gorm:"default:false" json:"travel_facilitated"`
	TravelDays          int                       `gorm:"default:0" json:"travel_days"`
	TravelStatus        TravelStatus              `gorm:"size:20;not null;default:NONE" json:"travel_status"`
	FoodMode            pricing.FoodMode          `gorm:"size:20;not null;default:NONE" json:"food_mode"`
	PujaDays            int                       `gorm:"not null;default:0" json:"puja_days"`
	AccommodationMode   pricing.AccommodationMode `gorm:"size:20;not null;default:NONE" json:"accommodation_mode"`
	AccommodationNights int                       `gorm:"default:0" json:"accommodation_nights"`
	AllInclusivePackage bool                      `gorm:"default:false" json:"all_inclusive_package"`

	Pricing pricing.Breakdown `gorm:"embedded" json:"pricing"`

	PaymentReference *string       `gorm:"type:varchar(255)" json:"payment_reference,omitempty"`
	PaymentStatus    PaymentStatus `gorm:"size:20;not null;default:NONE" json:"payment_status"`
	PayoutStatus     PayoutStatus  `gorm:"size:20;not null;default:NONE" json:"payout_status"`
	RefundAmount     int64         `gorm:"not null;default:0" json:"refund_amount"`
	RefundStatus     RefundStatus  `gorm:"size:20;not null;default:NONE" json:"refund_status"`

	Status             BookingStatus `gorm:"size:30;not null;default:CREATED;index" json:"status"`
	AcceptedAt         *time.Time    `json:"accepted_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy        *string       `gorm:"type:varchar(255)" json:"cancelled_by,omitempty"`
	CancellationReason *string       `gorm:"type:text" json:"cancellation_reason,omitempty"`
	AdminNotes         string        `gorm:"type:text" json:"admin_notes,omitempty"`

	Transitions []StatusTransition `gorm:"foreignKey:BookingID" json:"transitions,omitempty"`

	CreatedBy string    `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedBy string    `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PricingInput collects the logistics facts the pricing engine needs.
func (b *Booking) PricingInput() pricing.Input {
	return pricing.Input{
		ServiceFee: b.Pricing.Dakshina,
		Travel: pricing.TravelFacts{
			Required:            b.TravelRequired,
			Mode:                b.TravelMode,
			DistanceKm:          b.DistanceKm,
			PlatformFacilitated: b.TravelFacilitated,
			TravelDays:          b.TravelDays,
		},
		Food:                pricing.FoodArrangement{Mode: b.FoodMode, PujaDays: b.PujaDays},
		Accommodation:       pricing.AccommodationFacts{Mode: b.AccommodationMode, Nights: b.AccommodationNights},
		Attendees:           b.Attendees,
		AllInclusivePackage: b.AllInclusivePackage,
	}
}

// Clone copies the booking so a transition can be applied without touching
// the stored snapshot until it commits.
func (b *Booking) Clone() *Booking {
	cp := *b
	cp.Transitions = append([]StatusTransition(nil), b.Transitions...)
	return &cp
}

// LastTransitionInto returns the most recent transition that entered status.
func (b *Booking) LastTransitionInto(status BookingStatus) *StatusTransition {
	for i := len(b.Transitions) - 1; i >= 0; i-- {
		if b.Transitions[i].ToStatus == status {
			return &b.Transitions[i]
		}
	}
	return nil
}

// NextSeq is the commit-order sequence number for the next transition.
func (b *Booking) NextSeq() int {
	if n := len(b.Transitions); n > 0 {
		return b.Transitions[n-1].Seq + 1
	}
	return 1
}
