package booking

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	addressModel "puja-booking/models/address"
	"puja-booking/services/booking"
	"puja-booking/services/pricing"
)

var validate = validator.New()

var errMuhuratOrder = errors.New("muhurat_end must not be before muhurat_start")

type VenueRequest struct {
	StreetAddress string   `json:"street_address" validate:"required,min=1,max=255"`
	City          string   `json:"city" validate:"required,min=1,max=255"`
	State         *string  `json:"state" validate:"omitempty,max=255"`
	PostalCode    *string  `json:"postal_code" validate:"omitempty,max=20"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

// BookingDetailsRequest is the payload for creating, editing and quoting a booking
type BookingDetailsRequest struct {
	CeremonyType        string                    `json:"ceremony_type" validate:"required,min=1,max=100"`
	EventDate           time.Time                 `json:"event_date" validate:"required"`
	MuhuratStart        *time.Time                `json:"muhurat_start"`
	MuhuratEnd          *time.Time                `json:"muhurat_end"`
	Attendees           int                       `json:"attendees" validate:"min=0"`
	Venue               VenueRequest              `json:"venue"`
	ServiceFee          int64                     `json:"service_fee" validate:"gt=0,max=10000000"`
	TravelRequired      bool                      `json:"travel_required"`
	TravelMode          pricing.TravelMode        `json:"travel_mode" validate:"omitempty,oneof=OWN_VEHICLE CAB BUS TRAIN FLIGHT"`
	DistanceKm          float64                   `json:"distance_km" validate:"min=0"`
	TravelFacilitated   bool                      `json:"travel_facilitated"`
	TravelDays          int                       `json:"travel_days" validate:"min=0"`
	FoodMode            pricing.FoodMode          `json:"food_mode" validate:"omitempty,oneof=NONE ALLOWANCE CUSTOMER_PROVIDES"`
	PujaDays            int                       `json:"puja_days" validate:"min=0"`
	AccommodationMode   pricing.AccommodationMode `json:"accommodation_mode" validate:"omitempty,oneof=NONE CUSTOMER_PROVIDES PLATFORM_BOOKED"`
	AccommodationNights int                       `json:"accommodation_nights" validate:"min=0"`
	AllInclusivePackage bool                      `json:"all_inclusive_package"`
}

// Validate is the first step validation; pricing rules are checked by the engine.
func (r *BookingDetailsRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.MuhuratStart != nil && r.MuhuratEnd != nil && r.MuhuratEnd.Before(*r.MuhuratStart) {
		return errMuhuratOrder
	}
	return nil
}

func (r BookingDetailsRequest) Details() booking.Details {
	return booking.Details{
		CeremonyType: r.CeremonyType,
		EventDate:    r.EventDate,
		MuhuratStart: r.MuhuratStart,
		MuhuratEnd:   r.MuhuratEnd,
		Attendees:    r.Attendees,
		Venue: addressModel.Address{
			StreetAddress: r.Venue.StreetAddress,
			City:          r.Venue.City,
			State:         r.Venue.State,
			PostalCode:    r.Venue.PostalCode,
			Latitude:      r.Venue.Latitude,
			Longitude:     r.Venue.Longitude,
		},
		ServiceFee:          r.ServiceFee,
		TravelRequired:      r.TravelRequired,
		TravelMode:          r.TravelMode,
		DistanceKm:          r.DistanceKm,
		TravelFacilitated:   r.TravelFacilitated,
		TravelDays:          r.TravelDays,
		FoodMode:            r.FoodMode,
		PujaDays:            r.PujaDays,
		AccommodationMode:   r.AccommodationMode,
		AccommodationNights: r.AccommodationNights,
		AllInclusivePackage: r.AllInclusivePackage,
	}
}

type SubmitRequest struct {
	OfficiantID      string `json:"officiant_id" validate:"required"`
	PaymentReference string `json:"payment_reference" validate:"required"`
}

func (r *SubmitRequest) Validate() error {
	return validate.Struct(r)
}

// ReasonRequest carries the free-text reason of a reject, cancellation or rejection of one.
// Whether the reason is mandatory is decided by the booking engine.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

type ApproveCancellationRequest struct {
	OverrideAmount *int64 `json:"override_amount" validate:"omitempty,min=0"`
	OverrideReason string `json:"override_reason" validate:"max=1000"`
	Note           string `json:"note" validate:"max=1000"`
}

func (r *ApproveCancellationRequest) Validate() error {
	return validate.Struct(r)
}

type OverrideRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason" validate:"required"`
}

func (r *OverrideRequest) Validate() error {
	return validate.Struct(r)
}
