package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
)

func validDetails() BookingDetailsRequest {
	return BookingDetailsRequest{
		CeremonyType: "griha-pravesh",
		EventDate:    time.Date(2026, 11, 20, 9, 0, 0, 0, time.UTC),
		Attendees:    25,
		Venue:        VenueRequest{StreetAddress: "12 Temple Road", City: "Pune"},
		ServiceFee:   5100,
		TravelMode:   "CAB",
		FoodMode:     "ALLOWANCE",
		PujaDays:     1,
	}
}

func failedTag(t *testing.T, err error) string {
	t.Helper()
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		t.Fatalf("expected validation errors, got %v", err)
	}
	return verrs[0].Field() + "." + verrs[0].Tag()
}

func TestBookingDetailsRequest_Validate(t *testing.T) {
	r := validDetails()
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid details, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(r *BookingDetailsRequest)
		want   string
	}{
		{"missing ceremony", func(r *BookingDetailsRequest) { r.CeremonyType = "" }, "CeremonyType.required"},
		{"missing event date", func(r *BookingDetailsRequest) { r.EventDate = time.Time{} }, "EventDate.required"},
		{"missing street", func(r *BookingDetailsRequest) { r.Venue.StreetAddress = "" }, "StreetAddress.required"},
		{"missing city", func(r *BookingDetailsRequest) { r.Venue.City = "" }, "City.required"},
		{"zero service fee", func(r *BookingDetailsRequest) { r.ServiceFee = 0 }, "ServiceFee.gt"},
		{"negative service fee", func(r *BookingDetailsRequest) { r.ServiceFee = -100 }, "ServiceFee.gt"},
		{"service fee too large", func(r *BookingDetailsRequest) { r.ServiceFee = 10000001 }, "ServiceFee.max"},
		{"negative attendees", func(r *BookingDetailsRequest) { r.Attendees = -1 }, "Attendees.min"},
		{"negative puja days", func(r *BookingDetailsRequest) { r.PujaDays = -2 }, "PujaDays.min"},
		{"unknown travel mode", func(r *BookingDetailsRequest) { r.TravelMode = "ROCKET" }, "TravelMode.oneof"},
		{"unknown food mode", func(r *BookingDetailsRequest) { r.FoodMode = "FEAST" }, "FoodMode.oneof"},
	}
	for _, tc := range cases {
		r := validDetails()
		tc.mutate(&r)
		if got := failedTag(t, r.Validate()); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestBookingDetailsRequest_MuhuratOrder(t *testing.T) {
	r := validDetails()
	start := r.EventDate.Add(2 * time.Hour)
	end := r.EventDate.Add(time.Hour)
	r.MuhuratStart, r.MuhuratEnd = &start, &end
	if err := r.Validate(); !errors.Is(err, errMuhuratOrder) {
		t.Fatalf("expected muhurat order error, got %v", err)
	}

	end = start.Add(90 * time.Minute)
	if err := r.Validate(); err != nil {
		t.Fatalf("expected ordered muhurat to pass, got %v", err)
	}
}

func TestSubmitRequest_Validate(t *testing.T) {
	r := SubmitRequest{OfficiantID: "pandit-1", PaymentReference: "chrg_test_1"}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid submit, got %v", err)
	}
	r.OfficiantID = ""
	if got := failedTag(t, r.Validate()); got != "OfficiantID.required" {
		t.Fatalf("expected OfficiantID.required, got %s", got)
	}
	r = SubmitRequest{OfficiantID: "pandit-1"}
	if got := failedTag(t, r.Validate()); got != "PaymentReference.required" {
		t.Fatalf("expected PaymentReference.required, got %s", got)
	}
}

func TestOverrideRequest_Validate(t *testing.T) {
	r := OverrideRequest{Status: "CONFIRMED"}
	if got := failedTag(t, r.Validate()); got != "Reason.required" {
		t.Fatalf("expected Reason.required, got %s", got)
	}
	r.Reason = "confirmed by phone"
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid override, got %v", err)
	}
}

func TestApproveCancellationRequest_Validate(t *testing.T) {
	negative, zero := int64(-5), int64(0)
	r := ApproveCancellationRequest{OverrideAmount: &negative}
	if got := failedTag(t, r.Validate()); got != "OverrideAmount.min" {
		t.Fatalf("expected OverrideAmount.min, got %s", got)
	}
	r.OverrideAmount = &zero
	if err := r.Validate(); err != nil {
		t.Fatalf("expected zero override to pass, got %v", err)
	}
	r.OverrideAmount = nil
	if err := r.Validate(); err != nil {
		t.Fatalf("expected policy refund request to pass, got %v", err)
	}
}
