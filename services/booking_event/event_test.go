package booking_event

import (
	"testing"

	bookingModel "puja-booking/models/booking"
)

func TestBuildEvent_CopiesMoneyAndStatus(t *testing.T) {
	b := &bookingModel.Booking{
		ID:            7,
		BookingNumber: "PJ-20260301-ABC123",
		Status:        bookingModel.BookingStatusCancelled,
		PaymentStatus: bookingModel.PaymentStatusCaptured,
		RefundAmount:  6390,
		RefundStatus:  bookingModel.RefundStatusPending,
	}
	b.Pricing.GrandTotal = 8357

	ev := BuildEvent(b, "approve_cancellation", "admin-1")
	if ev.BookingID != 7 || ev.BookingNumber != b.BookingNumber || ev.EventType != "approve_cancellation" {
		t.Fatalf("unexpected identity fields %+v", ev)
	}
	if ev.Pricing.GrandTotal != 8357 || ev.RefundAmount != 6390 || ev.RefundStatus != bookingModel.RefundStatusPending {
		t.Fatalf("unexpected money fields %+v", ev)
	}
	if ev.CreatedBy != "admin-1" {
		t.Fatalf("expected the actor to be recorded, got %q", ev.CreatedBy)
	}
}
