package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/omise/omise-go"
)

func TestCallbackFromEvent(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		data      string
		tracked   bool
		kind      Kind
		succeeded bool
	}{
		{"charge captured", "charge.capture", `{"id":"chrg_1","status":"successful","metadata":{"booking_number":"PJ-1"}}`, true, KindCapture, true},
		{"charge failed", "charge.complete", `{"id":"chrg_1","status":"failed","metadata":{"booking_number":"PJ-1"}}`, true, KindCapture, false},
		{"refund created", "refund.create", `{"id":"rfnd_1","metadata":{"booking_number":"PJ-1"}}`, true, KindRefund, true},
		{"transfer paid", "transfer.pay", `{"id":"trsf_1","paid":true,"metadata":{"booking_number":"PJ-1"}}`, true, KindPayout, true},
		{"transfer failed", "transfer.fail", `{"id":"trsf_1","failure_code":"insufficient_balance","metadata":{"booking_number":"PJ-1"}}`, true, KindPayout, false},
		{"untracked", "customer.create", `{"id":"cust_1"}`, false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, ok, err := callbackFromEvent(tt.key, []byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.tracked {
				t.Fatalf("tracked = %v, want %v", ok, tt.tracked)
			}
			if !ok {
				return
			}
			if cb.Kind != tt.kind || cb.Succeeded != tt.succeeded || cb.BookingNumber != "PJ-1" {
				t.Fatalf("unexpected callback %+v", cb)
			}
		})
	}
}

func TestCallbackFromEvent_RequiresBookingNumber(t *testing.T) {
	if _, _, err := callbackFromEvent("charge.capture", []byte(`{"id":"chrg_1","status":"successful"}`)); err == nil {
		t.Fatal("expected an error for an event without booking metadata")
	}
}

func TestClassify(t *testing.T) {
	declined := classify(&omise.Error{StatusCode: 400, Code: "invalid_charge", Message: "charge was already captured"})
	if !errors.Is(declined, ErrDeclined) {
		t.Fatalf("expected 4xx to be a decline, got %v", declined)
	}

	outage := &omise.Error{StatusCode: 503, Code: "service_unavailable"}
	if errors.Is(classify(outage), ErrDeclined) {
		t.Fatal("expected 5xx to stay retryable")
	}
	network := fmt.Errorf("dial tcp: timeout")
	if classify(network) != network {
		t.Fatal("expected non-gateway errors to pass through")
	}
}

func TestSandbox(t *testing.T) {
	s := NewSandbox()
	if _, err := s.Capture(context.Background(), "PJ-1", "", 100); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected capture without reference to be declined, got %v", err)
	}
	ref, err := s.Capture(context.Background(), "PJ-1", "chrg_1", 100)
	if err != nil || ref != "chrg_1" {
		t.Fatalf("unexpected capture result %q %v", ref, err)
	}
	if ref, err := s.Refund(context.Background(), "PJ-1", "chrg_1", 50); err != nil || ref == "" {
		t.Fatalf("unexpected refund result %q %v", ref, err)
	}
}
