package refund

import (
	"errors"
	"testing"
	"testing/quick"
	"time"
)

var ist = time.FixedZone("IST", 5*3600+1800)

func eventAt(days int) (event, requested time.Time) {
	requested = time.Date(2026, 3, 10, 9, 30, 0, 0, ist)
	event = time.Date(2026, 3, 10, 7, 0, 0, 0, ist).AddDate(0, 0, days)
	return event, requested
}

func TestCompute_Tiers(t *testing.T) {
	cases := []struct {
		days    int
		wantBps int64
	}{
		{30, 9000},
		{8, 9000},
		{7, 5000},
		{5, 5000},
		{3, 5000},
		{2, 2000},
		{1, 2000},
		{0, 0},
		{-1, 0},
		{-10, 0},
	}

	for _, tc := range cases {
		event, requested := eventAt(tc.days)
		d, err := Compute(DefaultPolicy(), Input{EventDate: event, RequestedAt: requested, GrandTotal: 10000, NonRefundable: 1500})
		if err != nil {
			t.Fatalf("days=%d: expected no error, got %v", tc.days, err)
		}
		if d.DaysUntilEvent != tc.days {
			t.Fatalf("expected %d days until event, got %d", tc.days, d.DaysUntilEvent)
		}
		if d.TierBps != tc.wantBps {
			t.Fatalf("days=%d: expected %d bps, got %d (%s)", tc.days, tc.wantBps, d.TierBps, d.Tier)
		}
	}
}

func TestCompute_FiveDaysBefore(t *testing.T) {
	event, requested := eventAt(5)
	d, err := Compute(DefaultPolicy(), Input{EventDate: event, RequestedAt: requested, GrandTotal: 10000, NonRefundable: 1500})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.RefundableBase != 8500 {
		t.Fatalf("expected refundable base 8500, got %d", d.RefundableBase)
	}
	if d.Amount != 4250 || d.PolicyAmount != 4250 {
		t.Fatalf("expected refund 4250, got %d (policy %d)", d.Amount, d.PolicyAmount)
	}
}

func TestCompute_SameDay(t *testing.T) {
	requested := time.Date(2026, 3, 10, 6, 0, 0, 0, ist)
	event := time.Date(2026, 3, 10, 23, 0, 0, 0, ist)
	for _, total := range []int64{1, 8357, 2500000} {
		d, err := Compute(DefaultPolicy(), Input{EventDate: event, RequestedAt: requested, GrandTotal: total})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if d.Amount != 0 {
			t.Fatalf("expected no refund on the event day, got %d", d.Amount)
		}
	}
}

func TestDaysUntil_LateNightRequest(t *testing.T) {
	// 23:30 the evening before counts as one day out
	requested := time.Date(2026, 3, 9, 23, 30, 0, 0, ist)
	event := time.Date(2026, 3, 10, 6, 0, 0, 0, ist)
	if got := DaysUntil(event, requested); got != 1 {
		t.Fatalf("expected 1 day, got %d", got)
	}
	// the request instant is converted into the event's zone
	if got := DaysUntil(event, requested.UTC()); got != 1 {
		t.Fatalf("expected 1 day across zones, got %d", got)
	}
}

func TestDaysUntil_PartDaysRoundUp(t *testing.T) {
	cases := []struct {
		name      string
		requested time.Time
		event     time.Time
		want      int
	}{
		{"seven days and twenty two hours", time.Date(2026, 3, 10, 1, 0, 0, 0, ist), time.Date(2026, 3, 17, 23, 0, 0, 0, ist), 8},
		{"exactly seven days", time.Date(2026, 3, 10, 23, 0, 0, 0, ist), time.Date(2026, 3, 17, 23, 0, 0, 0, ist), 7},
		{"two days and one hour", time.Date(2026, 3, 10, 9, 0, 0, 0, ist), time.Date(2026, 3, 12, 10, 0, 0, 0, ist), 3},
		{"under an hour but the day before", time.Date(2026, 3, 9, 23, 45, 0, 0, ist), time.Date(2026, 3, 10, 0, 15, 0, 0, ist), 1},
		{"event morning", time.Date(2026, 3, 10, 0, 5, 0, 0, ist), time.Date(2026, 3, 10, 23, 0, 0, 0, ist), 0},
		{"day after", time.Date(2026, 3, 11, 8, 0, 0, 0, ist), time.Date(2026, 3, 10, 23, 0, 0, 0, ist), -1},
	}
	for _, tc := range cases {
		if got := DaysUntil(tc.event, tc.requested); got != tc.want {
			t.Errorf("%s: expected %d days, got %d", tc.name, tc.want, got)
		}
	}
}

func TestCompute_PartDayCrossesIntoHigherTier(t *testing.T) {
	requested := time.Date(2026, 3, 10, 1, 0, 0, 0, ist)
	event := time.Date(2026, 3, 17, 23, 0, 0, 0, ist)
	d, err := Compute(DefaultPolicy(), Input{EventDate: event, RequestedAt: requested, GrandTotal: 10000, NonRefundable: 1500})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d.DaysUntilEvent != 8 || d.TierBps != 9000 {
		t.Fatalf("expected 8 days at 9000 bps, got %d days at %d", d.DaysUntilEvent, d.TierBps)
	}
	if d.Amount != 7650 {
		t.Fatalf("expected refund 7650, got %d", d.Amount)
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	event, requested := eventAt(4)
	cases := []struct {
		name string
		in   Input
	}{
		{"missing event date", Input{RequestedAt: requested, GrandTotal: 100}},
		{"missing request time", Input{EventDate: event, GrandTotal: 100}},
		{"zero total", Input{EventDate: event, RequestedAt: requested}},
		{"negative total", Input{EventDate: event, RequestedAt: requested, GrandTotal: -5}},
		{"fee above total", Input{EventDate: event, RequestedAt: requested, GrandTotal: 100, NonRefundable: 101}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Compute(DefaultPolicy(), tc.in); !errors.Is(err, ErrInvalidRefundInput) {
				t.Fatalf("expected ErrInvalidRefundInput, got %v", err)
			}
		})
	}
}

func TestCompute_ExcludesPlatformFee(t *testing.T) {
	requested := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	property := func(total uint32, feeShare uint8, days int8) bool {
		grand := int64(total%5000000) + 1
		fee := grand * int64(feeShare%100) / 100
		in := Input{
			EventDate:     requested.AddDate(0, 0, int(days)),
			RequestedAt:   requested,
			GrandTotal:    grand,
			NonRefundable: fee,
		}
		d, err := Compute(DefaultPolicy(), in)
		if err != nil {
			return false
		}
		return d.Amount >= 0 && d.Amount <= grand-fee
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 1000}); err != nil {
		t.Fatal(err)
	}
}

func TestDecision_Override(t *testing.T) {
	event, requested := eventAt(5)
	d, err := Compute(DefaultPolicy(), Input{EventDate: event, RequestedAt: requested, GrandTotal: 10000, NonRefundable: 1500})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	t.Run("requires reason", func(t *testing.T) {
		if _, err := d.Override(6000, "  "); !errors.Is(err, ErrOverrideReasonEmpty) {
			t.Fatalf("expected ErrOverrideReasonEmpty, got %v", err)
		}
	})

	t.Run("rejects amount above grand total", func(t *testing.T) {
		if _, err := d.Override(10001, "goodwill"); !errors.Is(err, ErrInvalidRefundInput) {
			t.Fatalf("expected ErrInvalidRefundInput, got %v", err)
		}
	})

	t.Run("keeps policy amount visible", func(t *testing.T) {
		o, err := d.Override(7000, "officiant fell ill")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if o.Amount != 7000 || o.PolicyAmount != 4250 || !o.Overridden || o.OverrideReason != "officiant fell ill" {
			t.Fatalf("unexpected override decision %+v", o)
		}
		if d.Overridden {
			t.Fatalf("expected original decision untouched")
		}
	})
}

func TestFull(t *testing.T) {
	d := Full(8357)
	if d.Amount != 8357 || d.Tier != TierFull {
		t.Fatalf("unexpected full refund %+v", d)
	}
}
