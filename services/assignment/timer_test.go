package assignment

import (
	"testing"
	"time"

	"puja-booking/clock"
)

var start = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type recorder struct {
	fired []string
}

func (r *recorder) expire(number string) {
	r.fired = append(r.fired, number)
}

func TestTimer_FiresExactlyAtDeadline(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, 5*time.Minute, rec.expire)

	timer.Start("PJ-1", clk.Now())
	clk.Advance(5*time.Minute - time.Second)
	if len(rec.fired) != 0 {
		t.Fatalf("expected no expiry before the deadline, got %v", rec.fired)
	}
	clk.Advance(time.Second)
	if len(rec.fired) != 1 || rec.fired[0] != "PJ-1" {
		t.Fatalf("expected exactly one expiry for PJ-1, got %v", rec.fired)
	}

	clk.Advance(time.Hour)
	if len(rec.fired) != 1 {
		t.Fatalf("expected the timer to fire once, got %d", len(rec.fired))
	}
	if _, ok := timer.Pending("PJ-1"); ok {
		t.Fatal("expected fired timer to be forgotten")
	}
}

func TestTimer_StopIsIdempotent(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, 5*time.Minute, rec.expire)

	timer.Start("PJ-1", clk.Now())
	if !timer.Stop("PJ-1") {
		t.Fatal("expected first stop to cancel a running countdown")
	}
	if timer.Stop("PJ-1") {
		t.Fatal("expected second stop to be a no-op")
	}
	clk.Advance(10 * time.Minute)
	if len(rec.fired) != 0 {
		t.Fatalf("expected no expiry after stop, got %v", rec.fired)
	}
}

func TestTimer_StopAfterFireIsNoop(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, time.Minute, rec.expire)

	timer.Start("PJ-1", clk.Now())
	clk.Advance(time.Minute)
	if timer.Stop("PJ-1") {
		t.Fatal("expected stop after fire to report nothing running")
	}
}

func TestTimer_RestartReplacesCountdown(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, 5*time.Minute, rec.expire)

	timer.Start("PJ-1", clk.Now())
	clk.Advance(3 * time.Minute)
	timer.Start("PJ-1", clk.Now())

	clk.Advance(3 * time.Minute)
	if len(rec.fired) != 0 {
		t.Fatalf("expected the first countdown to be replaced, got %v", rec.fired)
	}
	clk.Advance(2 * time.Minute)
	if len(rec.fired) != 1 {
		t.Fatalf("expected one expiry from the restarted countdown, got %v", rec.fired)
	}
}

func TestTimer_PastDeadlineFiresOnNextTick(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, 5*time.Minute, rec.expire)

	timer.Start("PJ-1", start.Add(-time.Hour))
	deadline, ok := timer.Pending("PJ-1")
	if !ok || !deadline.Equal(start.Add(-55*time.Minute)) {
		t.Fatalf("unexpected pending deadline %s", deadline)
	}
	clk.Advance(0)
	if len(rec.fired) != 1 {
		t.Fatalf("expected recovered timer to fire immediately, got %v", rec.fired)
	}
}

func TestTimer_IndependentBookings(t *testing.T) {
	clk := clock.NewFake(start)
	rec := &recorder{}
	timer := NewTimer(clk, 5*time.Minute, rec.expire)

	timer.Start("PJ-1", clk.Now())
	clk.Advance(time.Minute)
	timer.Start("PJ-2", clk.Now())
	timer.Stop("PJ-1")

	clk.Advance(5 * time.Minute)
	if len(rec.fired) != 1 || rec.fired[0] != "PJ-2" {
		t.Fatalf("expected only PJ-2 to expire, got %v", rec.fired)
	}
}
