package assignment

import (
	"fmt"
	"sync"
	"time"

	"puja-booking/clock"
	"puja-booking/logger"
)

// ExpireFunc is called once when an officiant's response window lapses.
type ExpireFunc func(bookingNumber string)

type entry struct {
	handle   clock.Timer
	deadline time.Time
}

// Timer tracks one response countdown per booking.
type Timer struct {
	clock    clock.Clock
	duration time.Duration
	onExpire ExpireFunc

	mu      sync.Mutex
	pending map[string]*entry
}

func NewTimer(clk clock.Clock, duration time.Duration, onExpire ExpireFunc) *Timer {
	return &Timer{
		clock:    clk,
		duration: duration,
		onExpire: onExpire,
		pending:  make(map[string]*entry),
	}
}

// Deadline is the moment the countdown started at requestedAt runs out.
func (t *Timer) Deadline(requestedAt time.Time) time.Time {
	return requestedAt.Add(t.duration)
}

// Start schedules the countdown, replacing any running one for the booking.
// A deadline already in the past fires on the next tick.
func (t *Timer) Start(bookingNumber string, requestedAt time.Time) {
	deadline := t.Deadline(requestedAt)
	delay := deadline.Sub(t.clock.Now())
	if delay < 0 {
		delay = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if prev, ok := t.pending[bookingNumber]; ok {
		prev.handle.Stop()
	}
	e := &entry{deadline: deadline}
	e.handle = t.clock.AfterFunc(delay, func() { t.fire(bookingNumber, e) })
	t.pending[bookingNumber] = e
	logger.Debug(fmt.Sprintf("Response timer for %s runs until %s", bookingNumber, deadline.Format(time.RFC3339)))
}

// Stop cancels the countdown. It reports whether a countdown was running.
func (t *Timer) Stop(bookingNumber string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[bookingNumber]
	if !ok {
		return false
	}
	delete(t.pending, bookingNumber)
	e.handle.Stop()
	return true
}

// Pending returns the deadline of a running countdown.
func (t *Timer) Pending(bookingNumber string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.pending[bookingNumber]
	if !ok {
		return time.Time{}, false
	}
	return e.deadline, true
}

func (t *Timer) fire(bookingNumber string, e *entry) {
	t.mu.Lock()
	current, ok := t.pending[bookingNumber]
	if !ok || current != e {
		// stopped or replaced after the clock released it
		t.mu.Unlock()
		return
	}
	delete(t.pending, bookingNumber)
	t.mu.Unlock()

	logger.Warning(fmt.Sprintf("Response window for booking %s lapsed", bookingNumber))
	t.onExpire(bookingNumber)
}
