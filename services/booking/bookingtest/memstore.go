// Package bookingtest provides an in-memory booking store for tests.
package bookingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	bookingModel "puja-booking/models/booking"
	"puja-booking/services/booking"
)

// Event is a recorded snapshot call.
type Event struct {
	BookingNumber string
	Status        bookingModel.BookingStatus
	Type          string
	Actor         string
}

type state struct {
	nextID        uint
	bookings      map[string]*bookingModel.Booking
	transitions   map[uint][]bookingModel.StatusTransition
	cancellations []bookingModel.CancellationRequest
	events        []Event
}

func (s *state) copy() *state {
	cp := &state{
		nextID:        s.nextID,
		bookings:      make(map[string]*bookingModel.Booking, len(s.bookings)),
		transitions:   make(map[uint][]bookingModel.StatusTransition, len(s.transitions)),
		cancellations: append([]bookingModel.CancellationRequest(nil), s.cancellations...),
		events:        append([]Event(nil), s.events...),
	}
	for k, b := range s.bookings {
		cp.bookings[k] = b.Clone()
	}
	for k, ts := range s.transitions {
		cp.transitions[k] = append([]bookingModel.StatusTransition(nil), ts...)
	}
	return cp
}

// MemoryStore implements booking.Store. Transactions are serialised and
// rolled back on error, which is enough to model row locking in tests.
type MemoryStore struct {
	mu   *sync.Mutex
	st   **state
	inTx bool

	// FailSave makes the next Save return this error.
	FailSave error
}

func NewMemoryStore() *MemoryStore {
	st := &state{
		bookings:    map[string]*bookingModel.Booking{},
		transitions: map[uint][]bookingModel.StatusTransition{},
	}
	return &MemoryStore{mu: &sync.Mutex{}, st: &st}
}

func (m *MemoryStore) lock() func() {
	if m.inTx {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx booking.Store) error) error {
	if m.inTx {
		return fn(m)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	before := (*m.st).copy()
	tx := &MemoryStore{mu: m.mu, st: m.st, inTx: true, FailSave: m.FailSave}
	err := fn(tx)
	m.FailSave = tx.FailSave
	if err != nil {
		*m.st = before
		return err
	}
	return nil
}

func (m *MemoryStore) Create(ctx context.Context, b *bookingModel.Booking) error {
	defer m.lock()()
	s := *m.st
	if _, ok := s.bookings[b.BookingNumber]; ok {
		return fmt.Errorf("duplicate booking number %s", b.BookingNumber)
	}
	s.nextID++
	b.ID = s.nextID
	b.VenueAddressID = s.nextID
	b.VenueAddress.ID = s.nextID
	stored := b.Clone()
	stored.Transitions = nil
	s.bookings[b.BookingNumber] = stored
	return nil
}

func (m *MemoryStore) load(number string) (*bookingModel.Booking, error) {
	s := *m.st
	b, ok := s.bookings[number]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	out := b.Clone()
	out.Transitions = append([]bookingModel.StatusTransition(nil), s.transitions[b.ID]...)
	return out, nil
}

func (m *MemoryStore) Find(ctx context.Context, number string) (*bookingModel.Booking, error) {
	defer m.lock()()
	return m.load(number)
}

func (m *MemoryStore) FindForUpdate(ctx context.Context, number string) (*bookingModel.Booking, error) {
	defer m.lock()()
	return m.load(number)
}

func (m *MemoryStore) Save(ctx context.Context, b *bookingModel.Booking) error {
	defer m.lock()()
	if m.FailSave != nil {
		err := m.FailSave
		m.FailSave = nil
		return err
	}
	s := *m.st
	if _, ok := s.bookings[b.BookingNumber]; !ok {
		return booking.ErrBookingNotFound
	}
	stored := b.Clone()
	stored.Transitions = nil
	s.bookings[b.BookingNumber] = stored
	return nil
}

func (m *MemoryStore) AppendTransition(ctx context.Context, t *bookingModel.StatusTransition) error {
	defer m.lock()()
	s := *m.st
	for _, existing := range s.transitions[t.BookingID] {
		if existing.Seq == t.Seq {
			return fmt.Errorf("duplicate transition seq %d for booking %d", t.Seq, t.BookingID)
		}
	}
	s.nextID++
	t.ID = s.nextID
	s.transitions[t.BookingID] = append(s.transitions[t.BookingID], *t)
	return nil
}

func (m *MemoryStore) PendingCancellation(ctx context.Context, bookingID uint) (*bookingModel.CancellationRequest, error) {
	defer m.lock()()
	s := *m.st
	for i := len(s.cancellations) - 1; i >= 0; i-- {
		cr := s.cancellations[i]
		if cr.BookingID == bookingID && cr.Outcome == bookingModel.CancellationOutcomePending {
			return &cr, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) SaveCancellation(ctx context.Context, cr *bookingModel.CancellationRequest) error {
	defer m.lock()()
	s := *m.st
	if cr.ID == 0 {
		s.nextID++
		cr.ID = s.nextID
		s.cancellations = append(s.cancellations, *cr)
		return nil
	}
	for i := range s.cancellations {
		if s.cancellations[i].ID == cr.ID {
			s.cancellations[i] = *cr
			return nil
		}
	}
	return fmt.Errorf("cancellation request %d not found", cr.ID)
}

func (m *MemoryStore) Cancellations(ctx context.Context, bookingID uint) ([]bookingModel.CancellationRequest, error) {
	defer m.lock()()
	var out []bookingModel.CancellationRequest
	for _, cr := range (*m.st).cancellations {
		if cr.BookingID == bookingID {
			out = append(out, cr)
		}
	}
	return out, nil
}

func (m *MemoryStore) SnapshotEvent(ctx context.Context, b *bookingModel.Booking, eventType, actorID string) error {
	defer m.lock()()
	s := *m.st
	s.events = append(s.events, Event{BookingNumber: b.BookingNumber, Status: b.Status, Type: eventType, Actor: actorID})
	return nil
}

func (m *MemoryStore) ListByStatus(ctx context.Context, status bookingModel.BookingStatus) ([]bookingModel.Booking, error) {
	defer m.lock()()
	s := *m.st
	var out []bookingModel.Booking
	for number, b := range s.bookings {
		if b.Status != status {
			continue
		}
		full, err := m.load(number)
		if err != nil {
			return nil, err
		}
		out = append(out, *full)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Transitions returns the committed transition log of a booking.
func (m *MemoryStore) Transitions(number string) []bookingModel.StatusTransition {
	defer m.lock()()
	s := *m.st
	b, ok := s.bookings[number]
	if !ok {
		return nil
	}
	return append([]bookingModel.StatusTransition(nil), s.transitions[b.ID]...)
}

// Events returns the recorded snapshots in order.
func (m *MemoryStore) Events() []Event {
	defer m.lock()()
	return append([]Event(nil), (*m.st).events...)
}
