package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"puja-booking/clock"
	"puja-booking/constants"
	"puja-booking/logger"
	addressModel "puja-booking/models/address"
	bookingModel "puja-booking/models/booking"
	"puja-booking/services/pricing"
)

// Store persists bookings. Implementations must make WithTx atomic and
// FindForUpdate must lock the booking row until the transaction ends.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Create(ctx context.Context, b *bookingModel.Booking) error
	Find(ctx context.Context, number string) (*bookingModel.Booking, error)
	FindForUpdate(ctx context.Context, number string) (*bookingModel.Booking, error)
	Save(ctx context.Context, b *bookingModel.Booking) error
	AppendTransition(ctx context.Context, t *bookingModel.StatusTransition) error
	PendingCancellation(ctx context.Context, bookingID uint) (*bookingModel.CancellationRequest, error)
	SaveCancellation(ctx context.Context, cr *bookingModel.CancellationRequest) error
	Cancellations(ctx context.Context, bookingID uint) ([]bookingModel.CancellationRequest, error)
	SnapshotEvent(ctx context.Context, b *bookingModel.Booking, eventType, actorID string) error
	ListByStatus(ctx context.Context, status bookingModel.BookingStatus) ([]bookingModel.Booking, error)
}

// Details are the customer-editable facts of a booking.
type Details struct {
	CeremonyType        string
	EventDate           time.Time
	MuhuratStart        *time.Time
	MuhuratEnd          *time.Time
	Attendees           int
	Venue               addressModel.Address
	ServiceFee          int64
	TravelRequired      bool
	TravelMode          pricing.TravelMode
	DistanceKm          float64
	TravelFacilitated   bool
	TravelDays          int
	FoodMode            pricing.FoodMode
	PujaDays            int
	AccommodationMode   pricing.AccommodationMode
	AccommodationNights int
	AllInclusivePackage bool
}

// Result is the committed booking plus what the transition changed.
type Result struct {
	Booking *bookingModel.Booking
	Outcome Outcome
}

// PaymentKind identifies which money movement a gateway callback reports.
type PaymentKind string

const (
	PaymentKindCapture PaymentKind = "capture"
	PaymentKindRefund  PaymentKind = "refund"
	PaymentKindPayout  PaymentKind = "payout"
)

type PaymentResult struct {
	Kind      PaymentKind
	Succeeded bool
	Reference string
}

// Engine runs the machine inside store transactions.
type Engine struct {
	store   Store
	machine *Machine
	clock   clock.Clock
}

func NewEngine(store Store, machine *Machine, clk clock.Clock) *Engine {
	return &Engine{store: store, machine: machine, clock: clk}
}

func (e *Engine) Machine() *Machine {
	return e.machine
}

// Quote prices details without storing anything.
func (e *Engine) Quote(d Details) (pricing.Breakdown, error) {
	return pricing.Compute(e.machine.RateCard, d.apply(&bookingModel.Booking{}).PricingInput())
}

// Create stores a new booking in CREATED with an initial quote.
func (e *Engine) Create(ctx context.Context, actor Actor, d Details) (*bookingModel.Booking, error) {
	now := e.clock.Now()
	if err := d.validate(now); err != nil {
		return nil, err
	}

	b := d.apply(&bookingModel.Booking{})
	breakdown, err := pricing.Compute(e.machine.RateCard, b.PricingInput())
	if err != nil {
		return nil, err
	}
	b.Pricing = breakdown
	b.BookingNumber = newBookingNumber(now)
	b.CustomerID = actor.ID
	b.Status = bookingModel.BookingStatusCreated
	b.TravelStatus = bookingModel.TravelStatusNone
	b.PaymentStatus = bookingModel.PaymentStatusNone
	b.PayoutStatus = bookingModel.PayoutStatusNone
	b.RefundStatus = bookingModel.RefundStatusNone
	b.CreatedBy = actor.ID
	b.CreatedAt = now
	b.UpdatedAt = now

	err = e.store.WithTx(ctx, func(tx Store) error {
		if err := tx.Create(ctx, b); err != nil {
			return err
		}
		return tx.SnapshotEvent(ctx, b, "created", actor.ID)
	})
	if err != nil {
		return nil, err
	}
	logger.Success(fmt.Sprintf("Booking %s created for customer %s", b.BookingNumber, b.CustomerID))
	return b, nil
}

// UpdateDetails edits and reprices a booking that has not been submitted yet.
func (e *Engine) UpdateDetails(ctx context.Context, number string, actor Actor, d Details) (*bookingModel.Booking, error) {
	now := e.clock.Now()
	if err := d.validate(now); err != nil {
		return nil, err
	}

	var updated *bookingModel.Booking
	err := e.store.WithTx(ctx, func(tx Store) error {
		current, err := tx.FindForUpdate(ctx, number)
		if err != nil {
			return err
		}
		switch actor.Role {
		case constants.RoleCustomer:
			if current.CustomerID != actor.ID {
				return ErrNotParty
			}
		case constants.RoleAdmin:
		default:
			return fmt.Errorf("%w: %s cannot edit booking details", ErrForbidden, actor.Role)
		}
		if current.Status != bookingModel.BookingStatusCreated {
			return fmt.Errorf("%w: details are locked once submitted", ErrIllegalTransition)
		}

		work := current.Clone()
		venueID := work.VenueAddressID
		d.apply(work)
		work.VenueAddress.ID = venueID
		breakdown, err := pricing.Compute(e.machine.RateCard, work.PricingInput())
		if err != nil {
			return err
		}
		work.Pricing = breakdown
		work.UpdatedBy = actor.ID
		work.UpdatedAt = now
		if err := verify(work); err != nil {
			return err
		}
		if err := tx.Save(ctx, work); err != nil {
			return err
		}
		updated = work
		return tx.SnapshotEvent(ctx, work, "updated", actor.ID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transition applies one trigger atomically: lock, validate, apply, append, persist.
func (e *Engine) Transition(ctx context.Context, number string, t Trigger) (*Result, error) {
	var result *Result
	err := e.store.WithTx(ctx, func(tx Store) error {
		current, err := tx.FindForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if current.Status == bookingModel.BookingStatusCancellationRequested {
			cr, err := tx.PendingCancellation(ctx, current.ID)
			if err != nil {
				return err
			}
			t.Cancellation = cr
		}

		work := current.Clone()
		out, err := e.machine.Apply(work, t, e.clock.Now())
		if err != nil {
			return err
		}
		if err := e.persist(ctx, tx, work, &out, string(t.Action), t.Actor.ID); err != nil {
			return err
		}
		result = &Result{Booking: work, Outcome: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(fmt.Sprintf("Booking %s: %s -> %s (%s by %s)", number,
		result.Outcome.Transition.FromStatus, result.Outcome.Transition.ToStatus, t.Action, t.Actor.ID))
	return result, nil
}

func (e *Engine) persist(ctx context.Context, tx Store, b *bookingModel.Booking, out *Outcome, eventType, actorID string) error {
	if err := tx.Save(ctx, b); err != nil {
		return err
	}
	if err := tx.AppendTransition(ctx, &out.Transition); err != nil {
		return err
	}
	b.Transitions[len(b.Transitions)-1] = out.Transition
	if out.Cancellation != nil {
		if err := tx.SaveCancellation(ctx, out.Cancellation); err != nil {
			return err
		}
	}
	return tx.SnapshotEvent(ctx, b, eventType, actorID)
}

// ApplyPaymentResult folds a gateway callback into the money statuses. A
// confirmed refund on a cancelled booking closes it as REFUNDED. Repeated
// callbacks leave the booking unchanged.
func (e *Engine) ApplyPaymentResult(ctx context.Context, number string, r PaymentResult) (*Result, error) {
	var result *Result
	err := e.store.WithTx(ctx, func(tx Store) error {
		current, err := tx.FindForUpdate(ctx, number)
		if err != nil {
			return err
		}
		work := current.Clone()
		changed, err := applyPayment(work, r)
		if err != nil {
			return err
		}
		result = &Result{Booking: work}
		if !changed {
			return nil
		}
		work.UpdatedAt = e.clock.Now()
		work.UpdatedBy = constants.SystemActorID
		eventType := fmt.Sprintf("%s_%s", r.Kind, outcomeLabel(r.Succeeded))

		if r.Kind == PaymentKindRefund && r.Succeeded && work.Status == bookingModel.BookingStatusCancelled {
			out, err := e.machine.Apply(work, Trigger{Action: ActionMarkRefunded, Actor: SystemActor(), Reason: "refund confirmed by payment gateway"}, work.UpdatedAt)
			if err != nil {
				return err
			}
			result.Outcome = out
			return e.persist(ctx, tx, work, &result.Outcome, eventType, constants.SystemActorID)
		}

		if err := tx.Save(ctx, work); err != nil {
			return err
		}
		return tx.SnapshotEvent(ctx, work, eventType, constants.SystemActorID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get returns the booking with its transition history and cancellation requests.
func (e *Engine) Get(ctx context.Context, number string) (*bookingModel.Booking, []bookingModel.CancellationRequest, error) {
	b, err := e.store.Find(ctx, number)
	if err != nil {
		return nil, nil, err
	}
	crs, err := e.store.Cancellations(ctx, b.ID)
	if err != nil {
		return nil, nil, err
	}
	return b, crs, nil
}

// AwaitingResponse lists bookings whose officiant has not answered yet.
func (e *Engine) AwaitingResponse(ctx context.Context) ([]bookingModel.Booking, error) {
	return e.store.ListByStatus(ctx, bookingModel.BookingStatusPanditRequested)
}

func applyPayment(b *bookingModel.Booking, r PaymentResult) (bool, error) {
	switch r.Kind {
	case PaymentKindCapture:
		next := bookingModel.PaymentStatusFailed
		if r.Succeeded {
			next = bookingModel.PaymentStatusCaptured
		}
		if b.PaymentStatus == next {
			return false, nil
		}
		if b.PaymentStatus == bookingModel.PaymentStatusCaptured {
			return false, fmt.Errorf("%w: payment already captured", ErrIllegalTransition)
		}
		b.PaymentStatus = next
		if r.Reference != "" && b.PaymentReference == nil {
			ref := r.Reference
			b.PaymentReference = &ref
		}
	case PaymentKindRefund:
		next := bookingModel.RefundStatusFailed
		if r.Succeeded {
			next = bookingModel.RefundStatusCompleted
		}
		if b.RefundStatus == next {
			return false, nil
		}
		if b.RefundStatus != bookingModel.RefundStatusPending && b.RefundStatus != bookingModel.RefundStatusFailed {
			return false, fmt.Errorf("%w: no refund in flight", ErrIllegalTransition)
		}
		b.RefundStatus = next
	case PaymentKindPayout:
		next := bookingModel.PayoutStatusFailed
		if r.Succeeded {
			next = bookingModel.PayoutStatusPaid
		}
		if b.PayoutStatus == next {
			return false, nil
		}
		if b.PayoutStatus != bookingModel.PayoutStatusPending && b.PayoutStatus != bookingModel.PayoutStatusFailed {
			return false, fmt.Errorf("%w: no payout in flight", ErrIllegalTransition)
		}
		b.PayoutStatus = next
	default:
		return false, fmt.Errorf("%w: unknown payment kind %q", ErrInvalidBooking, r.Kind)
	}
	return true, nil
}

func outcomeLabel(ok bool) string {
	if ok {
		return "succeeded"
	}
	return "failed"
}

func (d Details) validate(now time.Time) error {
	if strings.TrimSpace(d.CeremonyType) == "" {
		return fmt.Errorf("%w: ceremony type is required", ErrInvalidBooking)
	}
	if d.EventDate.IsZero() || !d.EventDate.After(now) {
		return fmt.Errorf("%w: event date must be in the future", ErrInvalidBooking)
	}
	if d.MuhuratStart != nil && d.MuhuratEnd != nil && d.MuhuratEnd.Before(*d.MuhuratStart) {
		return fmt.Errorf("%w: muhurat window ends before it starts", ErrInvalidBooking)
	}
	if strings.TrimSpace(d.Venue.StreetAddress) == "" || strings.TrimSpace(d.Venue.City) == "" {
		return fmt.Errorf("%w: venue street address and city are required", ErrInvalidBooking)
	}
	return nil
}

func (d Details) apply(b *bookingModel.Booking) *bookingModel.Booking {
	b.CeremonyType = strings.TrimSpace(d.CeremonyType)
	b.EventDate = d.EventDate
	b.MuhuratStart = d.MuhuratStart
	b.MuhuratEnd = d.MuhuratEnd
	b.Attendees = d.Attendees
	b.VenueAddress = d.Venue
	b.Pricing.Dakshina = d.ServiceFee
	b.TravelRequired = d.TravelRequired
	b.TravelMode = d.TravelMode
	b.DistanceKm = d.DistanceKm
	b.TravelFacilitated = d.TravelFacilitated
	b.TravelDays = d.TravelDays
	b.FoodMode = d.FoodMode
	if b.FoodMode == "" {
		b.FoodMode = pricing.FoodModeNone
	}
	b.PujaDays = d.PujaDays
	b.AccommodationMode = d.AccommodationMode
	if b.AccommodationMode == "" {
		b.AccommodationMode = pricing.AccommodationModeNone
	}
	b.AccommodationNights = d.AccommodationNights
	b.AllInclusivePackage = d.AllInclusivePackage
	return b
}

// newBookingNumber builds the human-readable booking number, e.g. PJ-20261016-7F3A9C.
func newBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("PJ-%s-%s", now.Format("20060102"), suffix)
}
