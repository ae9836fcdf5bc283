package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"puja-booking/clock"
	"puja-booking/constants"
	"puja-booking/httpServices/notify"
	"puja-booking/httpServices/payment"
	"puja-booking/logger"
	"puja-booking/metrics"
	bookingModel "puja-booking/models/booking"
	"puja-booking/services/assignment"
	"puja-booking/services/booking"
	"puja-booking/services/dispatch"
	"puja-booking/services/pricing"
)

var (
	// ErrConcurrentModification means the booking stayed locked past the wait
	// bound. Nothing was committed, so the whole call can be retried.
	ErrConcurrentModification = errors.New("booking is being modified, try again")
	// ErrRequestExpired is what an officiant sees when answering after the
	// response window closed.
	ErrRequestExpired = errors.New("request expired")

	errCaptureOutstanding = errors.New("capture not settled yet")
	errNothingCaptured    = errors.New("no captured payment to refund")
)

const DefaultLockWait = 3 * time.Second

// Payments executes money movements. Implementations return the gateway
// reference and wrap refusals in payment.ErrDeclined.
type Payments interface {
	Capture(ctx context.Context, bookingNumber, reference string, amount int64) (string, error)
	Refund(ctx context.Context, bookingNumber, reference string, amount int64) (string, error)
	Payout(ctx context.Context, bookingNumber, recipient string, amount int64) (string, error)
}

// Enqueuer accepts side-effect jobs. *dispatch.Dispatcher satisfies it.
type Enqueuer interface {
	Enqueue(job dispatch.Job) error
}

// View is a booking as one actor sees it.
type View struct {
	Booking          *bookingModel.Booking              `json:"booking"`
	Cancellations    []bookingModel.CancellationRequest `json:"cancellations"`
	Available        []booking.Action                   `json:"available_actions"`
	ResponseDeadline *time.Time                         `json:"response_deadline,omitempty"`
}

type Option func(*Orchestrator)

func WithLockWait(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.lockWait = d
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

func WithPayments(p Payments) Option {
	return func(o *Orchestrator) { o.payments = p }
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator exposes one method per actor event. Calls on the same
// booking are serialised; side effects run after the commit.
type Orchestrator struct {
	engine   *booking.Engine
	clock    clock.Clock
	jobs     Enqueuer
	timer    *assignment.Timer
	locks    *keyedLock
	lockWait time.Duration
	notifier notify.Notifier
	payments Payments
	metrics  *metrics.BookingMetrics
}

func New(engine *booking.Engine, clk clock.Clock, jobs Enqueuer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:   engine,
		clock:    clk,
		jobs:     jobs,
		locks:    newKeyedLock(),
		lockWait: DefaultLockWait,
		notifier: notify.NewConsole(),
		payments: payment.NewSandbox(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.timer = assignment.NewTimer(clk, engine.Machine().AssignmentTimeout, o.onResponseWindowLapsed)
	return o
}

// Timer exposes the running response countdowns.
func (o *Orchestrator) Timer() *assignment.Timer {
	return o.timer
}

func (o *Orchestrator) Quote(d booking.Details) (pricing.Breakdown, error) {
	return o.engine.Quote(d)
}

func (o *Orchestrator) Create(ctx context.Context, actor booking.Actor, d booking.Details) (*bookingModel.Booking, error) {
	if actor.Role != constants.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers create bookings", booking.ErrForbidden)
	}
	return o.engine.Create(ctx, actor, d)
}

func (o *Orchestrator) UpdateDetails(ctx context.Context, actor booking.Actor, number string, d booking.Details) (*bookingModel.Booking, error) {
	release, err := o.locks.acquire(ctx, number, o.lockWait)
	if err != nil {
		return nil, err
	}
	defer release()
	return o.engine.UpdateDetails(ctx, number, actor, d)
}

func (o *Orchestrator) Submit(ctx context.Context, actor booking.Actor, number, officiantID, paymentReference string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{
		Action:           booking.ActionSubmit,
		Actor:            actor,
		OfficiantID:      officiantID,
		PaymentReference: paymentReference,
	})
}

func (o *Orchestrator) Accept(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.respond(ctx, number, booking.Trigger{Action: booking.ActionAccept, Actor: actor})
}

func (o *Orchestrator) Reject(ctx context.Context, actor booking.Actor, number, reason string) (*bookingModel.Booking, error) {
	return o.respond(ctx, number, booking.Trigger{Action: booking.ActionReject, Actor: actor, Reason: reason})
}

// Expire auto-rejects a booking whose response window lapsed.
func (o *Orchestrator) Expire(ctx context.Context, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionExpire, Actor: booking.SystemActor()})
}

func (o *Orchestrator) BookTravel(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionBookTravel, Actor: actor})
}

func (o *Orchestrator) Depart(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionDepart, Actor: actor})
}

func (o *Orchestrator) Arrive(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionArrive, Actor: actor})
}

func (o *Orchestrator) StartPuja(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionStartPuja, Actor: actor})
}

func (o *Orchestrator) Complete(ctx context.Context, actor booking.Actor, number string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionComplete, Actor: actor})
}

func (o *Orchestrator) RequestCancellation(ctx context.Context, actor booking.Actor, number, reason string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionRequestCancellation, Actor: actor, Reason: reason})
}

// ApproveCancellation applies the refund policy, or overrideAmount when given.
func (o *Orchestrator) ApproveCancellation(ctx context.Context, actor booking.Actor, number string, overrideAmount *int64, overrideReason, note string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{
		Action:               booking.ActionApproveCancellation,
		Actor:                actor,
		Reason:               note,
		RefundOverride:       overrideAmount,
		RefundOverrideReason: overrideReason,
	})
}

func (o *Orchestrator) RejectCancellation(ctx context.Context, actor booking.Actor, number, reason string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionRejectCancellation, Actor: actor, Reason: reason})
}

func (o *Orchestrator) Override(ctx context.Context, actor booking.Actor, number string, target bookingModel.BookingStatus, reason string) (*bookingModel.Booking, error) {
	return o.transition(ctx, number, booking.Trigger{Action: booking.ActionOverride, Actor: actor, Target: target, Reason: reason})
}

// HandlePaymentCallback folds a verified gateway result into the booking.
func (o *Orchestrator) HandlePaymentCallback(ctx context.Context, cb payment.Callback) (*bookingModel.Booking, error) {
	release, err := o.locks.acquire(ctx, cb.BookingNumber, o.lockWait)
	if err != nil {
		return nil, err
	}
	res, err := o.engine.ApplyPaymentResult(ctx, cb.BookingNumber, booking.PaymentResult{
		Kind:      booking.PaymentKind(cb.Kind),
		Succeeded: cb.Succeeded,
		Reference: cb.Reference,
	})
	release()
	if err != nil {
		logger.Error(fmt.Sprintf("Payment callback %s for %s rejected", cb.Kind, cb.BookingNumber), err)
		return nil, err
	}
	if res.Outcome.Transition.Action != "" {
		o.afterCommit(res)
	}
	return res.Booking, nil
}

// Get returns the booking as actor may see it.
func (o *Orchestrator) Get(ctx context.Context, actor booking.Actor, number string) (*View, error) {
	b, crs, err := o.engine.Get(ctx, number)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case constants.RoleCustomer:
		if b.CustomerID != actor.ID {
			return nil, booking.ErrNotParty
		}
	case constants.RoleOfficiant:
		if b.OfficiantID == nil || *b.OfficiantID != actor.ID {
			return nil, booking.ErrNotParty
		}
	case constants.RoleAdmin, constants.RoleLogistics:
	default:
		return nil, fmt.Errorf("%w: %q cannot read bookings", booking.ErrForbidden, actor.Role)
	}
	v := &View{
		Booking:       b,
		Cancellations: crs,
		Available:     o.engine.Machine().Available(b, actor.Role),
	}
	if b.Status == bookingModel.BookingStatusPanditRequested {
		deadline := o.engine.Machine().ResponseDeadline(b)
		v.ResponseDeadline = &deadline
	}
	return v, nil
}

// Recover restarts response countdowns from the transition log. Deadlines
// that passed while the process was down fire straight away.
func (o *Orchestrator) Recover(ctx context.Context) (int, error) {
	awaiting, err := o.engine.AwaitingResponse(ctx)
	if err != nil {
		return 0, err
	}
	for i := range awaiting {
		b := &awaiting[i]
		requested := b.LastTransitionInto(bookingModel.BookingStatusPanditRequested)
		if requested == nil {
			logger.Warning(fmt.Sprintf("Booking %s awaits a response but has no request transition", b.BookingNumber))
			continue
		}
		o.timer.Start(b.BookingNumber, requested.CreatedAt)
	}
	logger.Info(fmt.Sprintf("Recovered %d response timers", len(awaiting)))
	return len(awaiting), nil
}

func (o *Orchestrator) transition(ctx context.Context, number string, t booking.Trigger) (*bookingModel.Booking, error) {
	release, err := o.locks.acquire(ctx, number, o.lockWait)
	if err != nil {
		o.recordRejected(t.Action, err)
		return nil, err
	}
	res, err := o.engine.Transition(ctx, number, t)
	release()
	if err != nil {
		o.recordRejected(t.Action, err)
		return nil, err
	}
	o.afterCommit(res)
	return res.Booking, nil
}

// respond handles the officiant's answer. The deadline is checked against
// the transition log, so an answer after it expires the booking even when
// the in-memory countdown has not fired yet.
func (o *Orchestrator) respond(ctx context.Context, number string, t booking.Trigger) (*bookingModel.Booking, error) {
	release, err := o.locks.acquire(ctx, number, o.lockWait)
	if err != nil {
		o.recordRejected(t.Action, err)
		return nil, err
	}

	current, _, err := o.engine.Get(ctx, number)
	if err != nil {
		release()
		return nil, err
	}
	if t.Actor.Role == constants.RoleOfficiant && (current.OfficiantID == nil || *current.OfficiantID != t.Actor.ID) {
		release()
		o.recordRejected(t.Action, booking.ErrNotParty)
		return nil, booking.ErrNotParty
	}

	if expiredByTimer(current) {
		release()
		o.recordRejected(t.Action, ErrRequestExpired)
		return nil, ErrRequestExpired
	}

	deadline := o.engine.Machine().ResponseDeadline(current)
	if current.Status == bookingModel.BookingStatusPanditRequested && !o.clock.Now().Before(deadline) {
		res, expErr := o.engine.Transition(ctx, number, booking.Trigger{Action: booking.ActionExpire, Actor: booking.SystemActor()})
		release()
		if expErr != nil {
			logger.Error(fmt.Sprintf("Expiring %s on a late %s failed", number, t.Action), expErr)
		} else {
			o.afterCommit(res)
		}
		o.recordRejected(t.Action, ErrRequestExpired)
		return nil, ErrRequestExpired
	}

	res, err := o.engine.Transition(ctx, number, t)
	release()
	if err != nil {
		o.recordRejected(t.Action, err)
		return nil, err
	}
	o.afterCommit(res)
	return res.Booking, nil
}

func expiredByTimer(b *bookingModel.Booking) bool {
	if b.Status != bookingModel.BookingStatusCancelled || len(b.Transitions) == 0 {
		return false
	}
	return b.Transitions[len(b.Transitions)-1].Action == string(booking.ActionExpire)
}

func (o *Orchestrator) onResponseWindowLapsed(number string) {
	_, err := o.Expire(context.Background(), number)
	switch {
	case err == nil:
	case errors.Is(err, booking.ErrIllegalTransition):
		o.rearm(number, err)
	case errors.Is(err, ErrConcurrentModification):
		logger.Warning(fmt.Sprintf("Booking %s busy at expiry, retrying", number))
		o.clock.AfterFunc(time.Second, func() { o.onResponseWindowLapsed(number) })
	default:
		logger.Error(fmt.Sprintf("Expiring booking %s failed", number), err)
	}
}

// rearm restarts a countdown that fired before the logged deadline. Once the
// officiant has answered there is nothing left to time.
func (o *Orchestrator) rearm(number string, cause error) {
	b, _, err := o.engine.Get(context.Background(), number)
	if err != nil {
		logger.Error(fmt.Sprintf("Loading booking %s after an early expiry failed", number), err)
		return
	}
	requested := b.LastTransitionInto(bookingModel.BookingStatusPanditRequested)
	if b.Status != bookingModel.BookingStatusPanditRequested || requested == nil {
		logger.Debug(fmt.Sprintf("Expiry of %s absorbed: %v", number, cause))
		return
	}
	if _, running := o.timer.Pending(number); running {
		return
	}
	logger.Warning(fmt.Sprintf("Response timer for %s fired early, rearming", number))
	o.timer.Start(number, requested.CreatedAt)
}

// afterCommit starts or stops the countdown and hands notifications and
// payment commands to the dispatcher. Nothing here can undo the commit.
func (o *Orchestrator) afterCommit(res *booking.Result) {
	b := res.Booking
	tr := res.Outcome.Transition
	o.recordTransition(tr)

	switch {
	case tr.ToStatus == bookingModel.BookingStatusPanditRequested:
		o.timer.Start(b.BookingNumber, tr.CreatedAt)
	case tr.FromStatus == bookingModel.BookingStatusPanditRequested:
		o.timer.Stop(b.BookingNumber)
	}

	if res.Outcome.RequestCapture {
		o.enqueue(o.captureJob(b))
	}
	if res.Outcome.RequestRefund {
		o.enqueue(o.refundJob(b))
	}
	if res.Outcome.RequestPayout {
		o.enqueue(o.payoutJob(b))
	}
	o.enqueue(o.notifyJob(b, tr))
}

func (o *Orchestrator) enqueue(job dispatch.Job) {
	if err := o.jobs.Enqueue(job); err != nil {
		logger.Error(fmt.Sprintf("Could not dispatch %s", job), err)
		o.recordDispatch(job.Kind, "dropped")
	}
}

func (o *Orchestrator) captureJob(b *bookingModel.Booking) dispatch.Job {
	number, amount := b.BookingNumber, b.Pricing.GrandTotal
	var reference string
	if b.PaymentReference != nil {
		reference = *b.PaymentReference
	}
	return dispatch.Job{Kind: "capture", BookingNumber: number, Run: func(ctx context.Context) error {
		ref, err := o.payments.Capture(ctx, number, reference, amount)
		return o.settle(ctx, number, payment.KindCapture, ref, err)
	}}
}

func (o *Orchestrator) refundJob(b *bookingModel.Booking) dispatch.Job {
	number, amount := b.BookingNumber, b.RefundAmount
	var reference string
	if b.PaymentReference != nil {
		reference = *b.PaymentReference
	}
	return dispatch.Job{Kind: "refund", BookingNumber: number, Run: func(ctx context.Context) error {
		// a refund goes out only against a settled capture
		current, _, err := o.engine.Get(ctx, number)
		if err != nil {
			return err
		}
		switch current.PaymentStatus {
		case bookingModel.PaymentStatusCaptured:
		case bookingModel.PaymentStatusPending:
			return fmt.Errorf("%w: %s", errCaptureOutstanding, number)
		default:
			logger.Warning(fmt.Sprintf("Refund for %s skipped, payment is %s", number, current.PaymentStatus))
			return dispatch.Permanent(fmt.Errorf("%w: %s", errNothingCaptured, number))
		}
		ref, err := o.payments.Refund(ctx, number, reference, amount)
		return o.settle(ctx, number, payment.KindRefund, ref, err)
	}}
}

func (o *Orchestrator) payoutJob(b *bookingModel.Booking) dispatch.Job {
	number, amount := b.BookingNumber, b.Pricing.OfficiantPayout
	recipient := *b.OfficiantID
	return dispatch.Job{Kind: "payout", BookingNumber: number, Run: func(ctx context.Context) error {
		ref, err := o.payments.Payout(ctx, number, recipient, amount)
		return o.settle(ctx, number, payment.KindPayout, ref, err)
	}}
}

// settle records the gateway's answer. Declines are final; anything else
// is returned so the dispatcher retries.
func (o *Orchestrator) settle(ctx context.Context, number string, kind payment.Kind, ref string, callErr error) error {
	if callErr != nil && !errors.Is(callErr, payment.ErrDeclined) {
		return callErr
	}
	cb := payment.Callback{BookingNumber: number, Kind: kind, Succeeded: callErr == nil, Reference: ref}
	if _, err := o.HandlePaymentCallback(ctx, cb); err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return err
		}
		return dispatch.Permanent(err)
	}
	if callErr != nil {
		return dispatch.Permanent(callErr)
	}
	return nil
}

func (o *Orchestrator) notifyJob(b *bookingModel.Booking, tr bookingModel.StatusTransition) dispatch.Job {
	n := notify.Notification{
		Event:         eventFor(tr),
		BookingNumber: b.BookingNumber,
		Status:        string(tr.ToStatus),
		Recipients:    recipients(b),
		Reason:        tr.Reason,
		OccurredAt:    tr.CreatedAt,
	}
	if tr.ToStatus == bookingModel.BookingStatusCancelled || tr.ToStatus == bookingModel.BookingStatusRefunded {
		n.Amount = b.RefundAmount
	}
	return dispatch.Job{Kind: "notify", BookingNumber: b.BookingNumber, Run: func(ctx context.Context) error {
		return o.notifier.Notify(ctx, n)
	}}
}

func eventFor(tr bookingModel.StatusTransition) string {
	switch booking.Action(tr.Action) {
	case booking.ActionSubmit:
		return notify.EventBookingSubmitted
	case booking.ActionAccept:
		return notify.EventBookingConfirmed
	case booking.ActionExpire:
		return notify.EventAssignmentExpired
	case booking.ActionRequestCancellation:
		return notify.EventCancellationRequest
	case booking.ActionRejectCancellation:
		return notify.EventCancellationRejected
	case booking.ActionMarkRefunded:
		return notify.EventRefundIssued
	}
	if tr.ToStatus == bookingModel.BookingStatusCancelled {
		return notify.EventBookingCancelled
	}
	return notify.EventBookingStatusChanged
}

func recipients(b *bookingModel.Booking) []string {
	out := []string{b.CustomerID}
	if b.OfficiantID != nil {
		out = append(out, *b.OfficiantID)
	}
	return out
}

func (o *Orchestrator) recordTransition(tr bookingModel.StatusTransition) {
	if o.metrics == nil {
		return
	}
	o.metrics.Transitions.WithLabelValues(tr.Action, string(tr.FromStatus), string(tr.ToStatus)).Inc()
	if tr.Action == string(booking.ActionExpire) {
		o.metrics.Expiries.Inc()
	}
}

func (o *Orchestrator) recordRejected(action booking.Action, err error) {
	if o.metrics == nil {
		return
	}
	o.metrics.RejectedTriggers.WithLabelValues(string(action), rejectionLabel(err)).Inc()
}

// RecordDispatch counts a finished job. Wire it to the dispatcher callbacks.
func (o *Orchestrator) RecordDispatch(job dispatch.Job, err error) {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
	}
	o.recordDispatch(job.Kind, outcome)
}

func (o *Orchestrator) recordDispatch(kind, outcome string) {
	if o.metrics == nil {
		return
	}
	o.metrics.Dispatches.WithLabelValues(kind, outcome).Inc()
}

func rejectionLabel(err error) string {
	switch {
	case errors.Is(err, ErrRequestExpired):
		return "expired"
	case errors.Is(err, ErrConcurrentModification):
		return "busy"
	case errors.Is(err, booking.ErrIllegalTransition):
		return "illegal"
	case errors.Is(err, booking.ErrForbidden):
		return "forbidden"
	case errors.Is(err, booking.ErrNotParty):
		return "not_party"
	case errors.Is(err, booking.ErrReasonRequired):
		return "reason_required"
	case errors.Is(err, booking.ErrCancellationDecided):
		return "decided"
	case errors.Is(err, booking.ErrBookingNotFound):
		return "not_found"
	default:
		return "other"
	}
}
