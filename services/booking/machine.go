package booking

import (
	"fmt"
	"strings"
	"time"

	"puja-booking/constants"
	bookingModel "puja-booking/models/booking"
	"puja-booking/services/pricing"
	"puja-booking/services/refund"
)

// DefaultAssignmentTimeout is the officiant's response window.
const DefaultAssignmentTimeout = 5 * time.Minute

// Actor is the authenticated caller behind a transition.
type Actor struct {
	ID   string         `json:"id"`
	Role constants.Role `json:"role"`
}

// SystemActor performs automatic transitions.
func SystemActor() Actor {
	return Actor{ID: constants.SystemActorID, Role: constants.RoleSystem}
}

// Trigger is an attempted transition with its action-specific parameters.
type Trigger struct {
	Action Action
	Actor  Actor
	Reason string

	// submit
	OfficiantID      string
	PaymentReference string

	// approve_cancellation
	RefundOverride       *int64
	RefundOverrideReason string

	// override
	Target bookingModel.BookingStatus

	// Cancellation is the pending request, loaded by the engine.
	Cancellation *bookingModel.CancellationRequest
}

// Outcome describes what a successful transition changed besides the status.
type Outcome struct {
	Transition     bookingModel.StatusTransition
	Cancellation   *bookingModel.CancellationRequest
	Refund         *refund.Decision
	RequestCapture bool
	RequestRefund  bool
	RequestPayout  bool
}

// Machine enforces the transition table and computes the money side effects.
type Machine struct {
	RateCard          pricing.RateCard
	RefundPolicy      refund.Policy
	AssignmentTimeout time.Duration
}

func NewMachine(card pricing.RateCard, policy refund.Policy, timeout time.Duration) *Machine {
	if timeout <= 0 {
		timeout = DefaultAssignmentTimeout
	}
	return &Machine{RateCard: card, RefundPolicy: policy, AssignmentTimeout: timeout}
}

// ResponseDeadline derives the officiant's deadline from the transition log.
// It is zero when the booking never entered PANDIT_REQUESTED.
func (m *Machine) ResponseDeadline(b *bookingModel.Booking) time.Time {
	t := b.LastTransitionInto(bookingModel.BookingStatusPanditRequested)
	if t == nil {
		return time.Time{}
	}
	return t.CreatedAt.Add(m.AssignmentTimeout)
}

// Available lists the actions the role could legally take right now.
func (m *Machine) Available(b *bookingModel.Booking, role constants.Role) []Action {
	var out []Action
	for _, a := range Actions() {
		rule := transitionTable[a]
		if !rule.allowsRole(role) || !rule.allowsFrom(b.Status) {
			continue
		}
		if a == ActionBookTravel && !b.TravelRequired {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Apply validates the trigger against b and mutates b in place. Callers
// pass a clone and discard it on error.
func (m *Machine) Apply(b *bookingModel.Booking, t Trigger, now time.Time) (Outcome, error) {
	rule, ok := transitionTable[t.Action]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, t.Action)
	}
	if !rule.allowsRole(t.Actor.Role) {
		return Outcome{}, fmt.Errorf("%w: %s cannot %s", ErrForbidden, t.Actor.Role, t.Action)
	}
	if err := checkParty(b, t); err != nil {
		return Outcome{}, err
	}
	if !rule.allowsFrom(b.Status) {
		return Outcome{}, fmt.Errorf("%w: cannot %s from %s", ErrIllegalTransition, t.Action, b.Status)
	}
	reason := strings.TrimSpace(t.Reason)
	if rule.ReasonRequired && reason == "" {
		return Outcome{}, fmt.Errorf("%w for %s", ErrReasonRequired, t.Action)
	}

	from := b.Status
	to := rule.To
	var out Outcome

	switch t.Action {
	case ActionSubmit:
		if strings.TrimSpace(t.OfficiantID) == "" {
			return Outcome{}, ErrOfficiantRequired
		}
		breakdown, err := pricing.Compute(m.RateCard, b.PricingInput())
		if err != nil {
			return Outcome{}, err
		}
		officiant := strings.TrimSpace(t.OfficiantID)
		b.Pricing = breakdown
		b.OfficiantID = &officiant
		if ref := strings.TrimSpace(t.PaymentReference); ref != "" {
			b.PaymentReference = &ref
		}
		b.PaymentStatus = bookingModel.PaymentStatusPending
		out.RequestCapture = true

	case ActionAccept:
		b.AcceptedAt = &now
		if b.TravelRequired {
			b.TravelStatus = bookingModel.TravelStatusPending
		}

	case ActionReject, ActionExpire:
		if t.Action == ActionExpire {
			deadline := m.ResponseDeadline(b)
			if deadline.IsZero() || now.Before(deadline) {
				return Outcome{}, fmt.Errorf("%w: response window open until %s", ErrIllegalTransition, deadline.Format(time.RFC3339))
			}
			reason = AutoRejectReason
		}
		if reason == "" {
			reason = "declined by officiant"
		}
		// the customer is not at fault, so everything taken goes back
		decision := refund.Full(b.Pricing.GrandTotal)
		m.cancel(b, &out, t.Actor, reason, now, &decision)

	case ActionBookTravel:
		if !b.TravelRequired {
			return Outcome{}, fmt.Errorf("%w: booking does not require travel", ErrIllegalTransition)
		}
		b.TravelStatus = bookingModel.TravelStatusBooked

	case ActionDepart:
		if b.TravelRequired {
			b.TravelStatus = bookingModel.TravelStatusInProgress
		}

	case ActionArrive:
		if b.TravelRequired {
			b.TravelStatus = bookingModel.TravelStatusCompleted
		}

	case ActionStartPuja:

	case ActionComplete:
		m.complete(b, &out, now)

	case ActionRequestCancellation:
		out.Cancellation = &bookingModel.CancellationRequest{
			BookingID:      b.ID,
			RequestedBy:    t.Actor.ID,
			RequestedAt:    now,
			Reason:         reason,
			PreviousStatus: from,
			Outcome:        bookingModel.CancellationOutcomePending,
		}

	case ActionApproveCancellation:
		cr, err := pendingCancellation(t)
		if err != nil {
			return Outcome{}, err
		}
		decision, err := m.policyRefund(b, cr.RequestedAt)
		if err != nil {
			return Outcome{}, err
		}
		if t.RefundOverride != nil {
			decision, err = decision.Override(*t.RefundOverride, t.RefundOverrideReason)
			if err != nil {
				return Outcome{}, err
			}
		}
		decide(cr, bookingModel.CancellationOutcomeApproved, t.Actor, reason, now, &decision)
		out.Cancellation = cr
		m.cancel(b, &out, t.Actor, cr.Reason, now, &decision)

	case ActionRejectCancellation:
		cr, err := pendingCancellation(t)
		if err != nil {
			return Outcome{}, err
		}
		decide(cr, bookingModel.CancellationOutcomeRejected, t.Actor, reason, now, nil)
		out.Cancellation = cr
		to = cr.PreviousStatus

	case ActionOverride:
		to = t.Target
		if !to.IsValid() || to == from {
			return Outcome{}, fmt.Errorf("%w: cannot override %s to %q", ErrIllegalTransition, from, to)
		}
		if err := m.override(b, &out, t, reason, now); err != nil {
			return Outcome{}, err
		}

	case ActionMarkRefunded:
		if b.RefundStatus != bookingModel.RefundStatusCompleted {
			return Outcome{}, fmt.Errorf("%w: refund not confirmed", ErrIllegalTransition)
		}
	}

	b.Status = to
	b.UpdatedBy = t.Actor.ID
	b.UpdatedAt = now
	if err := verify(b); err != nil {
		return Outcome{}, err
	}

	out.Transition = bookingModel.StatusTransition{
		BookingID:  b.ID,
		Seq:        b.NextSeq(),
		FromStatus: from,
		ToStatus:   to,
		Action:     string(t.Action),
		ActorID:    t.Actor.ID,
		ActorRole:  t.Actor.Role,
		Reason:     reason,
		Override:   t.Action == ActionOverride,
		CreatedAt:  now,
	}
	b.Transitions = append(b.Transitions, out.Transition)
	return out, nil
}

func (m *Machine) override(b *bookingModel.Booking, out *Outcome, t Trigger, reason string, now time.Time) error {
	note := fmt.Sprintf("[%s] %s -> %s by %s: %s", now.Format(time.RFC3339), b.Status, t.Target, t.Actor.ID, reason)
	if b.AdminNotes != "" {
		b.AdminNotes += "\n"
	}
	b.AdminNotes += note

	// an override supersedes any open cancellation request
	if cr := t.Cancellation; cr != nil && cr.Outcome == bookingModel.CancellationOutcomePending {
		outcome := bookingModel.CancellationOutcomeRejected
		if t.Target == bookingModel.BookingStatusCancelled {
			outcome = bookingModel.CancellationOutcomeApproved
		}
		out.Cancellation = cr
		if outcome == bookingModel.CancellationOutcomeRejected {
			decide(cr, outcome, t.Actor, "superseded by override: "+reason, now, nil)
		} else {
			decision, err := m.policyRefund(b, cr.RequestedAt)
			if err != nil {
				return err
			}
			decide(cr, outcome, t.Actor, "override: "+reason, now, &decision)
			m.cancel(b, out, t.Actor, reason, now, &decision)
			return nil
		}
	}

	switch t.Target {
	case bookingModel.BookingStatusCancelled:
		decision, err := m.policyRefund(b, now)
		if err != nil {
			return err
		}
		m.cancel(b, out, t.Actor, reason, now, &decision)
	case bookingModel.BookingStatusCompleted:
		m.complete(b, out, now)
	case bookingModel.BookingStatusCancellationRequested:
		// opened on the customer's behalf so approve and reject still apply
		out.Cancellation = &bookingModel.CancellationRequest{
			BookingID:      b.ID,
			RequestedBy:    t.Actor.ID,
			RequestedAt:    now,
			Reason:         reason,
			PreviousStatus: b.Status,
			Outcome:        bookingModel.CancellationOutcomePending,
		}
	case bookingModel.BookingStatusConfirmed:
		if b.AcceptedAt == nil {
			b.AcceptedAt = &now
		}
	}
	return nil
}

func (m *Machine) policyRefund(b *bookingModel.Booking, requestedAt time.Time) (refund.Decision, error) {
	return refund.Compute(m.RefundPolicy, refund.Input{
		EventDate:     b.EventDate,
		RequestedAt:   requestedAt,
		GrandTotal:    b.Pricing.GrandTotal,
		NonRefundable: b.Pricing.NonRefundable(),
	})
}

func (m *Machine) cancel(b *bookingModel.Booking, out *Outcome, actor Actor, reason string, now time.Time, decision *refund.Decision) {
	by := fmt.Sprintf("%s:%s", actor.Role, actor.ID)
	b.CancelledAt = &now
	b.CancelledBy = &by
	b.CancellationReason = &reason
	out.Refund = decision

	// nothing to return when no money was taken
	if decision == nil || !b.PaymentStatus.HoldsFunds() || decision.Amount <= 0 {
		return
	}
	b.RefundAmount = decision.Amount
	b.RefundStatus = bookingModel.RefundStatusPending
	out.RequestRefund = true
}

func (m *Machine) complete(b *bookingModel.Booking, out *Outcome, now time.Time) {
	b.CompletedAt = &now
	if b.Pricing.OfficiantPayout > 0 && b.OfficiantID != nil {
		b.PayoutStatus = bookingModel.PayoutStatusPending
		out.RequestPayout = true
	}
}

func pendingCancellation(t Trigger) (*bookingModel.CancellationRequest, error) {
	if t.Cancellation == nil || t.Cancellation.Outcome != bookingModel.CancellationOutcomePending {
		return nil, ErrCancellationDecided
	}
	return t.Cancellation, nil
}

func decide(cr *bookingModel.CancellationRequest, outcome bookingModel.CancellationOutcome, actor Actor, reason string, now time.Time, d *refund.Decision) {
	cr.Outcome = outcome
	cr.DecidedBy = &actor.ID
	cr.DecidedAt = &now
	if reason != "" {
		cr.DecisionReason = &reason
	}
	if d == nil {
		return
	}
	cr.DaysUntilEvent = d.DaysUntilEvent
	cr.Tier = d.Tier
	cr.TierBps = d.TierBps
	cr.PolicyAmount = d.PolicyAmount
	cr.RefundAmount = d.Amount
	if d.Overridden {
		amount := d.Amount
		overrideReason := d.OverrideReason
		cr.OverrideAmount = &amount
		cr.OverrideReason = &overrideReason
	}
}

func checkParty(b *bookingModel.Booking, t Trigger) error {
	switch t.Actor.Role {
	case constants.RoleCustomer:
		if b.CustomerID != t.Actor.ID {
			return ErrNotParty
		}
	case constants.RoleOfficiant:
		if b.OfficiantID == nil || *b.OfficiantID != t.Actor.ID {
			return ErrNotParty
		}
	}
	return nil
}

// verify re-checks the money invariants after every mutation.
func verify(b *bookingModel.Booking) error {
	if err := b.Pricing.Verify(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvariantViolated, err)
	}
	if b.RefundAmount < 0 || b.RefundAmount > b.Pricing.GrandTotal {
		return fmt.Errorf("%w: refund %d outside 0..%d", ErrInvariantViolated, b.RefundAmount, b.Pricing.GrandTotal)
	}
	return nil
}
