package refund

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"puja-booking/money"
)

var (
	ErrInvalidRefundInput  = errors.New("invalid refund input")
	ErrOverrideReasonEmpty = errors.New("refund override requires a reason")
)

// TierFull is used when the booking fell through for reasons outside the
// customer's control.
const TierFull = "FULL"

// Tier maps a minimum number of days before the event to a refund share.
type Tier struct {
	Name    string `json:"name"`
	MinDays int    `json:"min_days"`
	Bps     int64  `json:"bps"`
}

type Policy struct {
	Tiers []Tier
}

// DefaultPolicy: more than 7 days 90%, 3-7 days 50%, 1-2 days 20%, same day 0%.
func DefaultPolicy() Policy {
	return Policy{Tiers: []Tier{
		{Name: "MORE_THAN_7_DAYS", MinDays: 8, Bps: 9000},
		{Name: "3_TO_7_DAYS", MinDays: 3, Bps: 5000},
		{Name: "1_TO_2_DAYS", MinDays: 1, Bps: 2000},
		{Name: "SAME_DAY", MinDays: math.MinInt32, Bps: 0},
	}}
}

// Validate checks the policy covers every day count with sane shares.
func (p Policy) Validate() error {
	if len(p.Tiers) == 0 {
		return fmt.Errorf("%w: refund policy has no tiers", ErrInvalidRefundInput)
	}
	for _, t := range p.Tiers {
		if !money.ValidBps(t.Bps) {
			return fmt.Errorf("%w: tier %s share %d bps out of range", ErrInvalidRefundInput, t.Name, t.Bps)
		}
	}
	return nil
}

func (p Policy) lookup(days int) Tier {
	tiers := append([]Tier(nil), p.Tiers...)
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinDays > tiers[j].MinDays })
	for _, t := range tiers {
		if days >= t.MinDays {
			return t
		}
	}
	return Tier{Name: "NONE"}
}

type Input struct {
	EventDate   time.Time
	RequestedAt time.Time
	GrandTotal  int64
	// NonRefundable is the platform fee plus its tax.
	NonRefundable int64
}

// Decision is the outcome of the refund policy. The policy amount is kept
// even when an admin override supersedes it.
type Decision struct {
	DaysUntilEvent int    `json:"days_until_event"`
	Tier           string `json:"tier"`
	TierBps        int64  `json:"tier_bps"`
	GrandTotal     int64  `json:"grand_total"`
	RefundableBase int64  `json:"refundable_base"`
	PolicyAmount   int64  `json:"policy_amount"`
	Amount         int64  `json:"amount"`
	Overridden     bool   `json:"overridden"`
	OverrideReason string `json:"override_reason,omitempty"`
}

// DaysUntil counts whole days left before the event, rounding any part day
// up. A request on the event's calendar day, in the event's time zone,
// yields 0; a request after it yields the negative calendar-day gap.
func DaysUntil(eventDate, requestedAt time.Time) int {
	requestedAt = requestedAt.In(eventDate.Location())
	eventDay := now.With(eventDate).BeginningOfDay()
	requestDay := now.With(requestedAt).BeginningOfDay()
	if !requestDay.Before(eventDay) {
		return int(math.Round(eventDay.Sub(requestDay).Hours() / 24))
	}
	days := int(math.Ceil(eventDate.Sub(requestedAt).Hours() / 24))
	if days < 1 {
		return 1
	}
	return days
}

// Compute applies the tiered policy to a cancellation request.
func Compute(policy Policy, in Input) (Decision, error) {
	if err := policy.Validate(); err != nil {
		return Decision{}, err
	}
	if in.EventDate.IsZero() {
		return Decision{}, fmt.Errorf("%w: event date is required", ErrInvalidRefundInput)
	}
	if in.RequestedAt.IsZero() {
		return Decision{}, fmt.Errorf("%w: request time is required", ErrInvalidRefundInput)
	}
	if in.GrandTotal <= 0 {
		return Decision{}, fmt.Errorf("%w: grand total must be positive", ErrInvalidRefundInput)
	}
	if in.NonRefundable < 0 || in.NonRefundable > in.GrandTotal {
		return Decision{}, fmt.Errorf("%w: non-refundable component %d outside 0..%d", ErrInvalidRefundInput, in.NonRefundable, in.GrandTotal)
	}

	days := DaysUntil(in.EventDate, in.RequestedAt)
	tier := policy.lookup(days)
	base := in.GrandTotal - in.NonRefundable
	amount := money.ApplyBps(base, tier.Bps)

	return Decision{
		DaysUntilEvent: days,
		Tier:           tier.Name,
		TierBps:        tier.Bps,
		GrandTotal:     in.GrandTotal,
		RefundableBase: base,
		PolicyAmount:   amount,
		Amount:         amount,
	}, nil
}

// Full refunds the entire grand total.
func Full(grandTotal int64) Decision {
	return Decision{
		Tier:           TierFull,
		TierBps:        money.BpsDenominator,
		GrandTotal:     grandTotal,
		RefundableBase: grandTotal,
		PolicyAmount:   grandTotal,
		Amount:         grandTotal,
	}
}

// Override supersedes the policy amount with an admin decision.
func (d Decision) Override(amount int64, reason string) (Decision, error) {
	if strings.TrimSpace(reason) == "" {
		return d, ErrOverrideReasonEmpty
	}
	if amount < 0 || amount > d.GrandTotal {
		return d, fmt.Errorf("%w: override amount %d outside 0..%d", ErrInvalidRefundInput, amount, d.GrandTotal)
	}
	d.Amount = amount
	d.Overridden = true
	d.OverrideReason = strings.TrimSpace(reason)
	return d, nil
}
