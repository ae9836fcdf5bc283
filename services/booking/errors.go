package booking

import "errors"

var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrIllegalTransition   = errors.New("illegal transition")
	ErrForbidden           = errors.New("role may not perform this action")
	ErrNotParty            = errors.New("actor is not a party to this booking")
	ErrReasonRequired      = errors.New("a reason is required")
	ErrUnknownAction       = errors.New("unknown action")
	ErrOfficiantRequired   = errors.New("an officiant must be chosen")
	ErrCancellationDecided = errors.New("cancellation already decided")
	ErrInvariantViolated   = errors.New("booking invariant violated")
	ErrInvalidBooking      = errors.New("invalid booking details")
)
