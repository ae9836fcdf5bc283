package booking

import (
	"puja-booking/constants"
	bookingModel "puja-booking/models/booking"
)

type Action string

const (
	ActionSubmit              Action = "submit"
	ActionAccept              Action = "accept"
	ActionReject              Action = "reject"
	ActionExpire              Action = "expire"
	ActionBookTravel          Action = "book_travel"
	ActionDepart              Action = "depart"
	ActionArrive              Action = "arrive"
	ActionStartPuja           Action = "start_puja"
	ActionComplete            Action = "complete"
	ActionRequestCancellation Action = "request_cancellation"
	ActionApproveCancellation Action = "approve_cancellation"
	ActionRejectCancellation  Action = "reject_cancellation"
	ActionOverride            Action = "override"
	ActionMarkRefunded        Action = "mark_refunded"
)

// AutoRejectReason is recorded when the officiant lets the response window lapse.
const AutoRejectReason = "auto-rejected: response timer expired"

// Rule is one row of the transition table. An empty To means the
// destination is chosen at apply time (restored status or override target).
type Rule struct {
	From           []bookingModel.BookingStatus
	To             bookingModel.BookingStatus
	Roles          []constants.Role
	ReasonRequired bool
}

func (r Rule) allowsFrom(s bookingModel.BookingStatus) bool {
	for _, f := range r.From {
		if f == s {
			return true
		}
	}
	return false
}

func (r Rule) allowsRole(role constants.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

func nonTerminalStatuses(except ...bookingModel.BookingStatus) []bookingModel.BookingStatus {
	var out []bookingModel.BookingStatus
next:
	for _, s := range bookingModel.GetAllBookingStatuses() {
		if s.IsTerminal() {
			continue
		}
		for _, e := range except {
			if s == e {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

var transitionTable = map[Action]Rule{
	ActionSubmit: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusCreated},
		To:    bookingModel.BookingStatusPanditRequested,
		Roles: []constants.Role{constants.RoleCustomer},
	},
	ActionAccept: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPanditRequested},
		To:    bookingModel.BookingStatusConfirmed,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionReject: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPanditRequested},
		To:    bookingModel.BookingStatusCancelled,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionExpire: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPanditRequested},
		To:    bookingModel.BookingStatusCancelled,
		Roles: []constants.Role{constants.RoleSystem},
	},
	ActionBookTravel: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusConfirmed},
		To:    bookingModel.BookingStatusTravelBooked,
		Roles: []constants.Role{constants.RoleLogistics},
	},
	ActionDepart: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusConfirmed, bookingModel.BookingStatusTravelBooked},
		To:    bookingModel.BookingStatusPanditEnRoute,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionArrive: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPanditEnRoute},
		To:    bookingModel.BookingStatusPanditArrived,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionStartPuja: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPanditArrived},
		To:    bookingModel.BookingStatusPujaInProgress,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionComplete: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusPujaInProgress},
		To:    bookingModel.BookingStatusCompleted,
		Roles: []constants.Role{constants.RoleOfficiant},
	},
	ActionRequestCancellation: {
		From:           nonTerminalStatuses(bookingModel.BookingStatusCancellationRequested),
		To:             bookingModel.BookingStatusCancellationRequested,
		Roles:          []constants.Role{constants.RoleCustomer},
		ReasonRequired: true,
	},
	ActionApproveCancellation: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusCancellationRequested},
		To:    bookingModel.BookingStatusCancelled,
		Roles: []constants.Role{constants.RoleAdmin},
	},
	ActionRejectCancellation: {
		From:           []bookingModel.BookingStatus{bookingModel.BookingStatusCancellationRequested},
		Roles:          []constants.Role{constants.RoleAdmin},
		ReasonRequired: true,
	},
	ActionOverride: {
		From:           nonTerminalStatuses(),
		Roles:          []constants.Role{constants.RoleAdmin},
		ReasonRequired: true,
	},
	ActionMarkRefunded: {
		From:  []bookingModel.BookingStatus{bookingModel.BookingStatusCancelled},
		To:    bookingModel.BookingStatusRefunded,
		Roles: []constants.Role{constants.RoleSystem},
	},
}

// Actions lists every action in a stable order.
func Actions() []Action {
	return []Action{
		ActionSubmit,
		ActionAccept,
		ActionReject,
		ActionExpire,
		ActionBookTravel,
		ActionDepart,
		ActionArrive,
		ActionStartPuja,
		ActionComplete,
		ActionRequestCancellation,
		ActionApproveCancellation,
		ActionRejectCancellation,
		ActionOverride,
		ActionMarkRefunded,
	}
}

// RuleFor returns the transition table row for an action.
func RuleFor(a Action) (Rule, bool) {
	r, ok := transitionTable[a]
	return r, ok
}
