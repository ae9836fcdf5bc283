package booking

type BookingStatus string

const (
	BookingStatusCreated               BookingStatus = "CREATED"
	BookingStatusPanditRequested       BookingStatus = "PANDIT_REQUESTED"
	BookingStatusConfirmed             BookingStatus = "CONFIRMED"
	BookingStatusTravelBooked          BookingStatus = "TRAVEL_BOOKED"
	BookingStatusPanditEnRoute         BookingStatus = "PANDIT_EN_ROUTE"
	BookingStatusPanditArrived         BookingStatus = "PANDIT_ARRIVED"
	BookingStatusPujaInProgress        BookingStatus = "PUJA_IN_PROGRESS"
	BookingStatusCompleted             BookingStatus = "COMPLETED"
	BookingStatusCancellationRequested BookingStatus = "CANCELLATION_REQUESTED"
	BookingStatusCancelled             BookingStatus = "CANCELLED"
	BookingStatusRefunded              BookingStatus = "REFUNDED"
)

// Helper methods for BookingStatus
func (bs BookingStatus) String() string {
	return string(bs)
}

func (bs BookingStatus) IsValid() bool {
	for _, s := range GetAllBookingStatuses() {
		if s == bs {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the booking is kept only as a historical record
func (bs BookingStatus) IsTerminal() bool {
	return bs == BookingStatusCompleted || bs == BookingStatusCancelled || bs == BookingStatusRefunded
}

// GetAllBookingStatuses returns all valid booking statuses
func GetAllBookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusCreated,
		BookingStatusPanditRequested,
		BookingStatusConfirmed,
		BookingStatusTravelBooked,
		BookingStatusPanditEnRoute,
		BookingStatusPanditArrived,
		BookingStatusPujaInProgress,
		BookingStatusCompleted,
		BookingStatusCancellationRequested,
		BookingStatusCancelled,
		BookingStatusRefunded,
	}
}

type TravelStatus string

const (
	TravelStatusNone       TravelStatus = "NONE"
	TravelStatusPending    TravelStatus = "PENDING"
	TravelStatusBooked     TravelStatus = "BOOKED"
	TravelStatusInProgress TravelStatus = "IN_PROGRESS"
	TravelStatusCompleted  TravelStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusNone     PaymentStatus = "NONE"
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// HoldsFunds returns true when the customer's money was taken or is being taken
func (ps PaymentStatus) HoldsFunds() bool {
	return ps == PaymentStatusPending || ps == PaymentStatusCaptured
}

type PayoutStatus string

const (
	PayoutStatusNone    PayoutStatus = "NONE"
	PayoutStatusPending PayoutStatus = "PENDING"
	PayoutStatusPaid    PayoutStatus = "PAID"
	PayoutStatusFailed  PayoutStatus = "FAILED"
)

type RefundStatus string

const (
	RefundStatusNone      RefundStatus = "NONE"
	RefundStatusPending   RefundStatus = "PENDING"
	RefundStatusCompleted RefundStatus = "COMPLETED"
	RefundStatusFailed    RefundStatus = "FAILED"
)

type CancellationOutcome string

const (
	CancellationOutcomePending  CancellationOutcome = "PENDING"
	CancellationOutcomeApproved CancellationOutcome = "APPROVED"
	CancellationOutcomeRejected CancellationOutcome = "REJECTED"
)
