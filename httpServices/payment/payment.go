package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"puja-booking/logger"
)

// ErrDeclined means the gateway refused the request and retrying will not help.
var ErrDeclined = errors.New("payment declined")

// Kind mirrors the money movements the booking engine tracks.
type Kind string

const (
	KindCapture Kind = "capture"
	KindRefund  Kind = "refund"
	KindPayout  Kind = "payout"
)

// Callback is a verified gateway notification about one money movement.
type Callback struct {
	BookingNumber string `json:"booking_number"`
	Kind          Kind   `json:"kind"`
	Succeeded     bool   `json:"succeeded"`
	Reference     string `json:"reference"`
}

// Sandbox approves everything. It stands in for the gateway when no keys are
// configured so the lifecycle can be exercised end to end.
type Sandbox struct{}

func NewSandbox() *Sandbox {
	return &Sandbox{}
}

func (s *Sandbox) Capture(_ context.Context, bookingNumber, reference string, amount int64) (string, error) {
	if strings.TrimSpace(reference) == "" {
		return "", fmt.Errorf("%w: no payment reference for %s", ErrDeclined, bookingNumber)
	}
	logger.Info(fmt.Sprintf("[sandbox] captured %d for %s (%s)", amount, bookingNumber, reference))
	return reference, nil
}

func (s *Sandbox) Refund(_ context.Context, bookingNumber, reference string, amount int64) (string, error) {
	ref := "rfnd_sandbox_" + uuid.NewString()
	logger.Info(fmt.Sprintf("[sandbox] refunded %d for %s against %s", amount, bookingNumber, reference))
	return ref, nil
}

func (s *Sandbox) Payout(_ context.Context, bookingNumber, recipient string, amount int64) (string, error) {
	ref := "trsf_sandbox_" + uuid.NewString()
	logger.Info(fmt.Sprintf("[sandbox] paid %d to %s for %s", amount, recipient, bookingNumber))
	return ref, nil
}
