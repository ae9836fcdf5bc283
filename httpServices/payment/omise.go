package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// SubunitsPerUnit converts whole rupees into the gateway's smallest unit.
const SubunitsPerUnit = 100

const metadataBookingNumber = "booking_number"

// Omise executes captures, refunds and officiant transfers through Omise.
type Omise struct {
	client *omise.Client
}

func NewOmise(publicKey, secretKey string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, err
	}
	c.SetDebug(false)
	return &Omise{client: c}, nil
}

// Capture settles the authorised charge the customer created at checkout.
// The amount was fixed when the charge was authorised.
func (o *Omise) Capture(_ context.Context, _ string, chargeID string, _ int64) (string, error) {
	charge := &omise.Charge{}
	if err := o.client.Do(charge, &operations.CaptureCharge{ChargeID: chargeID}); err != nil {
		return "", classify(err)
	}
	return charge.ID, nil
}

func (o *Omise) Refund(_ context.Context, bookingNumber, chargeID string, amount int64) (string, error) {
	refund := &omise.Refund{}
	err := o.client.Do(refund, &operations.CreateRefund{
		ChargeID: chargeID,
		Amount:   amount * SubunitsPerUnit,
		Metadata: map[string]interface{}{metadataBookingNumber: bookingNumber},
	})
	if err != nil {
		return "", classify(err)
	}
	return refund.ID, nil
}

// Payout transfers the officiant's share to their registered recipient.
func (o *Omise) Payout(_ context.Context, bookingNumber, recipient string, amount int64) (string, error) {
	transfer := &omise.Transfer{}
	err := o.client.Do(transfer, &operations.CreateTransfer{
		Amount:    amount * SubunitsPerUnit,
		Recipient: recipient,
		Metadata:  map[string]interface{}{metadataBookingNumber: bookingNumber},
	})
	if err != nil {
		return "", classify(err)
	}
	return transfer.ID, nil
}

// VerifyEvent re-fetches a webhook event from Omise so a forged payload
// cannot move money statuses. Events the engine does not track return false.
func (o *Omise) VerifyEvent(eventID string) (Callback, bool, error) {
	ev := &omise.Event{}
	if err := o.client.Do(ev, &operations.RetrieveEvent{EventID: eventID}); err != nil {
		return Callback{}, false, classify(err)
	}
	raw, err := json.Marshal(ev.Data)
	if err != nil {
		return Callback{}, false, fmt.Errorf("encode event data: %w", err)
	}
	return callbackFromEvent(ev.Key, raw)
}

// eventObject is the subset of charge, refund and transfer payloads we read.
type eventObject struct {
	ID       string                 `json:"id"`
	Status   string                 `json:"status"`
	Paid     bool                   `json:"paid"`
	Sent     bool                   `json:"sent"`
	Failure  *string                `json:"failure_code"`
	Metadata map[string]interface{} `json:"metadata"`
}

func callbackFromEvent(key string, data []byte) (Callback, bool, error) {
	var obj eventObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return Callback{}, false, fmt.Errorf("decode event data: %w", err)
	}
	number, _ := obj.Metadata[metadataBookingNumber].(string)
	cb := Callback{BookingNumber: number, Reference: obj.ID}

	switch key {
	case "charge.capture", "charge.complete":
		cb.Kind = KindCapture
		cb.Succeeded = obj.Status == "successful"
	case "refund.create":
		cb.Kind = KindRefund
		cb.Succeeded = obj.Failure == nil
	case "transfer.pay":
		cb.Kind = KindPayout
		cb.Succeeded = obj.Paid
	case "transfer.fail":
		cb.Kind = KindPayout
	default:
		return Callback{}, false, nil
	}
	if cb.BookingNumber == "" {
		return Callback{}, false, fmt.Errorf("event %s for %s carries no booking number", key, obj.ID)
	}
	return cb, true, nil
}

// classify marks client errors as declines. Network and 5xx errors stay retryable.
func classify(err error) error {
	var oe *omise.Error
	if errors.As(err, &oe) && oe.StatusCode >= 400 && oe.StatusCode < 500 {
		return fmt.Errorf("%w: %s: %s", ErrDeclined, oe.Code, oe.Message)
	}
	return err
}
