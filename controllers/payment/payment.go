package payment

import (
	"errors"
	"fmt"

	"puja-booking/httpServices/payment"
	"puja-booking/logger"
	"puja-booking/services/booking"
	"puja-booking/services/orchestrator"
	"puja-booking/types"

	"github.com/gofiber/fiber/v2"
)

// EventVerifier re-reads a pushed gateway event from the gateway itself.
type EventVerifier interface {
	VerifyEvent(eventID string) (payment.Callback, bool, error)
}

type PaymentController struct {
	orchestrator *orchestrator.Orchestrator
	verifier     EventVerifier
}

func NewPaymentController(o *orchestrator.Orchestrator, verifier EventVerifier) *PaymentController {
	return &PaymentController{orchestrator: o, verifier: verifier}
}

func (pc *PaymentController) apply(c *fiber.Ctx, cb payment.Callback) error {
	b, err := pc.orchestrator.HandlePaymentCallback(c.UserContext(), cb)
	switch {
	case err == nil:
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Message: "Payment status recorded",
			Status:  fiber.StatusOK,
			Data:    b,
		})
	case errors.Is(err, booking.ErrBookingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Message: "Booking not found",
			Status:  fiber.StatusNotFound,
		})
	case errors.Is(err, orchestrator.ErrConcurrentModification):
		// the gateway retries on non-2xx
		return c.Status(fiber.StatusConflict).JSON(types.ApiResponse{
			Message: "Booking is being modified, try again",
			Status:  fiber.StatusConflict,
		})
	case errors.Is(err, booking.ErrInvalidBooking), errors.Is(err, booking.ErrIllegalTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(types.ApiResponse{
			Message: err.Error(),
			Status:  fiber.StatusUnprocessableEntity,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Message: "Failed to record payment status",
			Status:  fiber.StatusInternalServerError,
		})
	}
}

// Callback accepts a result pushed by a gateway that shares our webhook secret
func (pc *PaymentController) Callback(c *fiber.Ctx) error {
	var cb payment.Callback
	if err := c.BodyParser(&cb); err != nil {
		logger.Error("Failed to parse payment callback", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid request body",
			Status:  fiber.StatusBadRequest,
		})
	}
	if cb.BookingNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "booking_number is required",
			Status:  fiber.StatusBadRequest,
		})
	}
	return pc.apply(c, cb)
}

// OmiseWebhook trusts only the event id of the push and fetches the event back
func (pc *PaymentController) OmiseWebhook(c *fiber.Ctx) error {
	var push struct {
		ID string `json:"id"`
	}
	if err := c.BodyParser(&push); err != nil || push.ID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Message: "Invalid event",
			Status:  fiber.StatusBadRequest,
		})
	}
	cb, relevant, err := pc.verifier.VerifyEvent(push.ID)
	if err != nil {
		logger.Error(fmt.Sprintf("Could not verify gateway event %s", push.ID), err)
		return c.Status(fiber.StatusBadGateway).JSON(types.ApiResponse{
			Message: "Could not verify event",
			Status:  fiber.StatusBadGateway,
		})
	}
	if !relevant {
		return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
			Message: "Event ignored",
			Status:  fiber.StatusOK,
		})
	}
	return pc.apply(c, cb)
}
