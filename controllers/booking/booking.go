package booking

import (
	"errors"
	"fmt"

	"puja-booking/logger"
	bookingModel "puja-booking/models/booking"
	"puja-booking/services"
	"puja-booking/services/booking"
	"puja-booking/services/orchestrator"
	"puja-booking/services/pricing"
	"puja-booking/services/refund"
	"puja-booking/types"
	bookingTypes "puja-booking/types/booking"

	"github.com/gofiber/fiber/v2"
)

var errInvalidBody = errors.New("invalid request body")

// BookingController handles booking-related HTTP requests
type BookingController struct {
	orchestrator *orchestrator.Orchestrator
	permissions  *services.PermissionService
}

// NewBookingController creates a new booking controller
func NewBookingController(o *orchestrator.Orchestrator) *BookingController {
	return &BookingController{
		orchestrator: o,
		permissions:  services.NewPermissionService(),
	}
}

// errorResponse maps engine errors to a status and a message the caller can act on
func errorResponse(c *fiber.Ctx, err error) error {
	status, message := fiber.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, orchestrator.ErrRequestExpired):
		status, message = fiber.StatusGone, "Request expired"
	case errors.Is(err, orchestrator.ErrConcurrentModification):
		status, message = fiber.StatusConflict, "Booking is being modified, try again"
	case errors.Is(err, booking.ErrCancellationDecided):
		status, message = fiber.StatusConflict, "Cancellation already decided"
	case errors.Is(err, booking.ErrIllegalTransition):
		status, message = fiber.StatusConflict, "This request is no longer actionable"
	case errors.Is(err, booking.ErrBookingNotFound):
		status, message = fiber.StatusNotFound, "Booking not found"
	case errors.Is(err, booking.ErrForbidden), errors.Is(err, booking.ErrNotParty):
		status, message = fiber.StatusForbidden, "You are not allowed to do this"
	case errors.Is(err, booking.ErrReasonRequired),
		errors.Is(err, booking.ErrOfficiantRequired),
		errors.Is(err, booking.ErrInvalidBooking),
		errors.Is(err, pricing.ErrInvalidPricingInput),
		errors.Is(err, refund.ErrInvalidRefundInput),
		errors.Is(err, refund.ErrOverrideReasonEmpty):
		status, message = fiber.StatusUnprocessableEntity, err.Error()
	default:
		logger.Error("Booking request failed", err)
	}
	return c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
		Message: message,
		Status:  fiber.StatusBadRequest,
	})
}

// forbidden answers a token that carries no booking role
func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(types.ApiResponse{
		Message: "Insufficient permissions",
		Status:  fiber.StatusForbidden,
	})
}

func success(c *fiber.Ctx, status int, message string, data interface{}) error {
	return c.Status(status).JSON(types.ApiResponse{
		Message: message,
		Status:  status,
		Data:    data,
	})
}

func parseDetails(c *fiber.Ctx) (booking.Details, error) {
	var req bookingTypes.BookingDetailsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return booking.Details{}, errInvalidBody
	}
	if err := req.Validate(); err != nil {
		return booking.Details{}, err
	}
	return req.Details(), nil
}

// Quote prices a prospective booking without storing it
func (bc *BookingController) Quote(c *fiber.Ctx) error {
	d, err := parseDetails(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	breakdown, err := bc.orchestrator.Quote(d)
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Quote calculated", breakdown)
}

// Store creates a new booking in CREATED
func (bc *BookingController) Store(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	d, err := parseDetails(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := bc.orchestrator.Create(c.UserContext(), actor, d)
	if err != nil {
		return errorResponse(c, err)
	}
	logger.Success(fmt.Sprintf("Booking created successfully with number: %s", b.BookingNumber))
	return success(c, fiber.StatusCreated, "Booking created successfully", b)
}

// Show returns the booking with its history and what the caller may do next
func (bc *BookingController) Show(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	view, err := bc.orchestrator.Get(c.UserContext(), actor, c.Params("number"))
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Booking retrieved", view)
}

// Update edits the details of a booking that has not been submitted
func (bc *BookingController) Update(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	d, err := parseDetails(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	b, err := bc.orchestrator.UpdateDetails(c.UserContext(), actor, c.Params("number"), d)
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Booking updated", b)
}

// Submit sends the booking to the chosen officiant
func (bc *BookingController) Submit(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	var req bookingTypes.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	b, err := bc.orchestrator.Submit(c.UserContext(), actor, c.Params("number"), req.OfficiantID, req.PaymentReference)
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Booking submitted to officiant", b)
}

type simpleAction func(o *orchestrator.Orchestrator, c *fiber.Ctx, actor booking.Actor, number string) (*bookingModel.Booking, error)

func (bc *BookingController) run(message string, action simpleAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := bc.permissions.Actor(c)
		if err != nil {
			return forbidden(c)
		}
		b, err := action(bc.orchestrator, c, actor, c.Params("number"))
		if err != nil {
			return errorResponse(c, err)
		}
		return success(c, fiber.StatusOK, message, b)
	}
}

func (bc *BookingController) Accept() fiber.Handler {
	return bc.run("Booking accepted", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.Accept(c.UserContext(), a, n)
	})
}

func (bc *BookingController) BookTravel() fiber.Handler {
	return bc.run("Travel booked", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.BookTravel(c.UserContext(), a, n)
	})
}

func (bc *BookingController) Depart() fiber.Handler {
	return bc.run("Officiant en route", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.Depart(c.UserContext(), a, n)
	})
}

func (bc *BookingController) Arrive() fiber.Handler {
	return bc.run("Officiant arrived", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.Arrive(c.UserContext(), a, n)
	})
}

func (bc *BookingController) StartPuja() fiber.Handler {
	return bc.run("Puja started", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.StartPuja(c.UserContext(), a, n)
	})
}

func (bc *BookingController) Complete() fiber.Handler {
	return bc.run("Booking completed", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n string) (*bookingModel.Booking, error) {
		return o.Complete(c.UserContext(), a, n)
	})
}

type reasonAction func(o *orchestrator.Orchestrator, c *fiber.Ctx, actor booking.Actor, number, reason string) (*bookingModel.Booking, error)

func (bc *BookingController) withReason(message string, action reasonAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := bc.permissions.Actor(c)
		if err != nil {
			return forbidden(c)
		}
		var req bookingTypes.ReasonRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		b, err := action(bc.orchestrator, c, actor, c.Params("number"), req.Reason)
		if err != nil {
			return errorResponse(c, err)
		}
		return success(c, fiber.StatusOK, message, b)
	}
}

func (bc *BookingController) Reject() fiber.Handler {
	return bc.withReason("Booking rejected", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n, r string) (*bookingModel.Booking, error) {
		return o.Reject(c.UserContext(), a, n, r)
	})
}

func (bc *BookingController) RequestCancellation() fiber.Handler {
	return bc.withReason("Cancellation requested", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n, r string) (*bookingModel.Booking, error) {
		return o.RequestCancellation(c.UserContext(), a, n, r)
	})
}

func (bc *BookingController) RejectCancellation() fiber.Handler {
	return bc.withReason("Cancellation rejected", func(o *orchestrator.Orchestrator, c *fiber.Ctx, a booking.Actor, n, r string) (*bookingModel.Booking, error) {
		return o.RejectCancellation(c.UserContext(), a, n, r)
	})
}

// ApproveCancellation cancels the booking with the policy refund or an admin override
func (bc *BookingController) ApproveCancellation(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	var req bookingTypes.ApproveCancellationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	b, err := bc.orchestrator.ApproveCancellation(c.UserContext(), actor, c.Params("number"), req.OverrideAmount, req.OverrideReason, req.Note)
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Cancellation approved", b)
}

// Override forces the booking into a status, bypassing the transition table
func (bc *BookingController) Override(c *fiber.Ctx) error {
	actor, err := bc.permissions.Actor(c)
	if err != nil {
		return forbidden(c)
	}
	var req bookingTypes.OverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := req.Validate(); err != nil {
		return badRequest(c, err.Error())
	}
	target := bookingModel.BookingStatus(req.Status)
	if !target.IsValid() {
		return badRequest(c, fmt.Sprintf("unknown status %q", req.Status))
	}
	b, err := bc.orchestrator.Override(c.UserContext(), actor, c.Params("number"), target, req.Reason)
	if err != nil {
		return errorResponse(c, err)
	}
	return success(c, fiber.StatusOK, "Booking status overridden", b)
}
