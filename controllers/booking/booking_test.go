package booking

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"testing"

	"puja-booking/services/booking"
	"puja-booking/services/orchestrator"
	"puja-booking/services/pricing"
	"puja-booking/types"

	"github.com/gofiber/fiber/v2"
)

func TestErrorResponse(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{orchestrator.ErrRequestExpired, fiber.StatusGone, "Request expired"},
		{orchestrator.ErrConcurrentModification, fiber.StatusConflict, "Booking is being modified, try again"},
		{fmt.Errorf("wrap: %w", booking.ErrCancellationDecided), fiber.StatusConflict, "Cancellation already decided"},
		{fmt.Errorf("%w: cannot accept from CONFIRMED", booking.ErrIllegalTransition), fiber.StatusConflict, "This request is no longer actionable"},
		{booking.ErrBookingNotFound, fiber.StatusNotFound, "Booking not found"},
		{booking.ErrNotParty, fiber.StatusForbidden, "You are not allowed to do this"},
		{booking.ErrForbidden, fiber.StatusForbidden, "You are not allowed to do this"},
		{fmt.Errorf("%w: bad distance", pricing.ErrInvalidPricingInput), fiber.StatusUnprocessableEntity, "invalid pricing input: bad distance"},
		{errors.New("db down"), fiber.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error { return errorResponse(c, tc.err) })

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			body, _ := io.ReadAll(resp.Body)
			var got types.ApiResponse
			if err := json.Unmarshal(body, &got); err != nil {
				t.Fatalf("decode %s: %v", body, err)
			}
			if resp.StatusCode != tc.status || got.Status != tc.status || got.Message != tc.message {
				t.Fatalf("got %d %q, want %d %q", resp.StatusCode, got.Message, tc.status, tc.message)
			}
		})
	}
}
