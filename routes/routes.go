package routes

import (
	"puja-booking/constants"
	"puja-booking/controllers/booking"
	"puja-booking/controllers/payment"
	"puja-booking/controllers/server"
	"puja-booking/metrics"
	"puja-booking/middleware"
	"puja-booking/services/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
)

// Deps is everything the HTTP layer needs from main.
type Deps struct {
	Orchestrator  *orchestrator.Orchestrator
	Verifier      *middleware.Verifier
	Metrics       *metrics.BookingMetrics
	Gatherer      prometheus.Gatherer
	RequestLog    middleware.EntryLogger
	DB            server.Pinger
	WebhookSecret string
	// GatewayEvents is nil when no gateway keys are configured.
	GatewayEvents payment.EventVerifier
}

func SetupRoutes(app *fiber.App, d Deps) {
	bookingController := booking.NewBookingController(d.Orchestrator)
	paymentController := payment.NewPaymentController(d.Orchestrator, d.GatewayEvents)
	serverController := server.NewServerController(d.DB)
	auth := d.Verifier

	if d.Metrics != nil {
		app.Use(middleware.Metrics(d.Metrics))
	}
	if d.RequestLog != nil {
		app.Use(middleware.RequestLog(d.RequestLog))
	}

	app.Get("/healthz", serverController.Health)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler(d.Gatherer)))
	}

	/*=============================================================================
	| Pricing Routes
	===============================================================================*/
	api := app.Group("/api")
	api.Post("/pricing/quote", auth.RequireAuthentication(), bookingController.Quote)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/bookings")
	customer := auth.RequirePermissions(constants.PermCustomerFull)
	officiant := auth.RequirePermissions(constants.PermOfficiantFull)
	logistics := auth.RequirePermissions(constants.PermLogisticsFull)
	admin := auth.RequirePermissions(constants.AdminPermissions...)

	bookingGroup.Post("/", customer, bookingController.Store)
	bookingGroup.Get("/:number", auth.RequireAuthentication(), bookingController.Show)
	bookingGroup.Put("/:number", auth.RequirePermissions(constants.PermCustomerFull, constants.PermAdminFull), bookingController.Update)
	bookingGroup.Post("/:number/submit", customer, bookingController.Submit)

	bookingGroup.Post("/:number/accept", officiant, bookingController.Accept())
	bookingGroup.Post("/:number/reject", officiant, bookingController.Reject())
	bookingGroup.Post("/:number/travel/book", logistics, bookingController.BookTravel())
	bookingGroup.Post("/:number/depart", officiant, bookingController.Depart())
	bookingGroup.Post("/:number/arrive", officiant, bookingController.Arrive())
	bookingGroup.Post("/:number/start", officiant, bookingController.StartPuja())
	bookingGroup.Post("/:number/complete", officiant, bookingController.Complete())

	bookingGroup.Post("/:number/cancellation", customer, bookingController.RequestCancellation())
	bookingGroup.Post("/:number/cancellation/approve", admin, bookingController.ApproveCancellation)
	bookingGroup.Post("/:number/cancellation/reject", admin, bookingController.RejectCancellation())
	bookingGroup.Post("/:number/override", admin, bookingController.Override)

	/*=============================================================================
	| Payment Gateway Routes
	===============================================================================*/
	payments := api.Group("/payments")
	payments.Post("/callback", middleware.RequireSharedSecret("X-Webhook-Secret", d.WebhookSecret), paymentController.Callback)
	if d.GatewayEvents != nil {
		payments.Post("/omise/webhook", paymentController.OmiseWebhook)
	}
}
