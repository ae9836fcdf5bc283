package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"puja-booking/clock"
	"puja-booking/config"
	"puja-booking/database"
	"puja-booking/httpServices/notify"
	"puja-booking/httpServices/payment"
	"puja-booking/logger"
	"puja-booking/metrics"
	"puja-booking/middleware"
	"puja-booking/routes"
	"puja-booking/services/booking"
	"puja-booking/services/dispatch"
	"puja-booking/services/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Invalid configuration:", err)
		os.Exit(1)
	}
	if err := logger.Setup(cfg.LogDir, logger.ParseLevel(cfg.LogLevel)); err != nil {
		fmt.Println("Logger setup failed:", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to the database: " + err.Error())
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get database handle: " + err.Error())
	}
	defer sqlDB.Close()

	card, err := cfg.RateCard()
	if err != nil {
		logger.Fatal(err.Error())
	}
	policy, err := cfg.RefundPolicy()
	if err != nil {
		logger.Fatal(err.Error())
	}
	engine := booking.NewEngine(
		database.NewBookingStore(db),
		booking.NewMachine(card, policy, cfg.AssignmentTimeout),
		clock.NewSystem(),
	)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	var o *orchestrator.Orchestrator
	dispatcher := dispatch.NewDispatcher(dispatch.Options{
		Workers:   cfg.DispatchWorkers,
		QueueSize: cfg.DispatchQueue,
		MaxTries:  cfg.DispatchMaxTries,
		OnSuccess: func(job dispatch.Job) { o.RecordDispatch(job, nil) },
		OnFailure: func(job dispatch.Job, err error) { o.RecordDispatch(job, err) },
	})

	opts := []orchestrator.Option{
		orchestrator.WithLockWait(cfg.LockWait),
		orchestrator.WithMetrics(bookingMetrics),
	}

	switch {
	case cfg.RabbitURL != "":
		publisher, err := notify.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ: " + err.Error())
		}
		defer publisher.Close()
		opts = append(opts, orchestrator.WithNotifier(publisher))
		logger.Success("Publishing booking events to exchange " + cfg.RabbitExchange)
	case cfg.NotifyWebhook != "":
		opts = append(opts, orchestrator.WithNotifier(notify.NewWebhook(cfg.NotifyWebhook)))
		logger.Success("Posting booking events to " + cfg.NotifyWebhook)
	default:
		logger.Warning("No notification channel configured, logging notifications only")
	}

	var gatewayEvents *payment.Omise
	if cfg.OmisePublicKey != "" && cfg.OmiseSecretKey != "" {
		gatewayEvents, err = payment.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey)
		if err != nil {
			logger.Fatal("Failed to create payment gateway client: " + err.Error())
		}
		opts = append(opts, orchestrator.WithPayments(gatewayEvents))
	} else {
		logger.Warning("No payment gateway keys configured, using the sandbox gateway")
	}

	o = orchestrator.New(engine, clock.NewSystem(), dispatcher, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// workers outlive the signal so Close can drain the queue
	dispatcher.Start(context.Background())
	if _, err := o.Recover(ctx); err != nil {
		logger.Error("Failed to recover response timers", err)
	}

	app := fiber.New(fiber.Config{
		ReadBufferSize:  32768, // 32KB read buffer
		WriteBufferSize: 32768, // 32KB write buffer
		ReadTimeout:     time.Second * 30,
		WriteTimeout:    time.Second * 30,
		BodyLimit:       4 * 1024 * 1024,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: cfg.FrontendURL != "*",
	}))

	deps := routes.Deps{
		Orchestrator:  o,
		Verifier:      middleware.NewVerifier(cfg.JWTPublicKeyURL, cfg.JWTSecret),
		Metrics:       bookingMetrics,
		Gatherer:      prometheus.DefaultGatherer,
		DB:            sqlDB,
		WebhookSecret: cfg.PaymentWebhookSecret,
	}
	if gatewayEvents != nil {
		deps.GatewayEvents = gatewayEvents
	}
	var asyncLogger *logger.AsyncLogger
	if cfg.RequestLog {
		asyncLogger = logger.NewAsyncLogger(db)
		go asyncLogger.ProcessLog()
		deps.RequestLog = asyncLogger
	}
	routes.SetupRoutes(app, deps)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Server shutdown failed", err)
		}
	}()

	logger.Success("Server is running on " + cfg.Addr())
	if err := app.Listen(cfg.Addr()); err != nil {
		logger.Error("Server stopped", err)
	}

	dispatcher.Close()
	if asyncLogger != nil {
		asyncLogger.Close()
	}
}
