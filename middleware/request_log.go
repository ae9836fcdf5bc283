package middleware

import (
	"strconv"
	"time"

	"puja-booking/metrics"
	"puja-booking/types"
	"puja-booking/utils"

	"github.com/gofiber/fiber/v2"
)

// EntryLogger receives one entry per finished request.
type EntryLogger interface {
	Log(entry types.LogEntry)
}

// RequestLog records every request and response once the handler chain ran.
func RequestLog(l EntryLogger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		l.Log(utils.CreateSanitizedLogEntry(c))
		return err
	}
}

// Metrics counts requests per route and status and observes their latency.
func Metrics(m *metrics.BookingMetrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		handler := c.Route().Path
		m.Requests.WithLabelValues(handler, strconv.Itoa(status)).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
		return err
	}
}
