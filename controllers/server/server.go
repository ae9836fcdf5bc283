package server

import (
	"context"
	"time"

	"puja-booking/types"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type ServerController struct {
	db Pinger
}

func NewServerController(db Pinger) *ServerController {
	return &ServerController{db: db}
}

// Health answers 200 while the database is reachable
func (sc *ServerController) Health(c *fiber.Ctx) error {
	if sc.db != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := sc.db.PingContext(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(types.ApiResponse{
				Message: "database unreachable",
				Status:  fiber.StatusServiceUnavailable,
			})
		}
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Message: "ok",
		Status:  fiber.StatusOK,
	})
}
