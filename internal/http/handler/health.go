package handler

import (
	"context"
	"time"

	goversion "github.com/caarlos0/go-version"
	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthCheck reports healthy only when the database answers a ping within 2s.
//
// @Summary Readiness (database ping)
// @Tags health
// @Produce json
// @Success 200
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(db Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// Liveness always answers 200.
//
// @Summary Liveness
// @Tags health
// @Success 200
// @Router /healthz [get]
func Liveness() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// VersionInfo reports build metadata.
//
// @Summary Build version
// @Tags health
// @Produce json
// @Success 200 {object} goversion.Info
// @Router /version [get]
func VersionInfo(info goversion.Info) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(info)
	}
}
