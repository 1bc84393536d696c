package system

import (
	"context"
	"time"

	"go-desk/internal/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct {
	DB *database.MongodbDB
}

func NewHealthController(db *database.MongodbDB) *HealthController {
	return &HealthController{DB: db}
}

// GetHealth reports service liveness and database reachability.
func (c *HealthController) GetHealth(ctx *fiber.Ctx) error {
	dbStatus := "ok"

	pingCtx, cancel := context.WithTimeout(ctx.Context(), 2*time.Second)
	defer cancel()
	if err := c.DB.DB.Client().Ping(pingCtx, nil); err != nil {
		dbStatus = "unreachable"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return ctx.Status(status).JSON(fiber.Map{
		"status":   "up",
		"database": dbStatus,
		"time":     time.Now().UTC(),
	})
}
