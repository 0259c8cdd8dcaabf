package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/zippicks/critic-backend/internal/database"
	"github.com/zippicks/critic-backend/internal/dto"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	plugins []string
}

func NewHealthHandler(db *gorm.DB, plugins []string) *HealthHandler {
	return &HealthHandler{db: db, plugins: plugins}
}

// Check answers 503 when the database is unreachable.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "ok"
	dbStatus := "ok"
	code := fiber.StatusOK
	if err := database.Ping(h.db); err != nil {
		status = "degraded"
		dbStatus = "unhealthy: " + err.Error()
		code = fiber.StatusServiceUnavailable
	}

	plugins := h.plugins
	if plugins == nil {
		plugins = []string{}
	}
	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Plugins:   plugins,
	})
}
