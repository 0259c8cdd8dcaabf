package apps

import (
	"github.com/gofiber/fiber/v2"
)

// Plugin defines the interface every feature module must implement.
type Plugin interface {
	// ID returns the unique plugin identifier.
	ID() string

	// Models maps logical table names (see package tables) to GORM model
	// pointers for AutoMigrate.
	Models() map[string]interface{}

	// RegisterRoutes mounts public routes on the given Fiber group.
	// The group is already prefixed with /api and rate limited.
	RegisterRoutes(router fiber.Router)
}

// AdminPlugin extends Plugin with admin-specific route registration.
type AdminPlugin interface {
	Plugin

	// RegisterAdminRoutes mounts admin-only routes on the given Fiber group.
	// The group has the admin middleware applied.
	RegisterAdminRoutes(router fiber.Router)
}
