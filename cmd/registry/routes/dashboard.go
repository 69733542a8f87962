package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/handlers"
)

// RegisterDashboardRoutes registers dashboard routes
func RegisterDashboardRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewDashboardHandler(c)

	e.GET("/api/v1/dashboard/stats", h.GetStats) // GET /api/v1/dashboard/stats
}
