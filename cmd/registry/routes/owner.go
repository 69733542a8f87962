package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/handlers"
)

// RegisterOwnerRoutes registers all owner-related routes
func RegisterOwnerRoutes(e *echo.Echo, c *container.Container) {
	h := handlers.NewOwnerHandler(c)

	owners := e.Group("/api/v1/owners")
	{
		owners.POST("", h.CreateOwner) // POST /api/v1/owners
		owners.GET("", h.ListOwners)   // GET /api/v1/owners
		owners.GET("/:id", h.GetOwner) // GET /api/v1/owners/{owner_id}
	}
}
