package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/service"
	"github.com/villagereg/landregistry/common/bootstrap"
)

// DashboardHandler serves registry summary figures
type DashboardHandler struct {
	components       *bootstrap.Components
	dashboardService *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(c *container.Container) *DashboardHandler {
	return &DashboardHandler{
		components:       c.Components,
		dashboardService: c.DashboardService,
	}
}

// GetStats returns registry totals and recent registrations
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.dashboardService.GetStats(ctx)
	if err != nil {
		h.components.Logger.Error("failed to compute dashboard stats", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, stats)
}
