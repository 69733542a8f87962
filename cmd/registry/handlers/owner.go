package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/service"
	"github.com/villagereg/landregistry/common/bootstrap"
)

// OwnerHandler handles owner-related requests
type OwnerHandler struct {
	components   *bootstrap.Components
	ownerService *service.OwnerService
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(c *container.Container) *OwnerHandler {
	return &OwnerHandler{
		components:   c.Components,
		ownerService: c.OwnerService,
	}
}

// CreateOwner registers a new owner
// POST /api/v1/owners
func (h *OwnerHandler) CreateOwner(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.CreateOwnerInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	owner, err := h.ownerService.CreateOwner(ctx, req)
	if err != nil {
		h.components.Logger.Error("failed to create owner", "error", err)
		return respondError(c, err)
	}

	h.components.Logger.Info("owner created", "owner_id", owner.ID, "full_name", owner.FullName)

	return c.JSON(http.StatusCreated, owner)
}

// GetOwner retrieves a single owner
// GET /api/v1/owners/:id
func (h *OwnerHandler) GetOwner(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid owner id",
		})
	}

	owner, err := h.ownerService.GetOwner(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, owner)
}

// ListOwners lists all owners ordered by name
// GET /api/v1/owners
func (h *OwnerHandler) ListOwners(c echo.Context) error {
	ctx := c.Request().Context()

	owners, err := h.ownerService.ListOwners(ctx)
	if err != nil {
		h.components.Logger.Error("failed to list owners", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"owners": owners,
		"count":  len(owners),
	})
}
