package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/service"
	"github.com/villagereg/landregistry/common/bootstrap"
)

// ParcelHandler handles parcel registration and lookup requests
type ParcelHandler struct {
	components    *bootstrap.Components
	parcelService *service.ParcelService
}

// NewParcelHandler creates a new parcel handler
func NewParcelHandler(c *container.Container) *ParcelHandler {
	return &ParcelHandler{
		components:    c.Components,
		parcelService: c.ParcelService,
	}
}

// RegisterParcel registers a new parcel, optionally with its first owner
// POST /api/v1/parcels
func (h *ParcelHandler) RegisterParcel(c echo.Context) error {
	ctx := c.Request().Context()

	var req service.RegisterParcelInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	h.components.Logger.Info("registering parcel", "parcel_number", req.ParcelNumber)

	parcel, err := h.parcelService.RegisterParcel(ctx, req)
	if err != nil {
		h.components.Logger.Error("failed to register parcel", "parcel_number", req.ParcelNumber, "error", err)
		return respondError(c, err)
	}

	h.components.Logger.Info("parcel registered", "parcel_id", parcel.ID, "parcel_number", parcel.ParcelNumber)

	return c.JSON(http.StatusCreated, parcel)
}

// GetParcel retrieves a parcel with its owner details
// GET /api/v1/parcels/:id
func (h *ParcelHandler) GetParcel(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid parcel id",
		})
	}

	parcel, err := h.parcelService.GetParcel(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, parcel)
}

// ListParcels lists parcels, optionally narrowed by a search term or a
// filter expression
// GET /api/v1/parcels?q=...&filter=...
func (h *ParcelHandler) ListParcels(c echo.Context) error {
	ctx := c.Request().Context()

	search := c.QueryParam("q")
	filter := c.QueryParam("filter")

	parcels, err := h.parcelService.ListParcels(ctx, search, filter)
	if err != nil {
		h.components.Logger.Error("failed to list parcels", "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"parcels": parcels,
		"count":   len(parcels),
	})
}

// GetCertificate returns the ownership certificate: the parcel plus its full
// transfer history
// GET /api/v1/parcels/:id/certificate
func (h *ParcelHandler) GetCertificate(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid parcel id",
		})
	}

	cert, err := h.parcelService.GetCertificate(ctx, id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, cert)
}
