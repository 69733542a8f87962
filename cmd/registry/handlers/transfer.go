package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/service"
	"github.com/villagereg/landregistry/common/bootstrap"
)

// TransferHandler handles ownership transfer requests
type TransferHandler struct {
	components      *bootstrap.Components
	transferService *service.TransferService
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(c *container.Container) *TransferHandler {
	return &TransferHandler{
		components:      c.Components,
		transferService: c.TransferService,
	}
}

// TransferOwnership records an ownership transfer for a parcel
// POST /api/v1/parcels/:id/transfers
func (h *TransferHandler) TransferOwnership(c echo.Context) error {
	ctx := c.Request().Context()

	parcelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid parcel id",
		})
	}

	var req struct {
		ToOwnerID    *uuid.UUID                `json:"to_owner_id"`
		NewOwner     *service.CreateOwnerInput `json:"new_owner"`
		TransferDate string                    `json:"transfer_date"` // YYYY-MM-DD, defaults to today
		SaleAmount   *float64                  `json:"sale_amount"`
		Notes        string                    `json:"notes"`
	}

	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid request body",
		})
	}

	var transferDate time.Time
	if req.TransferDate != "" {
		transferDate, err = time.Parse("2006-01-02", req.TransferDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"error": "transfer_date must be in YYYY-MM-DD format",
			})
		}
	}

	h.components.Logger.Info("transferring ownership", "parcel_id", parcelID, "to_owner_id", req.ToOwnerID)

	parcel, err := h.transferService.TransferOwnership(ctx, parcelID, service.TransferOwnershipInput{
		ToOwnerID:    req.ToOwnerID,
		NewOwner:     req.NewOwner,
		TransferDate: transferDate,
		SaleAmount:   req.SaleAmount,
		Notes:        req.Notes,
	})
	if err != nil {
		h.components.Logger.Error("failed to transfer ownership", "parcel_id", parcelID, "error", err)
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, parcel)
}

// GetTransferHistory returns a parcel's transfer records, oldest first
// GET /api/v1/parcels/:id/transfers
func (h *TransferHandler) GetTransferHistory(c echo.Context) error {
	ctx := c.Request().Context()

	parcelID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "invalid parcel id",
		})
	}

	history, err := h.transferService.GetTransferHistory(ctx, parcelID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"parcel_id": parcelID,
		"transfers": history,
		"count":     len(history),
	})
}
