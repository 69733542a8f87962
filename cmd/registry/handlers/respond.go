package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/common/derrors"
)

// respondError maps a kinded error to an HTTP status and a client-safe body.
// Store-level causes never reach the client.
func respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "internal error"

	var de *derrors.Error
	if errors.As(err, &de) {
		message = de.Message
		switch de.Kind {
		case derrors.KindValidation:
			status = http.StatusBadRequest
		case derrors.KindNotFound:
			status = http.StatusNotFound
		case derrors.KindInvalidTransfer:
			status = http.StatusUnprocessableEntity
		case derrors.KindConflict:
			status = http.StatusConflict
		case derrors.KindPersistence:
			status = http.StatusBadGateway
			message = "storage unavailable"
		}
	}

	return c.JSON(status, map[string]interface{}{
		"error": message,
	})
}
