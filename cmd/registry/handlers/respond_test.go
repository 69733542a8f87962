package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/villagereg/landregistry/common/derrors"
)

// TestRespondError verifies the error-kind to HTTP-status mapping and that
// store causes never leak into the response body
func TestRespondError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			"validation",
			derrors.New(derrors.KindValidation, "parcel number is required"),
			http.StatusBadRequest,
			"parcel number is required",
		},
		{
			"not found",
			derrors.New(derrors.KindNotFound, "parcel not found"),
			http.StatusNotFound,
			"parcel not found",
		},
		{
			"invalid transfer",
			derrors.New(derrors.KindInvalidTransfer, "new owner is already the current owner"),
			http.StatusUnprocessableEntity,
			"new owner is already the current owner",
		},
		{
			"conflict",
			derrors.New(derrors.KindConflict, "parcel ownership changed concurrently, transfer not applied"),
			http.StatusConflict,
			"parcel ownership changed concurrently, transfer not applied",
		},
		{
			"persistence hides the cause",
			derrors.Wrap(errors.New("dial tcp: connection refused"), derrors.KindPersistence, "failed to query parcels"),
			http.StatusBadGateway,
			"storage unavailable",
		},
		{
			"unclassified",
			errors.New("boom"),
			http.StatusInternalServerError,
			"internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			require.NoError(t, respondError(c, tt.err))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.NotContains(t, rec.Body.String(), "connection refused")
		})
	}
}
