package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/villagereg/landregistry/cmd/registry/container"
	"github.com/villagereg/landregistry/cmd/registry/handlers"
)

// RegisterParcelRoutes registers parcel and transfer routes
func RegisterParcelRoutes(e *echo.Echo, c *container.Container) {
	ph := handlers.NewParcelHandler(c)
	th := handlers.NewTransferHandler(c)

	parcels := e.Group("/api/v1/parcels")
	{
		parcels.POST("", ph.RegisterParcel)                  // POST /api/v1/parcels
		parcels.GET("", ph.ListParcels)                      // GET /api/v1/parcels?q=&filter=
		parcels.GET("/:id", ph.GetParcel)                    // GET /api/v1/parcels/{parcel_id}
		parcels.GET("/:id/certificate", ph.GetCertificate)   // GET /api/v1/parcels/{parcel_id}/certificate
		parcels.POST("/:id/transfers", th.TransferOwnership) // POST /api/v1/parcels/{parcel_id}/transfers
		parcels.GET("/:id/transfers", th.GetTransferHistory) // GET /api/v1/parcels/{parcel_id}/transfers
	}
}
