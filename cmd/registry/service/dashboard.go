package service

import (
	"context"

	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/logger"
)

type parcelStats interface {
	Count(ctx context.Context) (int64, error)
	TotalArea(ctx context.Context) (float64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.ParcelWithOwners, error)
}

type ownerStats interface {
	Count(ctx context.Context) (int64, error)
}

type transferStats interface {
	Count(ctx context.Context) (int64, error)
}

// Stats summarizes the registry. Every figure is derived from data; there is
// no transfer-approval workflow, so nothing here counts "pending" anything.
type Stats struct {
	TotalParcels   int64                      `json:"total_parcels"`
	TotalOwners    int64                      `json:"total_owners"`
	TotalTransfers int64                      `json:"total_transfers"`
	TotalAreaSqm   float64                    `json:"total_area_sqm"`
	RecentParcels  []*models.ParcelWithOwners `json:"recent_parcels"`
}

// DashboardService computes registry summary figures
type DashboardService struct {
	parcels   parcelStats
	owners    ownerStats
	transfers transferStats
	log       *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(parcels parcelStats, owners ownerStats, transfers transferStats, log *logger.Logger) *DashboardService {
	return &DashboardService{
		parcels:   parcels,
		owners:    owners,
		transfers: transfers,
		log:       log,
	}
}

// GetStats returns registry totals and the five most recent registrations
func (s *DashboardService) GetStats(ctx context.Context) (*Stats, error) {
	parcels, err := s.parcels.Count(ctx)
	if err != nil {
		return nil, err
	}

	owners, err := s.owners.Count(ctx)
	if err != nil {
		return nil, err
	}

	transfers, err := s.transfers.Count(ctx)
	if err != nil {
		return nil, err
	}

	area, err := s.parcels.TotalArea(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.parcels.ListRecent(ctx, 5)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalParcels:   parcels,
		TotalOwners:    owners,
		TotalTransfers: transfers,
		TotalAreaSqm:   area,
		RecentParcels:  recent,
	}, nil
}
