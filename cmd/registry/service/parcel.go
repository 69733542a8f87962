package service

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/cache"
	"github.com/villagereg/landregistry/common/config"
	"github.com/villagereg/landregistry/common/derrors"
	"github.com/villagereg/landregistry/common/logger"
	"github.com/villagereg/landregistry/common/queue"
)

// initialRegistrationNotes annotates the synthetic transfer record written
// when a parcel is registered with a known owner.
const initialRegistrationNotes = "Initial land registration"

// cacheKeyParcels holds the unfiltered parcel list
const cacheKeyParcels = "registry:parcels"

// parcelLedger abstracts the transactional register write for tests
type parcelLedger interface {
	RegisterParcel(ctx context.Context, parcel *models.Parcel, rec *models.TransferRecord) error
}

// parcelStore abstracts parcel reads for the service layer
type parcelStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error)
	GetWithOwners(ctx context.Context, id uuid.UUID) (*models.ParcelWithOwners, error)
	List(ctx context.Context, search string) ([]*models.ParcelWithOwners, error)
}

// transferReader abstracts history reads for the service layer
type transferReader interface {
	ListByParcel(ctx context.Context, parcelID uuid.UUID) ([]*models.TransferWithOwners, error)
}

// RegisterParcelInput carries user-entered registration fields
type RegisterParcelInput struct {
	ParcelNumber    string            `json:"parcel_number"`
	Location        string            `json:"location"`
	AreaSqm         float64           `json:"area_sqm"`
	Boundaries      string            `json:"boundaries"`
	OriginalOwnerID *uuid.UUID        `json:"original_owner_id"`
	CurrentOwnerID  *uuid.UUID        `json:"current_owner_id"`
	NewOwner        *CreateOwnerInput `json:"new_owner"`
}

// ParcelService handles parcel registration and reads
type ParcelService struct {
	ledger    parcelLedger
	parcels   parcelStore
	transfers transferReader
	owners    ownerStore
	cache     cache.Cache
	cacheTTL  time.Duration
	ledgerCfg config.LedgerConfig
	filter    *FilterEvaluator
	events    *EventPublisher
	log       *logger.Logger
}

// NewParcelService creates a new parcel service
func NewParcelService(
	ledger parcelLedger,
	parcels parcelStore,
	transfers transferReader,
	owners ownerStore,
	c cache.Cache,
	cfg *config.Config,
	events *EventPublisher,
	log *logger.Logger,
) *ParcelService {
	return &ParcelService{
		ledger:    ledger,
		parcels:   parcels,
		transfers: transfers,
		owners:    owners,
		cache:     c,
		cacheTTL:  cfg.Cache.DefaultTTL,
		ledgerCfg: cfg.Ledger,
		filter:    NewFilterEvaluator(),
		events:    events,
		log:       log,
	}
}

// RegisterParcel validates the input and persists a new parcel. When an
// original owner is known, the parcel and its synthetic initial transfer
// record are written in one transaction, and the current owner defaults to
// the original owner unless the caller set it explicitly.
func (s *ParcelService) RegisterParcel(ctx context.Context, input RegisterParcelInput) (*models.Parcel, error) {
	input.ParcelNumber = strings.TrimSpace(input.ParcelNumber)
	input.Location = strings.TrimSpace(input.Location)

	if input.ParcelNumber == "" {
		return nil, derrors.New(derrors.KindValidation, "parcel number is required")
	}
	if input.Location == "" {
		return nil, derrors.New(derrors.KindValidation, "location is required")
	}
	if input.AreaSqm <= 0 || math.IsNaN(input.AreaSqm) || math.IsInf(input.AreaSqm, 0) {
		return nil, derrors.New(derrors.KindValidation, "area size must be a positive number")
	}

	// Inline owner creation, matching the registry office flow of adding the
	// owner right before registering their land
	if input.NewOwner != nil {
		owner := &models.Owner{
			FullName:      strings.TrimSpace(input.NewOwner.FullName),
			NationalID:    optional(input.NewOwner.NationalID),
			ContactNumber: optional(input.NewOwner.ContactNumber),
			Address:       optional(input.NewOwner.Address),
		}
		if owner.FullName == "" {
			return nil, derrors.New(derrors.KindValidation, "owner full name is required")
		}
		if err := s.owners.Create(ctx, owner); err != nil {
			return nil, err
		}
		input.OriginalOwnerID = &owner.ID
	}

	if input.OriginalOwnerID != nil {
		exists, err := s.owners.Exists(ctx, *input.OriginalOwnerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, derrors.Newf(derrors.KindNotFound, "original owner not found: %s", input.OriginalOwnerID)
		}
	}

	if input.CurrentOwnerID != nil {
		exists, err := s.owners.Exists(ctx, *input.CurrentOwnerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, derrors.Newf(derrors.KindNotFound, "current owner not found: %s", input.CurrentOwnerID)
		}
	}

	// Current owner defaults to the original owner
	currentOwner := input.CurrentOwnerID
	if currentOwner == nil {
		currentOwner = input.OriginalOwnerID
	}

	parcel := &models.Parcel{
		ParcelNumber:    input.ParcelNumber,
		Location:        input.Location,
		AreaSqm:         input.AreaSqm,
		Boundaries:      optional(input.Boundaries),
		OriginalOwnerID: input.OriginalOwnerID,
		CurrentOwnerID:  currentOwner,
	}

	// A known original owner gets a provenance chain rooted at registration
	var rec *models.TransferRecord
	if input.OriginalOwnerID != nil {
		notes := initialRegistrationNotes
		rec = &models.TransferRecord{
			FromOwnerID:  nil,
			ToOwnerID:    *input.OriginalOwnerID,
			TransferDate: today(),
			Notes:        &notes,
		}
	}

	err := withRetry(ctx, s.ledgerCfg.WriteAttempts, s.ledgerCfg.WriteBackoff, s.log, "register_parcel", func() error {
		return s.ledger.RegisterParcel(ctx, parcel, rec)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateParcelList(ctx)

	s.events.Publish(ctx, LedgerEvent{
		Type:      queue.TopicParcelRegistered,
		ParcelID:  parcel.ID,
		ToOwnerID: parcel.CurrentOwnerID,
	})

	s.log.Info("parcel registered",
		"parcel_id", parcel.ID,
		"parcel_number", parcel.ParcelNumber,
		"has_owner", parcel.CurrentOwnerID != nil,
	)

	return parcel, nil
}

// GetParcel retrieves a parcel with its owner records
func (s *ParcelService) GetParcel(ctx context.Context, id uuid.UUID) (*models.ParcelWithOwners, error) {
	return s.parcels.GetWithOwners(ctx, id)
}

// ListParcels lists parcels ordered by parcel number. search narrows by
// parcel number, location, or current-owner name; filterExpr is an optional
// CEL expression applied on top. The unfiltered list is served from cache
// when one is configured.
func (s *ParcelService) ListParcels(ctx context.Context, search, filterExpr string) ([]*models.ParcelWithOwners, error) {
	cacheable := search == "" && filterExpr == "" && s.cache != nil

	if cacheable {
		if data, found, err := s.cache.Get(ctx, cacheKeyParcels); err == nil && found {
			var parcels []*models.ParcelWithOwners
			if err := json.Unmarshal(data, &parcels); err == nil {
				return parcels, nil
			}
			// Corrupt entry; fall through to the store and overwrite it
			s.log.Warn("discarding unreadable parcel list cache entry")
		}
	}

	parcels, err := s.parcels.List(ctx, search)
	if err != nil {
		return nil, err
	}

	if filterExpr != "" {
		filtered := make([]*models.ParcelWithOwners, 0, len(parcels))
		for _, p := range parcels {
			match, err := s.filter.Matches(filterExpr, p)
			if err != nil {
				return nil, err
			}
			if match {
				filtered = append(filtered, p)
			}
		}
		parcels = filtered
	}

	if cacheable {
		if data, err := json.Marshal(parcels); err == nil {
			if err := s.cache.Set(ctx, cacheKeyParcels, data, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache parcel list", "error", err)
			}
		}
	}

	return parcels, nil
}

// GetCertificate assembles the ownership certificate document for a parcel:
// the parcel with its owners plus the full provenance chain.
func (s *ParcelService) GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	parcel, err := s.parcels.GetWithOwners(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.transfers.ListByParcel(ctx, id)
	if err != nil {
		return nil, err
	}

	cert := &models.Certificate{
		Parcel:   *parcel,
		History:  make([]models.TransferWithOwners, 0, len(history)),
		IssuedAt: time.Now().UTC(),
	}
	for _, rec := range history {
		cert.History = append(cert.History, *rec)
	}

	return cert, nil
}

func (s *ParcelService) invalidateParcelList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyParcels); err != nil {
		s.log.Warn("failed to invalidate parcel list cache", "error", err)
	}
}

// today returns the current calendar date in UTC
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}
