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

// transferLedger abstracts the transactional transfer write for tests
type transferLedger interface {
	ExecuteTransfer(ctx context.Context, rec *models.TransferRecord, expectedOwner *uuid.UUID) (bool, error)
}

// TransferOwnershipInput carries user-entered transfer fields
type TransferOwnershipInput struct {
	ToOwnerID    *uuid.UUID        `json:"to_owner_id"`
	NewOwner     *CreateOwnerInput `json:"new_owner"`
	TransferDate time.Time         `json:"transfer_date"`
	SaleAmount   *float64          `json:"sale_amount"`
	Notes        string            `json:"notes"`
}

// TransferService enforces the ledger rule: every change of a parcel's
// current owner is accompanied by exactly one immutable transfer record,
// written in the same transaction.
type TransferService struct {
	ledger    transferLedger
	parcels   parcelStore
	transfers transferReader
	owners    ownerStore
	cache     cache.Cache
	cacheTTL  time.Duration
	ledgerCfg config.LedgerConfig
	events    *EventPublisher
	log       *logger.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(
	ledger transferLedger,
	parcels parcelStore,
	transfers transferReader,
	owners ownerStore,
	c cache.Cache,
	cfg *config.Config,
	events *EventPublisher,
	log *logger.Logger,
) *TransferService {
	return &TransferService{
		ledger:    ledger,
		parcels:   parcels,
		transfers: transfers,
		owners:    owners,
		cache:     c,
		cacheTTL:  cfg.Cache.DefaultTTL,
		ledgerCfg: cfg.Ledger,
		events:    events,
		log:       log,
	}
}

// TransferOwnership moves a parcel to a new owner. It appends a transfer
// record carrying the owner the parcel had when this call started, then moves
// the current-owner pointer, both in one transaction. A concurrent transfer
// that wins the race fails this one with a conflict instead of silently
// dropping either record.
func (s *TransferService) TransferOwnership(ctx context.Context, parcelID uuid.UUID, input TransferOwnershipInput) (*models.Parcel, error) {
	if input.ToOwnerID == nil && input.NewOwner == nil {
		return nil, derrors.New(derrors.KindValidation, "new owner is required")
	}
	if input.NewOwner != nil && strings.TrimSpace(input.NewOwner.FullName) == "" {
		return nil, derrors.New(derrors.KindValidation, "owner full name is required")
	}
	if input.SaleAmount != nil && (*input.SaleAmount < 0 || math.IsNaN(*input.SaleAmount) || math.IsInf(*input.SaleAmount, 0)) {
		return nil, derrors.New(derrors.KindValidation, "sale amount must be a non-negative number")
	}

	// Transfer date defaults to today
	transferDate := input.TransferDate
	if transferDate.IsZero() {
		transferDate = today()
	}

	parcel, err := s.parcels.GetByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}

	// Inline owner creation, same flow as registration. The parcel and the
	// rest of the input are checked first so a rejected transfer leaves no
	// orphaned owner row behind.
	if input.ToOwnerID == nil {
		owner := &models.Owner{
			FullName:      strings.TrimSpace(input.NewOwner.FullName),
			NationalID:    optional(input.NewOwner.NationalID),
			ContactNumber: optional(input.NewOwner.ContactNumber),
			Address:       optional(input.NewOwner.Address),
		}
		if err := s.owners.Create(ctx, owner); err != nil {
			return nil, err
		}
		input.ToOwnerID = &owner.ID
	} else {
		exists, err := s.owners.Exists(ctx, *input.ToOwnerID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, derrors.Newf(derrors.KindNotFound, "new owner not found: %s", input.ToOwnerID)
		}
	}

	// The one business rule: a transfer must change hands
	if parcel.CurrentOwnerID != nil && *parcel.CurrentOwnerID == *input.ToOwnerID {
		return nil, derrors.New(derrors.KindInvalidTransfer, "new owner is already the current owner")
	}

	rec := &models.TransferRecord{
		ParcelID:     parcelID,
		FromOwnerID:  parcel.CurrentOwnerID,
		ToOwnerID:    *input.ToOwnerID,
		TransferDate: transferDate,
		SaleAmount:   input.SaleAmount,
		Notes:        optional(input.Notes),
	}

	err = withRetry(ctx, s.ledgerCfg.WriteAttempts, s.ledgerCfg.WriteBackoff, s.log, "transfer_ownership", func() error {
		ok, err := s.ledger.ExecuteTransfer(ctx, rec, parcel.CurrentOwnerID)
		if err != nil {
			return err
		}
		if !ok {
			// Another transfer moved the pointer since our read. The caller
			// must re-read and decide again, so this is not retried here.
			return derrors.New(derrors.KindConflict, "parcel ownership changed concurrently, transfer not applied")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, parcelID)

	s.events.Publish(ctx, LedgerEvent{
		Type:        queue.TopicOwnershipTransferred,
		ParcelID:    parcelID,
		FromOwnerID: rec.FromOwnerID,
		ToOwnerID:   &rec.ToOwnerID,
	})

	s.log.Info("ownership transferred",
		"parcel_id", parcelID,
		"from_owner", rec.FromOwnerID,
		"to_owner", rec.ToOwnerID,
		"transfer_date", transferDate.Format("2006-01-02"),
	)

	parcel.CurrentOwnerID = input.ToOwnerID
	return parcel, nil
}

// GetTransferHistory returns a parcel's provenance chain, oldest first,
// served from cache when one is configured
func (s *TransferService) GetTransferHistory(ctx context.Context, parcelID uuid.UUID) ([]*models.TransferWithOwners, error) {
	// Missing parcels surface as not-found rather than an empty history
	if _, err := s.parcels.GetByID(ctx, parcelID); err != nil {
		return nil, err
	}

	key := historyCacheKey(parcelID)

	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, key); err == nil && found {
			var history []*models.TransferWithOwners
			if err := json.Unmarshal(data, &history); err == nil {
				return history, nil
			}
			s.log.Warn("discarding unreadable history cache entry", "parcel_id", parcelID)
		}
	}

	history, err := s.transfers.ListByParcel(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.TransferWithOwners{}
	}

	if s.cache != nil {
		if data, err := json.Marshal(history); err == nil {
			if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
				s.log.Warn("failed to cache transfer history", "parcel_id", parcelID, "error", err)
			}
		}
	}

	return history, nil
}

func (s *TransferService) invalidate(ctx context.Context, parcelID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKeyParcels); err != nil {
		s.log.Warn("failed to invalidate parcel list cache", "error", err)
	}
	if err := s.cache.Delete(ctx, historyCacheKey(parcelID)); err != nil {
		s.log.Warn("failed to invalidate history cache", "parcel_id", parcelID, "error", err)
	}
}

func historyCacheKey(parcelID uuid.UUID) string {
	return "registry:history:" + parcelID.String()
}
