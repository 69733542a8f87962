package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/derrors"
	"github.com/villagereg/landregistry/common/logger"
)

// ownerStore abstracts owner persistence for the service layer
type ownerStore interface {
	Create(ctx context.Context, owner *models.Owner) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error)
	List(ctx context.Context) ([]*models.Owner, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateOwnerInput carries user-entered owner fields. Empty optional fields
// are stored as NULL.
type CreateOwnerInput struct {
	FullName      string `json:"full_name"`
	NationalID    string `json:"national_id"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
}

// OwnerService handles owner operations
type OwnerService struct {
	store ownerStore
	log   *logger.Logger
}

// NewOwnerService creates a new owner service
func NewOwnerService(store ownerStore, log *logger.Logger) *OwnerService {
	return &OwnerService{
		store: store,
		log:   log,
	}
}

// CreateOwner registers a new owner
func (s *OwnerService) CreateOwner(ctx context.Context, input CreateOwnerInput) (*models.Owner, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	if input.FullName == "" {
		return nil, derrors.New(derrors.KindValidation, "owner full name is required")
	}

	owner := &models.Owner{
		FullName:      input.FullName,
		NationalID:    optional(input.NationalID),
		ContactNumber: optional(input.ContactNumber),
		Address:       optional(input.Address),
	}

	if err := s.store.Create(ctx, owner); err != nil {
		return nil, err
	}

	s.log.Info("owner created", "owner_id", owner.ID, "full_name", owner.FullName)

	return owner, nil
}

// GetOwner retrieves an owner by id
func (s *OwnerService) GetOwner(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	return s.store.GetByID(ctx, id)
}

// ListOwners lists all owners ordered by name
func (s *OwnerService) ListOwners(ctx context.Context) ([]*models.Owner, error) {
	return s.store.List(ctx)
}

// optional converts a trimmed user-entered string to a nullable column value
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
