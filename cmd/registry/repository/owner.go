package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/db"
	"github.com/villagereg/landregistry/common/derrors"
)

// OwnerRepository handles database operations for owners
type OwnerRepository struct {
	db *db.DB
}

// NewOwnerRepository creates a new owner repository
func NewOwnerRepository(db *db.DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// Create inserts a new owner and fills in the generated id and timestamp
func (r *OwnerRepository) Create(ctx context.Context, owner *models.Owner) error {
	query := `
		INSERT INTO owners (full_name, national_id, contact_number, address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		owner.FullName,
		owner.NationalID,
		owner.ContactNumber,
		owner.Address,
	).Scan(&owner.ID, &owner.CreatedAt)

	if err != nil {
		return derrors.Wrap(err, derrors.KindPersistence, "failed to create owner")
	}

	return nil
}

// GetByID retrieves an owner by id
func (r *OwnerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Owner, error) {
	query := `
		SELECT id, full_name, national_id, contact_number, address, created_at
		FROM owners
		WHERE id = $1
	`

	owner := &models.Owner{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&owner.ID,
		&owner.FullName,
		&owner.NationalID,
		&owner.ContactNumber,
		&owner.Address,
		&owner.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, derrors.Newf(derrors.KindNotFound, "owner not found: %s", id)
		}
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to get owner")
	}

	return owner, nil
}

// List retrieves all owners ordered by full name
func (r *OwnerRepository) List(ctx context.Context) ([]*models.Owner, error) {
	query := `
		SELECT id, full_name, national_id, contact_number, address, created_at
		FROM owners
		ORDER BY full_name ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to list owners")
	}
	defer rows.Close()

	owners := make([]*models.Owner, 0)
	for rows.Next() {
		owner := &models.Owner{}
		err := rows.Scan(
			&owner.ID,
			&owner.FullName,
			&owner.NationalID,
			&owner.ContactNumber,
			&owner.Address,
			&owner.CreatedAt,
		)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to scan owner")
		}
		owners = append(owners, owner)
	}

	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "error iterating owners")
	}

	return owners, nil
}

// Exists checks if an owner exists
func (r *OwnerRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM owners WHERE id = $1)`

	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, derrors.Wrap(err, derrors.KindPersistence, "failed to check owner existence")
	}

	return exists, nil
}

// Count returns the number of registered owners
func (r *OwnerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM owners`).Scan(&count)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.KindPersistence, "failed to count owners")
	}

	return count, nil
}
