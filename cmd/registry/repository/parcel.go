package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/db"
	"github.com/villagereg/landregistry/common/derrors"
)

// ParcelRepository handles database operations for parcels
type ParcelRepository struct {
	db *db.DB
}

// NewParcelRepository creates a new parcel repository
func NewParcelRepository(db *db.DB) *ParcelRepository {
	return &ParcelRepository{db: db}
}

// parcelWithOwnersColumns selects a parcel row joined with both owner records.
// LEFT JOINs keep parcels without owners in the result.
const parcelWithOwnersColumns = `
	SELECT p.id, p.parcel_number, p.location, p.area_sqm, p.boundaries,
	       p.original_owner_id, p.current_owner_id, p.created_at, p.updated_at,
	       oo.id, oo.full_name, oo.national_id, oo.contact_number, oo.address, oo.created_at,
	       co.id, co.full_name, co.national_id, co.contact_number, co.address, co.created_at
	FROM parcels p
	LEFT JOIN owners oo ON oo.id = p.original_owner_id
	LEFT JOIN owners co ON co.id = p.current_owner_id
`

// CreateTx inserts a new parcel inside an open transaction and fills in the
// generated id and timestamps
func (r *ParcelRepository) CreateTx(ctx context.Context, tx pgx.Tx, parcel *models.Parcel) error {
	query := `
		INSERT INTO parcels (parcel_number, location, area_sqm, boundaries, original_owner_id, current_owner_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := tx.QueryRow(ctx, query,
		parcel.ParcelNumber,
		parcel.Location,
		parcel.AreaSqm,
		parcel.Boundaries,
		parcel.OriginalOwnerID,
		parcel.CurrentOwnerID,
	).Scan(&parcel.ID, &parcel.CreatedAt, &parcel.UpdatedAt)

	if err != nil {
		return derrors.Wrap(err, derrors.KindPersistence, "failed to create parcel")
	}

	return nil
}

// GetByID retrieves a parcel by id
func (r *ParcelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Parcel, error) {
	query := `
		SELECT id, parcel_number, location, area_sqm, boundaries,
		       original_owner_id, current_owner_id, created_at, updated_at
		FROM parcels
		WHERE id = $1
	`

	parcel := &models.Parcel{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&parcel.ID,
		&parcel.ParcelNumber,
		&parcel.Location,
		&parcel.AreaSqm,
		&parcel.Boundaries,
		&parcel.OriginalOwnerID,
		&parcel.CurrentOwnerID,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, derrors.Newf(derrors.KindNotFound, "parcel not found: %s", id)
		}
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to get parcel")
	}

	return parcel, nil
}

// GetWithOwners retrieves a parcel joined with its owner records
func (r *ParcelRepository) GetWithOwners(ctx context.Context, id uuid.UUID) (*models.ParcelWithOwners, error) {
	query := parcelWithOwnersColumns + ` WHERE p.id = $1`

	row := r.db.QueryRow(ctx, query, id)
	parcel, err := scanParcelWithOwners(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, derrors.Newf(derrors.KindNotFound, "parcel not found: %s", id)
		}
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to get parcel")
	}

	return parcel, nil
}

// List retrieves all parcels with their owners ordered by parcel number.
// A non-empty search term matches parcel number, location, and current-owner
// name case-insensitively.
func (r *ParcelRepository) List(ctx context.Context, search string) ([]*models.ParcelWithOwners, error) {
	query := parcelWithOwnersColumns
	args := []any{}

	if search != "" {
		query += `
	WHERE p.parcel_number ILIKE '%' || $1 || '%'
	   OR p.location ILIKE '%' || $1 || '%'
	   OR co.full_name ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}

	query += `
	ORDER BY p.parcel_number ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to list parcels")
	}
	defer rows.Close()

	parcels := make([]*models.ParcelWithOwners, 0)
	for rows.Next() {
		parcel, err := scanParcelWithOwners(rows)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to scan parcel")
		}
		parcels = append(parcels, parcel)
	}

	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "error iterating parcels")
	}

	return parcels, nil
}

// ListRecent retrieves the most recently registered parcels with their owners
func (r *ParcelRepository) ListRecent(ctx context.Context, limit int) ([]*models.ParcelWithOwners, error) {
	query := parcelWithOwnersColumns + `
	ORDER BY p.created_at DESC
	LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to list recent parcels")
	}
	defer rows.Close()

	parcels := make([]*models.ParcelWithOwners, 0)
	for rows.Next() {
		parcel, err := scanParcelWithOwners(rows)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to scan parcel")
		}
		parcels = append(parcels, parcel)
	}

	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "error iterating parcels")
	}

	return parcels, nil
}

// UpdateCurrentOwnerTx moves the current-owner pointer inside an open
// transaction, guarded by an optimistic check: the update only applies while
// the pointer still equals the value read at the start of the transfer.
// Returns false when a concurrent transfer moved the pointer first.
func (r *ParcelRepository) UpdateCurrentOwnerTx(ctx context.Context, tx pgx.Tx, parcelID uuid.UUID, expectedOwner *uuid.UUID, newOwner uuid.UUID) (bool, error) {
	query := `
		UPDATE parcels
		SET current_owner_id = $3, updated_at = NOW()
		WHERE id = $1 AND current_owner_id IS NOT DISTINCT FROM $2
	`

	tag, err := tx.Exec(ctx, query, parcelID, expectedOwner, newOwner)
	if err != nil {
		return false, derrors.Wrap(err, derrors.KindPersistence, "failed to update current owner")
	}

	return tag.RowsAffected() > 0, nil
}

// RepairCurrentOwner forces the current-owner pointer to a value derived from
// transfer history. Only the reconciler calls this.
func (r *ParcelRepository) RepairCurrentOwner(ctx context.Context, parcelID uuid.UUID, owner *uuid.UUID) error {
	query := `
		UPDATE parcels
		SET current_owner_id = $2, updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.db.Exec(ctx, query, parcelID, owner)
	if err != nil {
		return derrors.Wrap(err, derrors.KindPersistence, "failed to repair current owner")
	}

	return nil
}

// OwnerMismatch reports a parcel whose current-owner pointer disagrees with
// the to_owner of its latest transfer record.
type OwnerMismatch struct {
	ParcelID      uuid.UUID
	CurrentOwner  *uuid.UUID
	LatestToOwner uuid.UUID
}

// ListOwnerMismatches finds parcels whose pointer and history diverged
func (r *ParcelRepository) ListOwnerMismatches(ctx context.Context) ([]OwnerMismatch, error) {
	query := `
		SELECT p.id, p.current_owner_id, t.to_owner_id
		FROM parcels p
		JOIN LATERAL (
			SELECT to_owner_id
			FROM transfers
			WHERE parcel_id = p.id
			ORDER BY transfer_date DESC, created_at DESC
			LIMIT 1
		) t ON true
		WHERE p.current_owner_id IS DISTINCT FROM t.to_owner_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to list owner mismatches")
	}
	defer rows.Close()

	var mismatches []OwnerMismatch
	for rows.Next() {
		var m OwnerMismatch
		if err := rows.Scan(&m.ParcelID, &m.CurrentOwner, &m.LatestToOwner); err != nil {
			return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to scan owner mismatch")
		}
		mismatches = append(mismatches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "error iterating owner mismatches")
	}

	return mismatches, nil
}

// Count returns the number of registered parcels
func (r *ParcelRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM parcels`).Scan(&count)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.KindPersistence, "failed to count parcels")
	}

	return count, nil
}

// TotalArea returns the sum of all registered parcel areas in square meters
func (r *ParcelRepository) TotalArea(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(area_sqm), 0) FROM parcels`).Scan(&total)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.KindPersistence, "failed to sum parcel area")
	}

	return total, nil
}

// scanParcelWithOwners scans a parcelWithOwnersColumns row. The owner columns
// are nullable in bulk, so they scan into pointers first.
func scanParcelWithOwners(row pgx.Row) (*models.ParcelWithOwners, error) {
	parcel := &models.ParcelWithOwners{}

	var (
		ooID, coID                 *uuid.UUID
		ooName, coName             *string
		ooNationalID, coNationalID *string
		ooContact, coContact       *string
		ooAddress, coAddress       *string
		ooCreatedAt, coCreatedAt   *time.Time
	)

	err := row.Scan(
		&parcel.ID,
		&parcel.ParcelNumber,
		&parcel.Location,
		&parcel.AreaSqm,
		&parcel.Boundaries,
		&parcel.OriginalOwnerID,
		&parcel.CurrentOwnerID,
		&parcel.CreatedAt,
		&parcel.UpdatedAt,
		&ooID, &ooName, &ooNationalID, &ooContact, &ooAddress, &ooCreatedAt,
		&coID, &coName, &coNationalID, &coContact, &coAddress, &coCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if ooID != nil {
		parcel.OriginalOwner = &models.Owner{
			ID:            *ooID,
			FullName:      *ooName,
			NationalID:    ooNationalID,
			ContactNumber: ooContact,
			Address:       ooAddress,
			CreatedAt:     *ooCreatedAt,
		}
	}
	if coID != nil {
		parcel.CurrentOwner = &models.Owner{
			ID:            *coID,
			FullName:      *coName,
			NationalID:    coNationalID,
			ContactNumber: coContact,
			Address:       coAddress,
			CreatedAt:     *coCreatedAt,
		}
	}

	return parcel, nil
}
