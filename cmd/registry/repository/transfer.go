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

// TransferRepository handles database operations for transfer records.
// Transfers are append-only: there is no update or delete here.
type TransferRepository struct {
	db *db.DB
}

// NewTransferRepository creates a new transfer repository
func NewTransferRepository(db *db.DB) *TransferRepository {
	return &TransferRepository{db: db}
}

// CreateTx inserts a transfer record inside an open transaction and fills in
// the generated id and timestamp
func (r *TransferRepository) CreateTx(ctx context.Context, tx pgx.Tx, rec *models.TransferRecord) error {
	query := `
		INSERT INTO transfers (parcel_id, from_owner_id, to_owner_id, transfer_date, sale_amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := tx.QueryRow(ctx, query,
		rec.ParcelID,
		rec.FromOwnerID,
		rec.ToOwnerID,
		rec.TransferDate,
		rec.SaleAmount,
		rec.Notes,
	).Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return derrors.Wrap(err, derrors.KindPersistence, "failed to create transfer record")
	}

	return nil
}

// ListByParcel retrieves a parcel's transfer records joined with owners,
// ordered by transfer date ascending with creation order breaking ties.
// The returned sequence is the parcel's provenance chain.
func (r *TransferRepository) ListByParcel(ctx context.Context, parcelID uuid.UUID) ([]*models.TransferWithOwners, error) {
	query := `
		SELECT t.id, t.parcel_id, t.from_owner_id, t.to_owner_id,
		       t.transfer_date, t.sale_amount, t.notes, t.created_at,
		       fo.id, fo.full_name, fo.national_id, fo.contact_number, fo.address, fo.created_at,
		       to_.id, to_.full_name, to_.national_id, to_.contact_number, to_.address, to_.created_at
		FROM transfers t
		LEFT JOIN owners fo ON fo.id = t.from_owner_id
		JOIN owners to_ ON to_.id = t.to_owner_id
		WHERE t.parcel_id = $1
		ORDER BY t.transfer_date ASC, t.created_at ASC
	`

	rows, err := r.db.Query(ctx, query, parcelID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to list transfers")
	}
	defer rows.Close()

	// Non-nil so an empty history serializes as [] rather than null
	transfers := make([]*models.TransferWithOwners, 0)
	for rows.Next() {
		rec := &models.TransferWithOwners{}

		var (
			foID                 *uuid.UUID
			foName               *string
			foNationalID         *string
			foContact, foAddress *string
			foCreatedAt          *time.Time
			to                   models.Owner
		)

		err := rows.Scan(
			&rec.ID,
			&rec.ParcelID,
			&rec.FromOwnerID,
			&rec.ToOwnerID,
			&rec.TransferDate,
			&rec.SaleAmount,
			&rec.Notes,
			&rec.CreatedAt,
			&foID, &foName, &foNationalID, &foContact, &foAddress, &foCreatedAt,
			&to.ID, &to.FullName, &to.NationalID, &to.ContactNumber, &to.Address, &to.CreatedAt,
		)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to scan transfer")
		}

		if foID != nil {
			rec.FromOwner = &models.Owner{
				ID:            *foID,
				FullName:      *foName,
				NationalID:    foNationalID,
				ContactNumber: foContact,
				Address:       foAddress,
				CreatedAt:     *foCreatedAt,
			}
		}
		rec.ToOwner = &to

		transfers = append(transfers, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, derrors.Wrap(err, derrors.KindPersistence, "error iterating transfers")
	}

	return transfers, nil
}

// LatestForParcel retrieves a parcel's most recent transfer record, or nil
// when the parcel has no history
func (r *TransferRepository) LatestForParcel(ctx context.Context, parcelID uuid.UUID) (*models.TransferRecord, error) {
	query := `
		SELECT id, parcel_id, from_owner_id, to_owner_id, transfer_date, sale_amount, notes, created_at
		FROM transfers
		WHERE parcel_id = $1
		ORDER BY transfer_date DESC, created_at DESC
		LIMIT 1
	`

	rec := &models.TransferRecord{}
	err := r.db.QueryRow(ctx, query, parcelID).Scan(
		&rec.ID,
		&rec.ParcelID,
		&rec.FromOwnerID,
		&rec.ToOwnerID,
		&rec.TransferDate,
		&rec.SaleAmount,
		&rec.Notes,
		&rec.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, derrors.Wrap(err, derrors.KindPersistence, "failed to get latest transfer")
	}

	return rec, nil
}

// Count returns the number of recorded transfers
func (r *TransferRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transfers`).Scan(&count)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.KindPersistence, "failed to count transfers")
	}

	return count, nil
}
