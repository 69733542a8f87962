package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/villagereg/landregistry/cmd/registry/models"
	"github.com/villagereg/landregistry/common/db"
	"github.com/villagereg/landregistry/common/derrors"
)

// errTransferConflict aborts the transfer transaction when the optimistic
// owner check fails; it never escapes ExecuteTransfer.
var errTransferConflict = errors.New("transfer conflict")

// LedgerRepository owns the two-write ledger operations. Each one runs inside
// a single transaction so the parcel pointer and the transfer history can
// never diverge on partial failure.
type LedgerRepository struct {
	db        *db.DB
	parcels   *ParcelRepository
	transfers *TransferRepository
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *db.DB, parcels *ParcelRepository, transfers *TransferRepository) *LedgerRepository {
	return &LedgerRepository{
		db:        db,
		parcels:   parcels,
		transfers: transfers,
	}
}

// RegisterParcel inserts a parcel and, when rec is non-nil, its synthetic
// initial transfer record, atomically. rec.ParcelID is filled in from the
// generated parcel id.
func (r *LedgerRepository) RegisterParcel(ctx context.Context, parcel *models.Parcel, rec *models.TransferRecord) error {
	err := r.db.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := r.parcels.CreateTx(ctx, tx, parcel); err != nil {
			return err
		}

		if rec != nil {
			rec.ParcelID = parcel.ID
			if err := r.transfers.CreateTx(ctx, tx, rec); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		if isUniqueViolation(err) {
			return derrors.Newf(derrors.KindValidation, "parcel number already registered: %s", parcel.ParcelNumber)
		}
		return err
	}

	return nil
}

// ExecuteTransfer appends a transfer record and moves the parcel's
// current-owner pointer in one transaction. The pointer update is guarded by
// expectedOwner: when a concurrent transfer moved it first the whole
// transaction rolls back, no record is kept, and ok is false.
func (r *LedgerRepository) ExecuteTransfer(ctx context.Context, rec *models.TransferRecord, expectedOwner *uuid.UUID) (bool, error) {
	err := r.db.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := r.transfers.CreateTx(ctx, tx, rec); err != nil {
			return err
		}

		ok, err := r.parcels.UpdateCurrentOwnerTx(ctx, tx, rec.ParcelID, expectedOwner, rec.ToOwnerID)
		if err != nil {
			return err
		}
		if !ok {
			return errTransferConflict
		}

		return nil
	})

	if errors.Is(err, errTransferConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint error
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
