package models

import (
	"time"

	"github.com/google/uuid"
)

// TransferRecord is an immutable historical fact: ownership of a parcel moved
// from one owner (or nobody) to another on a date. Records are only ever
// inserted; the ordered sequence per parcel forms its provenance chain.
// Maps to: transfers table
type TransferRecord struct {
	ID uuid.UUID `db:"id" json:"id"`

	ParcelID uuid.UUID `db:"parcel_id" json:"parcel_id"`

	// nil means initial registration, no prior owner
	FromOwnerID *uuid.UUID `db:"from_owner_id" json:"from_owner_id,omitempty"`

	ToOwnerID uuid.UUID `db:"to_owner_id" json:"to_owner_id"`

	// Calendar date of the transfer (creation order breaks ties)
	TransferDate time.Time `db:"transfer_date" json:"transfer_date"`

	// Optional sale amount, non-negative when present
	SaleAmount *float64 `db:"sale_amount" json:"sale_amount,omitempty"`

	Notes *string `db:"notes" json:"notes,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TransferWithOwners is a TransferRecord joined with the owner records on
// both sides, for history reads and certificates.
type TransferWithOwners struct {
	TransferRecord
	FromOwner *Owner `json:"from_owner,omitempty"`
	ToOwner   *Owner `json:"to_owner,omitempty"`
}

// Certificate bundles everything the printable ownership certificate needs:
// the parcel, its owners, and the full provenance chain.
type Certificate struct {
	Parcel   ParcelWithOwners     `json:"parcel"`
	History  []TransferWithOwners `json:"history"`
	IssuedAt time.Time            `json:"issued_at"`
}
