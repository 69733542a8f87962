package models

import (
	"time"

	"github.com/google/uuid"
)

// Parcel represents a registered piece of land.
// Maps to: parcels table
//
// CurrentOwnerID is a derived cache: it always equals the to_owner of the
// parcel's latest transfer record, or whatever was set at registration when
// no transfer exists. It is the only field mutated after creation, and only
// as the second write of a successful ownership transfer.
type Parcel struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Registry number, e.g. 'PLOT-001'
	ParcelNumber string `db:"parcel_number" json:"parcel_number"`

	// Free-text location description
	Location string `db:"location" json:"location"`

	// Area in square meters, always positive
	AreaSqm float64 `db:"area_sqm" json:"area_sqm"`

	// Optional boundary description
	Boundaries *string `db:"boundaries" json:"boundaries,omitempty"`

	// Owner at first registration; nil when unknown
	OriginalOwnerID *uuid.UUID `db:"original_owner_id" json:"original_owner_id,omitempty"`

	// Holder of record; nil until assigned
	CurrentOwnerID *uuid.UUID `db:"current_owner_id" json:"current_owner_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ParcelWithOwners is a Parcel joined with its owner records for list and
// detail reads.
type ParcelWithOwners struct {
	Parcel
	OriginalOwner *Owner `json:"original_owner,omitempty"`
	CurrentOwner  *Owner `json:"current_owner,omitempty"`
}
