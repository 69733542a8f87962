package models

import (
	"time"

	"github.com/google/uuid"
)

// Owner represents a person who can hold land.
// Maps to: owners table
type Owner struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Legal name as recorded by the registry office
	FullName string `db:"full_name" json:"full_name"`

	// Optional identification and contact details
	NationalID    *string `db:"national_id" json:"national_id,omitempty"`
	ContactNumber *string `db:"contact_number" json:"contact_number,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
