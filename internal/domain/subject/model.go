package subject

import (
	"time"

	"github.com/google/uuid"
)

// Subject maps to the subject table: one patient known to the portal,
// addressable by the stable external identifier (NIC) printed on captured
// documents.
type Subject struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	ExternalID string     `db:"external_id" json:"external_id"`
	FullName   string     `db:"full_name" json:"full_name"`
	Gender     *string    `db:"gender" json:"gender,omitempty"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Phone      *string    `db:"phone" json:"phone,omitempty"`
	Email      *string    `db:"email" json:"email,omitempty"`
	Address    *string    `db:"address" json:"address,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Snapshot is the wire shape the capture workflow consumes from the lookup
// endpoint: the stable identifier plus display and contact fields.
type Snapshot struct {
	PropertyID string `json:"propertyId"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// ToSnapshot produces the read-only snapshot returned to capture clients.
func (s *Subject) ToSnapshot() Snapshot {
	snap := Snapshot{
		PropertyID: s.ID.String(),
		FullName:   s.FullName,
	}
	if s.Phone != nil {
		snap.Phone = *s.Phone
	}
	if s.Email != nil {
		snap.Email = *s.Email
	}
	if s.Address != nil {
		snap.Address = *s.Address
	}
	return snap
}
