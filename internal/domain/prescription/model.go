package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Prescription kinds mirror the authoring paths in the portal UI.
const (
	KindAutoCapture   = "auto-capture"
	KindManual        = "manual"
	KindDiagnosisCard = "diagnosis-card"
)

var validKinds = map[string]bool{
	KindAutoCapture: true, KindManual: true, KindDiagnosisCard: true,
}

// Drug is one entry of a prescription drug list, stored as JSONB.
type Drug struct {
	Name      string `json:"name"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Prescription maps to the prescription table: one submitted capture or
// authored prescription, linked to its subject and stored artifact.
type Prescription struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	SubjectID     uuid.UUID         `db:"subject_id" json:"subject_id"`
	DoctorID      string            `db:"doctor_id" json:"doctor_id"`
	AppointmentID string            `db:"appointment_id" json:"appointment_id"`
	Kind          string            `db:"kind" json:"kind"`
	Diagnosis     *string           `db:"diagnosis" json:"diagnosis,omitempty"`
	Notes         *string           `db:"notes" json:"notes,omitempty"`
	DrugList      []Drug            `json:"drug_list,omitempty"`
	PatientInfo   map[string]string `json:"patient_info,omitempty"`
	ExpiryDate    *time.Time        `db:"expiry_date" json:"expiry_date,omitempty"`
	SignatureType *string           `db:"signature_type" json:"signature_type,omitempty"`
	SignatureData *string           `db:"signature_data" json:"signature_data,omitempty"`
	SignedAt      *time.Time        `db:"signed_at" json:"signed_at,omitempty"`
	ArtifactID    string            `db:"artifact_id" json:"artifact_id"`
	CreatedBy     string            `db:"created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// Theme describes one prescription pad theme offered to clinicians. Themes
// are served from the injected key-value store rather than ambient cookies.
type Theme struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Color   string `json:"color"`
	Active  bool   `json:"active"`
	Default bool   `json:"default,omitempty"`
}
