package report

import (
	"time"

	"github.com/google/uuid"
)

// LabReport maps to the lab_report table: one uploaded report file for a
// subject. A multi-file upload produces one row per file, inserted as a
// single batch.
type LabReport struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SubjectID  uuid.UUID `db:"subject_id" json:"subject_id"`
	Category   string    `db:"category" json:"category"`
	FileName   string    `db:"file_name" json:"file_name"`
	ArtifactID string    `db:"artifact_id" json:"artifact_id"`
	UploadedBy string    `db:"uploaded_by" json:"uploaded_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
