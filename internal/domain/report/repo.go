package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateBatch(ctx context.Context, reports []*LabReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*LabReport, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*LabReport, int, error)
}
