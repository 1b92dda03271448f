package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Categories accepted for lab report uploads.
var validCategories = map[string]bool{
	"lab-report":     true,
	"general-report": true,
}

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NormalizeCategory maps unknown categories to general-report.
func NormalizeCategory(category string) string {
	if validCategories[category] {
		return category
	}
	return "general-report"
}

// RecordBatch persists one row per uploaded file. The batch is
// all-or-nothing: any invalid entry rejects the whole upload.
func (s *Service) RecordBatch(ctx context.Context, reports []*LabReport) error {
	if len(reports) == 0 {
		return fmt.Errorf("at least one file is required")
	}
	for _, r := range reports {
		if r.SubjectID == uuid.Nil {
			return fmt.Errorf("subject_id is required")
		}
		if r.ArtifactID == "" {
			return fmt.Errorf("artifact is required")
		}
		r.Category = NormalizeCategory(r.Category)
	}
	if err := s.repo.CreateBatch(ctx, reports); err != nil {
		return err
	}
	s.log.Info().Int("count", len(reports)).
		Str("subject_id", reports[0].SubjectID.String()).
		Msg("lab reports recorded")
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*LabReport, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*LabReport, int, error) {
	return s.repo.ListBySubject(ctx, subjectID, limit, offset)
}
