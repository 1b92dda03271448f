package subject

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, subj *Subject) error {
	subj.ExternalID = strings.TrimSpace(subj.ExternalID)
	if subj.ExternalID == "" {
		return fmt.Errorf("external_id is required")
	}
	if strings.TrimSpace(subj.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.Create(ctx, subj)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Subject, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveByExternalID finds the subject carrying the given external
// identifier (NIC). Empty identifiers are rejected before hitting storage.
func (s *Service) ResolveByExternalID(ctx context.Context, externalID string) (*Subject, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, fmt.Errorf("identifier is required")
	}
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *Service) Update(ctx context.Context, subj *Subject) error {
	if strings.TrimSpace(subj.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	return s.repo.Update(ctx, subj)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Subject, int, error) {
	return s.repo.List(ctx, limit, offset)
}
