package subject

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	byID       map[uuid.UUID]*Subject
	byExternal map[string]*Subject
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		byID:       make(map[uuid.UUID]*Subject),
		byExternal: make(map[string]*Subject),
	}
}

func (m *mockRepo) Create(_ context.Context, s *Subject) error {
	s.ID = uuid.New()
	m.byID[s.ID] = s
	m.byExternal[s.ExternalID] = s
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Subject, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) GetByExternalID(_ context.Context, externalID string) (*Subject, error) {
	s, ok := m.byExternal[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) Update(_ context.Context, s *Subject) error {
	m.byID[s.ID] = s
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	if s, ok := m.byID[id]; ok {
		delete(m.byExternal, s.ExternalID)
	}
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Subject, int, error) {
	var items []*Subject
	for _, s := range m.byID {
		items = append(items, s)
	}
	return items, len(items), nil
}

func TestServiceCreateValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Subject{FullName: "Jane"}); err == nil {
		t.Error("want error for missing external_id")
	}
	if err := svc.Create(ctx, &Subject{ExternalID: "990123456V"}); err == nil {
		t.Error("want error for missing full_name")
	}
	if err := svc.Create(ctx, &Subject{ExternalID: "990123456V", FullName: "Jane Doe"}); err != nil {
		t.Errorf("valid create: %v", err)
	}
}

func TestServiceResolveByExternalID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	if err := svc.Create(ctx, &Subject{ExternalID: "990123456V", FullName: "Jane Doe"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	subj, err := svc.ResolveByExternalID(ctx, "  990123456V  ")
	if err != nil {
		t.Fatalf("ResolveByExternalID: %v", err)
	}
	if subj.FullName != "Jane Doe" {
		t.Errorf("FullName = %s", subj.FullName)
	}

	if _, err := svc.ResolveByExternalID(ctx, ""); err == nil {
		t.Error("want error for empty identifier")
	}
	if _, err := svc.ResolveByExternalID(ctx, "000000000X"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSubjectToSnapshot(t *testing.T) {
	id := uuid.New()
	phone := "0771234567"
	s := &Subject{ID: id, FullName: "Jane Doe", Phone: &phone}
	snap := s.ToSnapshot()
	if snap.PropertyID != id.String() {
		t.Errorf("PropertyID = %s, want %s", snap.PropertyID, id)
	}
	if snap.FullName != "Jane Doe" || snap.Phone != "0771234567" {
		t.Errorf("snapshot = %+v", snap)
	}
}
