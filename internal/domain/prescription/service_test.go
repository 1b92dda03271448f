package prescription

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docport/docport/internal/platform/kvstore"
)

type mockRepo struct {
	byID map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{byID: make(map[uuid.UUID]*Prescription)}
}

func (m *mockRepo) Create(_ context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.byID[p.ID] = p
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.byID, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.byID {
		items = append(items, p)
	}
	return items, len(items), nil
}

func (m *mockRepo) ListBySubject(_ context.Context, subjectID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.byID {
		if p.SubjectID == subjectID {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, kvstore.NewMemory(), zerolog.Nop())
}

func validInput() CreateInput {
	return CreateInput{
		SubjectID:     uuid.New().String(),
		DoctorID:      "doc-1",
		AppointmentID: "appt-1",
		ArtifactID:    "blob-1",
	}
}

func TestServiceCreate(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := validInput()
	in.Kind = KindDiagnosisCard
	in.Diagnosis = "bronchitis"
	in.ExpiryDate = "2026/03/15"
	in.SignatureType = "drawn"
	in.SignatureData = "base64sig"
	in.DrugListJSON = `[{"name":"amoxicillin","dose":"500mg"}]`
	in.PatientJSON = `{"weight":"72kg"}`

	rec, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Kind != KindDiagnosisCard {
		t.Errorf("Kind = %s", rec.Kind)
	}
	if rec.ExpiryDate == nil || rec.ExpiryDate.Format("2006-01-02") != "2026-03-15" {
		t.Errorf("ExpiryDate = %v", rec.ExpiryDate)
	}
	if rec.SignedAt == nil || rec.SignatureData == nil {
		t.Error("signature fields not recorded")
	}
	if len(rec.DrugList) != 1 || rec.DrugList[0].Name != "amoxicillin" {
		t.Errorf("DrugList = %+v", rec.DrugList)
	}
	if rec.PatientInfo["weight"] != "72kg" {
		t.Errorf("PatientInfo = %+v", rec.PatientInfo)
	}
}

func TestServiceCreateValidationOrder(t *testing.T) {
	svc := newTestService(newMockRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateInput)
		want   string
	}{
		{"bad subject", func(in *CreateInput) { in.SubjectID = "not-a-uuid" }, "subject_id"},
		{"missing artifact", func(in *CreateInput) { in.ArtifactID = "" }, "artifact"},
		{"missing doctor", func(in *CreateInput) { in.DoctorID = "  " }, "doctor_id"},
		{"missing appointment", func(in *CreateInput) { in.AppointmentID = "" }, "appointment_id"},
		{"unknown kind", func(in *CreateInput) { in.Kind = "telepathy" }, "kind"},
		{"bad drug json", func(in *CreateInput) { in.DrugListJSON = "{not json" }, "drug_list"},
		{"bad patient json", func(in *CreateInput) { in.PatientJSON = "nope" }, "patient_info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			_, err := svc.Create(ctx, in)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestServiceCreateDropsUnparseableExpiry(t *testing.T) {
	svc := newTestService(newMockRepo())

	in := validInput()
	in.ExpiryDate = "whenever"
	rec, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ExpiryDate != nil {
		t.Fatalf("ExpiryDate = %v, want dropped", rec.ExpiryDate)
	}
}

func TestServiceCreateDefaultsKind(t *testing.T) {
	svc := newTestService(newMockRepo())
	rec, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.Kind != KindAutoCapture {
		t.Errorf("Kind = %s, want %s", rec.Kind, KindAutoCapture)
	}
}

func TestServiceThemes(t *testing.T) {
	cache := kvstore.NewMemory()
	svc := NewService(newMockRepo(), cache, zerolog.Nop())

	// Empty cache serves defaults.
	themes := svc.Themes(context.Background())
	if len(themes) == 0 || themes[0].ID != "classic" {
		t.Fatalf("themes = %+v", themes)
	}

	// Refresh replaces the catalogue.
	svc.RefreshThemes([]Theme{{ID: "winter", Name: "Winter", Color: "#38bdf8", Active: true}})
	themes = svc.Themes(context.Background())
	if len(themes) != 1 || themes[0].ID != "winter" {
		t.Fatalf("themes after refresh = %+v", themes)
	}

	// Corrupt cache entries fall back to defaults.
	cache.Set(ThemesKey, "{corrupt", time.Minute)
	themes = svc.Themes(context.Background())
	if len(themes) == 0 || themes[0].ID != "classic" {
		t.Fatalf("themes with corrupt cache = %+v", themes)
	}
}
