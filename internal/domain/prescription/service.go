package prescription

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docport/docport/internal/platform/kvstore"
)

// CreateInput carries the decoded multipart form fields of a submission.
// JSON-encoded fields (drug_list, patient_info) arrive as raw strings and
// are decoded here so handlers stay thin.
type CreateInput struct {
	SubjectID     string
	DoctorID      string
	AppointmentID string
	Kind          string
	Diagnosis     string
	Notes         string
	ExpiryDate    string
	SignatureType string
	SignatureData string
	DrugListJSON  string
	PatientJSON   string
	ArtifactID    string
	CreatedBy     string
}

// Layouts accepted for the expiry_date field. An unparseable value is
// treated as absent rather than rejecting the whole submission.
var expiryLayouts = []string{time.RFC3339, "2006-01-02", "2006/01/02", "02-01-2006"}

type Service struct {
	repo   Repository
	themes kvstore.Store
	log    zerolog.Logger
}

func NewService(repo Repository, themes kvstore.Store, log zerolog.Logger) *Service {
	return &Service{repo: repo, themes: themes, log: log}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Prescription, error) {
	subjectID, err := uuid.Parse(strings.TrimSpace(in.SubjectID))
	if err != nil {
		return nil, fmt.Errorf("subject_id is required")
	}
	if strings.TrimSpace(in.ArtifactID) == "" {
		return nil, fmt.Errorf("artifact is required")
	}
	if strings.TrimSpace(in.DoctorID) == "" {
		return nil, fmt.Errorf("doctor_id is required")
	}
	if strings.TrimSpace(in.AppointmentID) == "" {
		return nil, fmt.Errorf("appointment_id is required")
	}
	kind := in.Kind
	if kind == "" {
		kind = KindAutoCapture
	}
	if !validKinds[kind] {
		return nil, fmt.Errorf("unknown prescription kind %q", kind)
	}

	p := &Prescription{
		SubjectID:     subjectID,
		DoctorID:      strings.TrimSpace(in.DoctorID),
		AppointmentID: strings.TrimSpace(in.AppointmentID),
		Kind:          kind,
		ArtifactID:    in.ArtifactID,
		CreatedBy:     in.CreatedBy,
	}
	if v := strings.TrimSpace(in.Diagnosis); v != "" {
		p.Diagnosis = &v
	}
	if v := strings.TrimSpace(in.Notes); v != "" {
		p.Notes = &v
	}
	if v := strings.TrimSpace(in.ExpiryDate); v != "" {
		p.ExpiryDate = parseExpiry(v)
		if p.ExpiryDate == nil {
			s.log.Warn().Str("expiry_date", v).Msg("unparseable expiry date dropped")
		}
	}
	if v := strings.TrimSpace(in.SignatureType); v != "" {
		p.SignatureType = &v
		if d := in.SignatureData; d != "" {
			p.SignatureData = &d
		}
		now := time.Now().UTC()
		p.SignedAt = &now
	}
	if in.DrugListJSON != "" {
		if err := json.Unmarshal([]byte(in.DrugListJSON), &p.DrugList); err != nil {
			return nil, fmt.Errorf("drug_list is not valid JSON: %w", err)
		}
	}
	if in.PatientJSON != "" {
		if err := json.Unmarshal([]byte(in.PatientJSON), &p.PatientInfo); err != nil {
			return nil, fmt.Errorf("patient_info is not valid JSON: %w", err)
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("prescription_id", p.ID.String()).
		Str("subject_id", p.SubjectID.String()).
		Str("kind", p.Kind).
		Msg("prescription recorded")
	return p, nil
}

func parseExpiry(raw string) *time.Time {
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListBySubject(ctx context.Context, subjectID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListBySubject(ctx, subjectID, limit, offset)
}

// ThemesKey is where the active theme catalogue lives in the key-value
// store. The server refreshes it on an interval; readers always get the
// latest cached copy.
const ThemesKey = "prescription:themes"

// ThemesTTL bounds how long a cached catalogue is served after refreshes
// stop.
const ThemesTTL = time.Hour

// Themes returns the cached theme catalogue, or the built-in defaults when
// the cache is empty or stale.
func (s *Service) Themes(ctx context.Context) []Theme {
	if raw, ok := s.themes.Get(ThemesKey); ok {
		var themes []Theme
		if err := json.Unmarshal([]byte(raw), &themes); err == nil && len(themes) > 0 {
			return themes
		}
		s.log.Warn().Msg("theme cache entry is corrupt, serving defaults")
	}
	return DefaultThemes()
}

// RefreshThemes stores the catalogue in the cache. The server calls this on
// startup and on the configured refresh interval.
func (s *Service) RefreshThemes(themes []Theme) {
	if len(themes) == 0 {
		themes = DefaultThemes()
	}
	raw, err := json.Marshal(themes)
	if err != nil {
		return
	}
	s.themes.Set(ThemesKey, string(raw), ThemesTTL)
}

// DefaultThemes is the catalogue served before the first refresh completes.
func DefaultThemes() []Theme {
	return []Theme{
		{ID: "classic", Name: "Classic", Color: "#1d4ed8", Active: true, Default: true},
		{ID: "mint", Name: "Mint", Color: "#0d9488", Active: true},
		{ID: "slate", Name: "Slate", Color: "#475569", Active: true},
	}
}
