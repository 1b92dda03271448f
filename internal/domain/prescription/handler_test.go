package prescription

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/docport/docport/internal/platform/auth"
	"github.com/docport/docport/internal/platform/blobstore"
	"github.com/docport/docport/internal/platform/kvstore"
)

func newTestHandler(t *testing.T) (*echo.Echo, blobstore.BlobStore, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	blobs := blobstore.NewMemoryStore()
	svc := NewService(repo, kvstore.NewMemory(), zerolog.Nop())
	e := echo.New()
	e.Use(auth.DevAuthMiddleware())
	NewHandler(svc, blobs).RegisterRoutes(e.Group("/api/v1"))
	return e, blobs, repo
}

type submissionForm struct {
	fields   map[string]string
	fileName string
	fileType string
	fileData []byte
}

func buildForm(t *testing.T, form submissionForm) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for name, value := range form.fields {
		if err := w.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}
	if form.fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="artifact"; filename="`+form.fileName+`"`)
		header.Set("Content-Type", form.fileType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(form.fileData); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, w.FormDataContentType()
}

func TestHandlerCreateSubmission(t *testing.T) {
	e, blobs, repo := newTestHandler(t)
	subjectID := uuid.New().String()

	body, contentType := buildForm(t, submissionForm{
		fields: map[string]string{
			"subject_id":     subjectID,
			"doctor_id":      "doc-1",
			"appointment_id": "appt-1",
			"kind":           "auto-capture",
			"diagnosis":      "flu",
			"drug_list":      `[{"name":"amoxicillin"}]`,
		},
		fileName: "frame.jpg",
		fileType: "image/jpeg",
		fileData: []byte{0xff, 0xd8, 0xff},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Message string        `json:"message"`
		Record  *Prescription `json:"record"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message == "" || resp.Record == nil {
		t.Fatalf("response = %s", rec.Body.String())
	}

	// The artifact landed in the blob store under the record's id.
	stored, err := repo.GetByID(context.Background(), resp.Record.ID)
	if err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if _, _, err := blobs.Download(context.Background(), stored.ArtifactID); err != nil {
		t.Fatalf("artifact not stored: %v", err)
	}
}

func TestHandlerCreateRequiresArtifact(t *testing.T) {
	e, _, _ := newTestHandler(t)

	body, contentType := buildForm(t, submissionForm{
		fields: map[string]string{"subject_id": uuid.New().String()},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandlerCreateValidationFailureCleansUpBlob(t *testing.T) {
	e, blobs, _ := newTestHandler(t)

	// Missing doctor_id: the record insert is rejected after the blob is
	// stored, so the blob must be removed again.
	body, contentType := buildForm(t, submissionForm{
		fields: map[string]string{
			"subject_id":     uuid.New().String(),
			"appointment_id": "appt-1",
		},
		fileName: "frame.jpg",
		fileType: "image/jpeg",
		fileData: []byte{1, 2, 3},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	list, total, err := blobs.ListBySubject(context.Background(), "", "", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(list) != 0 {
		t.Fatalf("blob store holds %d orphaned blobs", total)
	}
}

func TestHandlerThemes(t *testing.T) {
	e, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prescription-themes", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Themes []Theme `json:"themes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Themes) == 0 {
		t.Fatal("no themes returned")
	}
}

func TestHandlerListBySubject(t *testing.T) {
	e, _, repo := newTestHandler(t)
	subjectID := uuid.New()
	other := uuid.New()
	for _, sid := range []uuid.UUID{subjectID, subjectID, other} {
		if err := repo.Create(context.Background(), &Prescription{SubjectID: sid, DoctorID: "d", AppointmentID: "a", Kind: KindManual, ArtifactID: "b"}); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/prescriptions?subject_id="+subjectID.String(), nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Fatalf("total = %d, want 2", resp.Total)
	}
}
