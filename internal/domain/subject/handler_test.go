package subject

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/docport/docport/internal/platform/auth"
)

func newTestServer(t *testing.T, repo Repository) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Use(auth.DevAuthMiddleware())
	api := e.Group("/api/v1")
	NewHandler(NewService(repo)).RegisterRoutes(api)
	return e
}

func TestHandlerResolveByExternalID(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	if err := svc.Create(context.Background(), &Subject{ExternalID: "990123456V", FullName: "Jane Doe"}); err != nil {
		t.Fatal(err)
	}
	e := newTestServer(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subjects/by-external-id/990123456V", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Subject Snapshot `json:"subject"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Subject.PropertyID == "" || envelope.Subject.FullName != "Jane Doe" {
		t.Fatalf("snapshot = %+v", envelope.Subject)
	}
}

func TestHandlerResolveUnknownIdentifier(t *testing.T) {
	e := newTestServer(t, newMockRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subjects/by-external-id/000000000X", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no subject for this identifier") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandlerCreateAndGet(t *testing.T) {
	e := newTestServer(t, newMockRepo())

	body := `{"external_id":"990123456V","full_name":"Jane Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var created Subject
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/subjects/"+created.ID.String(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
}

func TestHandlerCreateInvalid(t *testing.T) {
	e := newTestServer(t, newMockRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subjects", strings.NewReader(`{"full_name":"No ID"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
