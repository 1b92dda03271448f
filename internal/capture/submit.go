package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// CorrelationID links a submission to another record (doctor, appointment).
// It is a normalized value: the duck-typed "string or wrapped object" shape
// at the system edge is resolved exactly once by ParseCorrelationID.
type CorrelationID struct {
	value string
}

// PlainID wraps an already-normalized identifier string.
func PlainID(s string) CorrelationID {
	return CorrelationID{value: strings.TrimSpace(s)}
}

func (c CorrelationID) String() string { return c.value }
func (c CorrelationID) IsZero() bool   { return c.value == "" }

// wrappedIDFields are the sub-fields an object-typed identifier may carry,
// probed in order.
var wrappedIDFields = []string{"_id", "id", "doctorId", "propertyId"}

// ParseCorrelationID normalizes a raw identifier value. Plain non-empty
// strings pass through; object values must carry one of the known id
// sub-fields. Anything else fails with *ValidationError for the given
// field name, before any upload is attempted.
func ParseCorrelationID(field string, raw interface{}) (CorrelationID, error) {
	switch v := raw.(type) {
	case CorrelationID:
		if v.IsZero() {
			return CorrelationID{}, &ValidationError{Field: field, Message: "identifier is empty"}
		}
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return CorrelationID{}, &ValidationError{Field: field, Message: "identifier is empty"}
		}
		return PlainID(v), nil
	case map[string]interface{}:
		for _, key := range wrappedIDFields {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return PlainID(s), nil
			}
		}
		return CorrelationID{}, &ValidationError{Field: field, Message: "no extractable identifier sub-field"}
	case nil:
		return CorrelationID{}, &ValidationError{Field: field, Message: "identifier is missing"}
	default:
		return CorrelationID{}, &ValidationError{Field: field, Message: fmt.Sprintf("unsupported identifier type %T", raw)}
	}
}

// Drug is one entry of a prescription drug list.
type Drug struct {
	Name      string `json:"name"`
	Dose      string `json:"dose,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
}

// Metadata carries the structured fields accompanying a submission.
type Metadata struct {
	DoctorID      CorrelationID
	AppointmentID CorrelationID
	Kind          string // auto-capture, manual, diagnosis-card
	Diagnosis     string
	Notes         string
	// ExpiryDate is the raw user-entered date string. It is sent only when
	// it parses to a valid calendar date, normalized to 2006-01-02.
	ExpiryDate    string
	DrugList      []Drug
	PatientInfo   map[string]string
	SignatureType string
	SignatureData string
}

// expiryLayouts are the date shapes accepted from form input.
var expiryLayouts = []string{time.RFC3339, "2006-01-02", "2006/01/02", "02-01-2006"}

// NormalizeExpiry parses a raw date string into the normalized 2006-01-02
// form. The boolean is false when the input does not parse to a valid
// calendar date, in which case the field is omitted from the payload.
func NormalizeExpiry(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// SubmissionResult is the remote acknowledgement of a stored submission.
type SubmissionResult struct {
	Message string          `json:"message"`
	Record  json.RawMessage `json:"record"`
}

// Submitter performs the network write for one reviewed capture. Exactly
// one request per invocation, no automatic retries.
type Submitter interface {
	Submit(ctx context.Context, subjectID string, artifact *Artifact, meta Metadata) (*SubmissionResult, error)
}

// HTTPSubmitter posts multipart submissions to the portal API.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSubmitter creates a submitter posting to the given endpoint URL.
func NewHTTPSubmitter(endpoint string, client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &HTTPSubmitter{endpoint: endpoint, client: client}
}

// validateSubmission checks every precondition before any network I/O.
func validateSubmission(subjectID string, artifact *Artifact, meta Metadata) error {
	if strings.TrimSpace(subjectID) == "" {
		return &ValidationError{Field: "subjectId", Message: "subject id is required"}
	}
	if artifact == nil || artifact.Size() == 0 {
		return &ValidationError{Field: "artifact", Message: "artifact is required"}
	}
	if meta.DoctorID.IsZero() {
		return &ValidationError{Field: "doctorId", Message: "doctor id is required"}
	}
	if meta.AppointmentID.IsZero() {
		return &ValidationError{Field: "appointmentId", Message: "appointment id is required"}
	}
	return nil
}

func (s *HTTPSubmitter) Submit(ctx context.Context, subjectID string, artifact *Artifact, meta Metadata) (*SubmissionResult, error) {
	if err := validateSubmission(subjectID, artifact, meta); err != nil {
		return nil, err
	}

	body, contentType, err := buildSubmissionBody(subjectID, artifact, meta)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &UploadError{Message: "could not reach the submission service", Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := remoteMessage(raw)
		if msg == "" {
			msg = "the submission was rejected"
		}
		return nil, &UploadError{Status: resp.StatusCode, Message: msg}
	}

	var result SubmissionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &UploadError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &result, nil
}

// buildSubmissionBody assembles the multipart payload: subject id, scalar
// metadata fields, JSON-encoded structured fields, and the artifact file.
func buildSubmissionBody(subjectID string, artifact *Artifact, meta Metadata) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	fields := map[string]string{
		"subject_id":     subjectID,
		"doctor_id":      meta.DoctorID.String(),
		"appointment_id": meta.AppointmentID.String(),
	}
	if meta.Kind != "" {
		fields["kind"] = meta.Kind
	}
	if meta.Diagnosis != "" {
		fields["diagnosis"] = meta.Diagnosis
	}
	if meta.Notes != "" {
		fields["notes"] = meta.Notes
	}
	if normalized, ok := NormalizeExpiry(meta.ExpiryDate); ok {
		fields["expiry_date"] = normalized
	}
	if meta.SignatureType != "" {
		fields["signature_type"] = meta.SignatureType
	}
	if meta.SignatureData != "" {
		fields["signature_data"] = meta.SignatureData
	}
	if len(meta.DrugList) > 0 {
		encoded, err := json.Marshal(meta.DrugList)
		if err != nil {
			return nil, "", &UploadError{Err: fmt.Errorf("encode drug list: %w", err)}
		}
		fields["drug_list"] = string(encoded)
	}
	if len(meta.PatientInfo) > 0 {
		encoded, err := json.Marshal(meta.PatientInfo)
		if err != nil {
			return nil, "", &UploadError{Err: fmt.Errorf("encode patient info: %w", err)}
		}
		fields["patient_info"] = string(encoded)
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", &UploadError{Err: err}
		}
	}

	part, err := createFilePart(w, "artifact", artifact)
	if err != nil {
		return nil, "", &UploadError{Err: err}
	}
	if _, err := part.Write(artifact.Bytes()); err != nil {
		return nil, "", &UploadError{Err: err}
	}

	if err := w.Close(); err != nil {
		return nil, "", &UploadError{Err: err}
	}
	return buf, w.FormDataContentType(), nil
}

// createFilePart writes a file part carrying the artifact's real MIME type
// rather than the application/octet-stream default.
func createFilePart(w *multipart.Writer, fieldName string, artifact *Artifact) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, artifact.Filename))
	mimeType := artifact.MIME
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)
	return w.CreatePart(header)
}

// BatchUploader uploads several files belonging to one submission batch
// (e.g. multiple lab reports). Uploads are dispatched concurrently; the
// batch as a whole fails if any one upload fails.
type BatchUploader struct {
	endpoint string
	client   *http.Client
}

// NewBatchUploader creates an uploader posting one file per request to the
// given endpoint URL.
func NewBatchUploader(endpoint string, client *http.Client) *BatchUploader {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &BatchUploader{endpoint: endpoint, client: client}
}

// Upload fans out one request per artifact and waits for all to settle.
// All-or-nothing: the first error fails the batch and cancels outstanding
// uploads; no partial-success bookkeeping is attempted.
func (u *BatchUploader) Upload(ctx context.Context, subjectID, category string, artifacts []*Artifact) error {
	if strings.TrimSpace(subjectID) == "" {
		return &ValidationError{Field: "subjectId", Message: "subject id is required"}
	}
	if len(artifacts) == 0 {
		return &ValidationError{Field: "files", Message: "at least one file is required"}
	}
	for _, a := range artifacts {
		if a == nil || a.Size() == 0 {
			return &ValidationError{Field: "files", Message: "empty file in batch"}
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, artifact := range artifacts {
		artifact := artifact
		g.Go(func() error {
			return u.uploadOne(ctx, subjectID, category, artifact)
		})
	}
	return g.Wait()
}

func (u *BatchUploader) uploadOne(ctx context.Context, subjectID, category string, artifact *Artifact) error {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if err := w.WriteField("subject_id", subjectID); err != nil {
		return &UploadError{Err: err}
	}
	if category != "" {
		if err := w.WriteField("category", category); err != nil {
			return &UploadError{Err: err}
		}
	}
	part, err := createFilePart(w, "files", artifact)
	if err != nil {
		return &UploadError{Err: err}
	}
	if _, err := part.Write(artifact.Bytes()); err != nil {
		return &UploadError{Err: err}
	}
	if err := w.Close(); err != nil {
		return &UploadError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, buf)
	if err != nil {
		return &UploadError{Err: err}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return &UploadError{Message: "could not reach the upload service", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := remoteMessage(raw)
		if msg == "" {
			msg = fmt.Sprintf("upload of %s was rejected", artifact.Filename)
		}
		return &UploadError{Status: resp.StatusCode, Message: msg}
	}
	return nil
}
