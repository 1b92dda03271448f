package capture

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Subject is the read-only snapshot of a patient record returned by the
// lookup endpoint.
type Subject struct {
	PropertyID string `json:"propertyId"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address,omitempty"`
}

// SubjectResolver resolves an external identifier (NIC) to a subject
// record. Implementations perform no caching and no automatic retries;
// retry is a user-initiated re-invocation with the same identifier.
type SubjectResolver interface {
	Resolve(ctx context.Context, identifier string) (*Subject, error)
}

// HTTPResolver resolves subjects against the portal's directory endpoint.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a resolver for GET {baseURL}/subjects/by-external-id/{identifier}.
func NewHTTPResolver(baseURL string, client *http.Client) *HTTPResolver {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPResolver{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (r *HTTPResolver) Resolve(ctx context.Context, identifier string) (*Subject, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, &ValidationError{Field: "identifier", Message: "identifier is required"}
	}

	endpoint := fmt.Sprintf("%s/subjects/by-external-id/%s", r.baseURL, url.PathEscape(identifier))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Identifier: identifier}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &NetworkError{Status: resp.StatusCode, Message: remoteMessage(body)}
	}

	var envelope struct {
		Subject *Subject `json:"subject"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("decode subject: %w", err)}
	}
	if envelope.Subject == nil || envelope.Subject.PropertyID == "" {
		return nil, &NotFoundError{Identifier: identifier}
	}
	return envelope.Subject, nil
}

// remoteMessage extracts a {"message": "..."} body when present, falling
// back to the raw body text.
func remoteMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}
