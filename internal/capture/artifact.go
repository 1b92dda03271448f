package capture

import "sync"

// Artifact is an in-memory captured or generated binary (JPEG image or
// paginated PDF) plus its metadata. An artifact is exclusively owned by one
// capture session; Release frees the backing bytes when the artifact is
// replaced or the session resets, the platform equivalent of revoking an
// object URL.
type Artifact struct {
	Filename string
	MIME     string

	mu       sync.Mutex
	data     []byte
	released bool
}

// NewArtifact wraps raw bytes in an owned artifact.
func NewArtifact(filename, mime string, data []byte) *Artifact {
	return &Artifact{Filename: filename, MIME: mime, data: data}
}

// Bytes returns the artifact content, or nil after release.
func (a *Artifact) Bytes() []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.data
}

// Size returns the content length in bytes.
func (a *Artifact) Size() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return int64(len(a.data))
}

// Release frees the backing bytes. Idempotent.
func (a *Artifact) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = nil
	a.released = true
}

// Released reports whether Release has been called.
func (a *Artifact) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.released
}
