package capture

import (
	"context"
	"io"
	"mime"
	"path/filepath"
)

// JPEGQuality is the encoding quality used when sampling frames.
const JPEGQuality = 80

// StreamConfig describes the preferred camera configuration.
type StreamConfig struct {
	FacingMode string // "environment" (rear) or "user" (front)
	Width      int
	Height     int
}

// DefaultStreamConfig requests the rear-facing camera at 1280x720.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{FacingMode: "environment", Width: 1280, Height: 720}
}

// Stream is a live device handle. It must be released with Close exactly
// once per acquisition; Close on an already-closed stream is a no-op.
type Stream interface {
	// Grab samples the current frame into an encoded JPEG artifact.
	Grab() (*Artifact, error)
	// Close stops the stream. Idempotent, never an error on repeat calls.
	Close() error
}

// DeviceSource abstracts over "get an image from hardware". Platform
// denial or absent hardware fails with *DeviceError.
type DeviceSource interface {
	Acquire(ctx context.Context, cfg StreamConfig) (Stream, error)
}

// WithStream acquires a stream, runs fn, and releases the stream on every
// exit path, including when fn returns an error.
func WithStream(ctx context.Context, src DeviceSource, cfg StreamConfig, fn func(Stream) error) error {
	stream, err := src.Acquire(ctx, cfg)
	if err != nil {
		return err
	}
	defer stream.Close()
	return fn(stream)
}

// ReadFile is the file-selection acquisition path: it reads a picked file
// fully into memory as an already-captured artifact. I/O failures are
// reported as *DeviceError with reason "read-error".
func ReadFile(name string, r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DeviceError{Reason: DeviceReadError, Err: err}
	}
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return NewArtifact(name, mimeType, data), nil
}
