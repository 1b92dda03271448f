package capture

import (
	"context"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/docport/docport/internal/platform/notify"
)

// Mode is the single active state of a capture session.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeDeviceActive Mode = "device-active"
	ModeReviewing    Mode = "reviewing"
	ModeSubmitting   Mode = "submitting"
)

// SessionConfig wires a session's collaborators.
type SessionConfig struct {
	Source    DeviceSource
	Resolver  SubjectResolver
	Submitter Submitter
	Notifier  notify.Notifier // optional; defaults to notify.Discard
	Logger    zerolog.Logger
	Stream    StreamConfig // zero value replaced by DefaultStreamConfig
}

// Session owns one run of the capture workflow, from device acquisition
// through review to submission. It is mutated exclusively through its
// transition methods; within one session, operations are strictly
// sequential: an in-flight resolution or submission blocks a second one.
// Async results
// that arrive after the session has been reset are dropped without
// mutating state.
type Session struct {
	cfg SessionConfig

	mu        sync.Mutex
	mode      Mode
	epoch     uint64
	artifact  *Artifact
	subject   *Subject
	lastErr   error
	stream    Stream
	resolving bool
}

// NewSession creates an idle session.
func NewSession(cfg SessionConfig) *Session {
	if cfg.Notifier == nil {
		cfg.Notifier = notify.Discard{}
	}
	if cfg.Stream == (StreamConfig{}) {
		cfg.Stream = DefaultStreamConfig()
	}
	return &Session{cfg: cfg, mode: ModeIdle}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Subject returns the resolved subject, or nil while resolution is pending
// or failed.
func (s *Session) Subject() *Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

// Artifact returns the captured artifact, present only in Reviewing and
// Submitting.
func (s *Session) Artifact() *Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.artifact
}

// Err returns the last surfaced error; cleared on every successful
// transition.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// StartDevice requests camera access and moves Idle → DeviceActive. On
// device failure the session remains Idle with the error surfaced.
func (s *Session) StartDevice(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeIdle {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	epoch := s.epoch
	s.mu.Unlock()

	stream, err := s.cfg.Source.Acquire(ctx, s.cfg.Stream)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.mode != ModeIdle {
		// Session moved on while the device was being acquired.
		if stream != nil {
			_ = stream.Close()
		}
		return nil
	}
	if err != nil {
		s.lastErr = err
		s.cfg.Logger.Warn().Err(err).Msg("device acquisition failed")
		s.cfg.Notifier.Notify(notify.SeverityError, "device unavailable")
		return err
	}
	s.stream = stream
	s.mode = ModeDeviceActive
	s.lastErr = nil
	s.cfg.Logger.Debug().Msg("device stream acquired")
	return nil
}

// Capture grabs the current frame, releases the device stream, and moves
// DeviceActive → Reviewing.
func (s *Session) Capture() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeDeviceActive || s.stream == nil {
		return ErrInvalidTransition
	}
	artifact, err := s.stream.Grab()
	if err != nil {
		s.lastErr = err
		s.cfg.Notifier.Notify(notify.SeverityError, "could not capture a frame")
		return err
	}
	s.releaseStreamLocked()
	s.setArtifactLocked(artifact)
	s.mode = ModeReviewing
	s.lastErr = nil
	s.cfg.Logger.Debug().Str("filename", artifact.Filename).Msg("frame captured")
	return nil
}

// SelectFile treats a picked file as an already-captured artifact and moves
// Idle → Reviewing, bypassing the device.
func (s *Session) SelectFile(name string, r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeIdle {
		return ErrInvalidTransition
	}
	artifact, err := ReadFile(name, r)
	if err != nil {
		s.lastErr = err
		s.cfg.Notifier.Notify(notify.SeverityError, "could not read the selected file")
		return err
	}
	s.setArtifactLocked(artifact)
	s.mode = ModeReviewing
	s.lastErr = nil
	return nil
}

// Cancel discards the session: the device stream is released, the artifact
// revoked, and the mode returns to Idle. Cancel while Idle is a no-op.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeIdle {
		return
	}
	s.resetLocked()
}

// Retake clears the artifact, resolved subject, and error, then reopens
// the device (Reviewing → DeviceActive).
func (s *Session) Retake(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeReviewing {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	s.setArtifactLocked(nil)
	s.subject = nil
	s.lastErr = nil
	s.resolving = false
	s.mode = ModeIdle
	s.mu.Unlock()

	return s.StartDevice(ctx)
}

// Resolve looks up the subject for the given identifier while Reviewing.
// On failure the session stays in Reviewing with the artifact retained,
// the error set, and the subject cleared; retry is a re-invocation.
func (s *Session) Resolve(ctx context.Context, identifier string) error {
	s.mu.Lock()
	if s.mode != ModeReviewing {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if s.resolving {
		s.mu.Unlock()
		return ErrResolutionInFlight
	}
	s.resolving = true
	epoch := s.epoch
	s.mu.Unlock()

	subject, err := s.cfg.Resolver.Resolve(ctx, identifier)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Stale response: the session was reset while the lookup was
		// outstanding. Applying it would resurrect discarded state.
		return nil
	}
	s.resolving = false
	if err != nil {
		s.subject = nil
		s.lastErr = err
		s.cfg.Logger.Warn().Err(err).Str("identifier", identifier).Msg("subject resolution failed")
		s.cfg.Notifier.Notify(notify.SeverityError, err.Error())
		return err
	}
	s.subject = subject
	s.lastErr = nil
	s.cfg.Logger.Info().Str("subject", subject.PropertyID).Msg("subject resolved")
	return nil
}

// Submit validates the gating preconditions, performs the network write,
// and on success resets the session to Idle. On upload failure the session
// returns to Reviewing with the artifact and resolved subject retained so
// the user can retry without recapturing or re-resolving.
func (s *Session) Submit(ctx context.Context, meta Metadata) error {
	s.mu.Lock()
	if s.mode != ModeReviewing {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	subjectID := ""
	if s.subject != nil {
		subjectID = s.subject.PropertyID
	}
	if err := validateSubmission(subjectID, s.artifact, meta); err != nil {
		// Gating failure: surface the error without any state change and
		// without touching the network.
		s.lastErr = err
		s.cfg.Notifier.Notify(notify.SeverityError, err.Error())
		s.mu.Unlock()
		return err
	}
	artifact := s.artifact
	epoch := s.epoch
	s.mode = ModeSubmitting
	s.mu.Unlock()

	result, err := s.cfg.Submitter.Submit(ctx, subjectID, artifact, meta)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil
	}
	if err != nil {
		s.mode = ModeReviewing
		s.lastErr = err
		s.cfg.Logger.Warn().Err(err).Msg("submission failed")
		s.cfg.Notifier.Notify(notify.SeverityError, err.Error())
		return err
	}
	s.cfg.Logger.Info().Str("message", result.Message).Msg("submission accepted")
	s.cfg.Notifier.Notify(notify.SeveritySuccess, result.Message)
	s.resetLocked()
	return nil
}

// Close releases any held resources; called on workflow teardown.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// resetLocked returns the session to Idle, releasing the stream and
// artifact and invalidating any outstanding async work via the epoch.
func (s *Session) resetLocked() {
	s.releaseStreamLocked()
	s.setArtifactLocked(nil)
	s.subject = nil
	s.lastErr = nil
	s.resolving = false
	s.mode = ModeIdle
	s.epoch++
}

// releaseStreamLocked stops the device stream at most once.
func (s *Session) releaseStreamLocked() {
	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
	}
}

// setArtifactLocked replaces the held artifact, releasing the previous one.
func (s *Session) setArtifactLocked(a *Artifact) {
	if s.artifact != nil && s.artifact != a {
		s.artifact.Release()
	}
	s.artifact = a
}
