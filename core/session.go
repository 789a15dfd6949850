// Package session routes realtime transport events into the transcript
// and decides when the agent gets a follow-up turn.
//
// A Session is the single entry point for every event the transport
// emits. Handlers are synchronous and panic-safe; the transport's read
// loop is the only caller, so step transitions and transcript mutations
// happen in arrival order while snapshot readers stay concurrent-safe.
package session

import (
	"context"
	"sync"

	"github.com/BranchManager69/dexter-session-core/core/events"
	"github.com/BranchManager69/dexter-session-core/core/statusstore"
	"github.com/BranchManager69/dexter-session-core/core/toolcalls"
	"github.com/BranchManager69/dexter-session-core/core/transcript"
	"github.com/google/uuid"
)

// StatusComponent is the readiness store key this session publishes under.
const StatusComponent = "session"

// Transport is the external session collaborator: a subscribe interface
// for named event kinds and a send primitive for follow-up turns and
// session parameter changes.
type Transport interface {
	// On registers a handler for one event kind and returns its
	// unsubscribe function.
	On(kind events.Kind, handler func(events.Event)) func()
	// Send delivers an outbound event to the remote session.
	Send(event events.Event) error
}

type Session struct {
	transport  Transport
	transcript *transcript.Transcript
	status     *statusstore.Store

	mu   sync.Mutex
	step stepState
	// callNoteIDs maps transport-provided call ids to locally synthesized
	// transcript note ids, so repeated starts for one call collapse to one
	// note and the mapping stays invertible.
	callNoteIDs map[string]string
	// correctionSeen tracks message ids already suppressed as guardrail
	// corrections so the breadcrumb is added once.
	correctionSeen map[string]struct{}

	attached     bool
	unsubscribes []func()
	closeOnce    sync.Once

	options   sessionOptions
	telemetry *telemetryDedup
}

func New(transport Transport, opts ...Option) *Session {
	s := &Session{
		transport:      transport,
		transcript:     transcript.New(),
		status:         statusstore.New(),
		callNoteIDs:    map[string]string{},
		correctionSeen: map[string]struct{}{},
		options: sessionOptions{
			guardrailMarker: defaultGuardrailCorrectionMarker,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.telemetry = newTelemetryDedup(s.options.telemetrySink)
	return s
}

// Attach subscribes to every handled event kind and announces the
// configured tools and turn-detection settings. Calling Attach on an
// attached session is a no-op.
func (s *Session) Attach() error {
	s.mu.Lock()
	if s.attached {
		s.mu.Unlock()
		return nil
	}
	s.attached = true
	s.mu.Unlock()

	for kind, handler := range s.handlers() {
		wrapped := s.instrumented(kind, handler)
		unsubscribe := s.transport.On(kind, wrapped)
		s.mu.Lock()
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
		s.mu.Unlock()
	}

	return s.announceSessionConfig()
}

// Close unregisters all transport listeners exactly once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		unsubscribes := s.unsubscribes
		s.unsubscribes = nil
		s.attached = false
		s.mu.Unlock()

		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	})
}

// announceSessionConfig sends one session.update carrying tool
// definitions and turn-detection settings, when either is configured.
func (s *Session) announceSessionConfig() error {
	sessionConfig := map[string]any{}
	if len(s.options.tools) > 0 {
		sessionConfig["tools"] = toolcalls.Definitions(s.options.tools)
	}
	if s.options.turnDetection != nil {
		sessionConfig["turn_detection"] = s.options.turnDetection
	}
	if len(sessionConfig) == 0 {
		return nil
	}
	return s.transport.Send(events.NewSessionUpdate(sessionConfig))
}

// instrumented wraps a handler with panic recovery, the routed-events
// counter, and the transcript-changed callback.
func (s *Session) instrumented(kind events.Kind, handler func(events.Event)) func(events.Event) {
	name := string(kind)
	safe := panicSafeHandler(name, handler)
	return func(event events.Event) {
		routedEventsCounter.Add(context.Background(), 1)
		safe(event)
		if s.options.onTranscriptChanged != nil && kind != events.KindUnknown {
			s.options.onTranscriptChanged()
		}
	}
}

// Items returns a read-only snapshot of the ordered transcript.
func (s *Session) Items() []transcript.Item {
	return s.transcript.Items()
}

// Transcript exposes the reconciliation engine, mainly for renderer
// callbacks like expand/collapse.
func (s *Session) Transcript() *transcript.Transcript {
	return s.transcript
}

// ToggleExpand flips an item's UI expansion flag.
func (s *Session) ToggleExpand(itemID string) {
	s.transcript.ToggleExpand(itemID)
}

// Status exposes the readiness store shared with other subsystems.
func (s *Session) Status() *statusstore.Store {
	return s.status
}

// AwaitReady blocks until the remote session reports ready, bounded by
// the configured readiness timeout (10s default). The returned error is
// retryable.
func (s *Session) AwaitReady(ctx context.Context) error {
	return s.status.AwaitReady(ctx, StatusComponent, s.options.readinessTimeout)
}

// noteIDFor returns the stable local note id for a transport call id,
// synthesizing one on first use.
func (s *Session) noteIDFor(callID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if noteID, ok := s.callNoteIDs[callID]; ok {
		return noteID
	}
	noteID := "tool-" + uuid.NewString()
	s.callNoteIDs[callID] = noteID
	return noteID
}

// lookupNoteID returns the note id mapped to a call id, if any.
func (s *Session) lookupNoteID(callID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	noteID, ok := s.callNoteIDs[callID]
	return noteID, ok
}
