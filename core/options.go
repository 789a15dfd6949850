package session

import (
	"time"

	"github.com/BranchManager69/dexter-session-core/core/statusstore"
	"github.com/BranchManager69/dexter-session-core/core/toolcalls"
)

// defaultGuardrailCorrectionMarker is the literal embedded in
// guardrail-corrective assistant messages; messages carrying it are
// hidden and replaced with a breadcrumb.
const defaultGuardrailCorrectionMarker = "[GUARDRAIL_TRIGGERED]"

type Option func(*Session)

type sessionOptions struct {
	tools            []toolcalls.Tool
	turnDetection    map[string]any
	guardrailMarker  string
	readinessTimeout time.Duration

	onTranscriptChanged func()
	telemetrySink       TelemetrySink
}

// WithTools announces tool definitions to the transport on Attach.
func WithTools(tools ...toolcalls.Tool) Option {
	return func(s *Session) { s.options.tools = tools }
}

// WithTurnDetection sets the transport's turn-detection parameters,
// announced on Attach.
func WithTurnDetection(turnDetection map[string]any) Option {
	return func(s *Session) { s.options.turnDetection = turnDetection }
}

// WithGuardrailCorrectionMarker overrides the literal used to detect
// guardrail-corrective messages.
func WithGuardrailCorrectionMarker(marker string) Option {
	return func(s *Session) { s.options.guardrailMarker = marker }
}

// WithStatusStore shares a readiness store with other subsystems.
func WithStatusStore(store *statusstore.Store) Option {
	return func(s *Session) { s.status = store }
}

// WithReadinessTimeout bounds AwaitReady; zero keeps the 10 second default.
func WithReadinessTimeout(timeout time.Duration) Option {
	return func(s *Session) { s.options.readinessTimeout = timeout }
}

// WithTranscriptChangedCallback is invoked after every event that
// mutated the transcript. Renderers use it to re-read Items().
func WithTranscriptChangedCallback(callback func()) Option {
	return func(s *Session) { s.options.onTranscriptChanged = callback }
}

// WithTelemetrySink registers a best-effort telemetry consumer; delivery
// failures are swallowed.
func WithTelemetrySink(sink TelemetrySink) Option {
	return func(s *Session) { s.options.telemetrySink = sink }
}
