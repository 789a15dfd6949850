package events

const (
	// KindSessionCreated identifies remote session readiness.
	KindSessionCreated Kind = "session.created"
	// KindSessionError identifies a transport-surfaced session error.
	KindSessionError Kind = "session.error"
	// KindSessionUpdate identifies outbound session reconfiguration.
	KindSessionUpdate Kind = "session.update"
	// KindUnknown wraps frames with an unrecognized type discriminator.
	KindUnknown Kind = "unknown"
)

// SessionCreated marks the remote session as live.
type SessionCreated struct {
	Base
	SessionID string
}

// NewSessionCreated creates a session created event.
func NewSessionCreated(sessionID string) SessionCreated {
	return SessionCreated{Base: NewBase(KindSessionCreated), SessionID: sessionID}
}

// SessionError carries an error surfaced by the transport.
type SessionError struct {
	Base
	Message string
}

// NewSessionError creates a session error event.
func NewSessionError(message string) SessionError {
	return SessionError{Base: NewBase(KindSessionError), Message: message}
}

// SessionUpdate requests a session parameter change (outbound).
type SessionUpdate struct {
	Base
	Session map[string]any
}

// NewSessionUpdate creates an outbound session update event.
func NewSessionUpdate(session map[string]any) SessionUpdate {
	return SessionUpdate{Base: NewBase(KindSessionUpdate), Session: session}
}

// Unknown wraps an unrecognized frame so routers can log and ignore it.
type Unknown struct {
	Base
	WireKind string
	Payload  map[string]any
}

// NewUnknown creates an unknown event wrapper.
func NewUnknown(wireKind string, payload map[string]any) Unknown {
	return Unknown{Base: NewBase(KindUnknown), WireKind: wireKind, Payload: payload}
}
