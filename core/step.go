package session

import (
	"context"
	"fmt"

	"github.com/BranchManager69/dexter-session-core/core/events"
)

// stepState tracks one agent turn: the active response, the tool calls
// still pending for it, and whether the single allowed follow-up request
// has already been sent.
type stepState struct {
	responseID   string
	pending      map[string]struct{}
	active       bool
	continueSent bool
}

// beginStep starts a new step, clearing any pending calls from the
// previous one.
func (s *Session) beginStep(responseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.step = stepState{
		responseID: responseID,
		pending:    map[string]struct{}{},
		active:     true,
	}
}

// noteToolCallPending adds a call id to the active step's pending set.
// Repeated starts for the same call are no-ops.
func (s *Session) noteToolCallPending(callID string) {
	if callID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.step.active {
		return
	}
	s.step.pending[callID] = struct{}{}
}

// noteToolCallSettled removes a call id from the pending set; when the
// set empties the step requests one follow-up turn and goes idle.
// Duplicate settlements for an already-removed id are no-ops.
func (s *Session) noteToolCallSettled(callID string) {
	if callID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, pending := s.step.pending[callID]; !pending {
		return
	}
	delete(s.step.pending, callID)

	if s.step.active && len(s.step.pending) == 0 {
		s.requestContinueLocked()
		s.step.active = false
	}
}

// finishStep applies the response-done transition rules.
func (s *Session) finishStep(done events.ResponseDone) {
	hasAssistantMessage := false
	hasToolCalls := false
	for _, output := range done.Outputs {
		switch output.Type {
		case events.OutputTypeMessage:
			if output.Role == "" || output.Role == "assistant" {
				hasAssistantMessage = true
			}
		case events.OutputTypeFunctionCall:
			hasToolCalls = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.step.active {
		return
	}
	if hasToolCalls || len(s.step.pending) > 0 {
		// Completion events for the pending calls drive the transition.
		return
	}

	if !hasAssistantMessage {
		// No tool calls and no assistant message: treat as a stall and
		// nudge the agent once.
		s.requestContinueLocked()
	}
	s.step.active = false
}

// requestContinueLocked sends at most one follow-up turn request per
// step. Callers hold s.mu.
func (s *Session) requestContinueLocked() {
	if s.step.continueSent {
		return
	}
	s.step.continueSent = true

	continuesSentCounter.Add(context.Background(), 1)
	if err := s.transport.Send(events.NewResponseCreate()); err != nil {
		logger.Warn(fmt.Sprintf("failed to request follow-up turn: %v", err))
	}
}
