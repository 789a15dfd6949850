package session

import (
	"fmt"
	"strings"

	"github.com/BranchManager69/dexter-session-core/core/events"
	"github.com/BranchManager69/dexter-session-core/core/statusstore"
	"github.com/BranchManager69/dexter-session-core/core/transcript"
	"github.com/BranchManager69/dexter-session-core/internal/utils"
)

// handlers is the dispatch table: every event kind the router recognizes
// maps to exactly one handler.
func (s *Session) handlers() map[events.Kind]func(events.Event) {
	return map[events.Kind]func(events.Event){
		events.KindSessionCreated:             s.handleSessionCreated,
		events.KindSessionError:               s.handleSessionError,
		events.KindResponseCreated:            s.handleResponseCreated,
		events.KindResponseDone:               s.handleResponseDone,
		events.KindOutputItemAdded:            s.handleOutputItemAdded,
		events.KindOutputItemDone:             s.handleOutputItemDone,
		events.KindItemCreated:                s.handleItemCreated,
		events.KindUserTranscriptDelta:        s.handleUserTranscriptDelta,
		events.KindUserTranscriptCompleted:    s.handleUserTranscriptCompleted,
		events.KindAssistantTranscriptDelta:   s.handleAssistantTranscriptDelta,
		events.KindAssistantTranscriptDone:    s.handleAssistantTranscriptDone,
		events.KindAgentToolStart:             s.handleAgentToolStart,
		events.KindAgentToolEnd:               s.handleAgentToolEnd,
		events.KindFunctionCallArgumentsDelta: s.handleFunctionCallArgumentsDelta,
		events.KindFunctionCallArgumentsDone:  s.handleFunctionCallArgumentsDone,
		events.KindGuardrailTripped:           s.handleGuardrailTripped,
		events.KindUnknown:                    s.handleUnknown,
	}
}

func (s *Session) handleSessionCreated(event events.Event) {
	created, ok := event.(events.SessionCreated)
	if !ok {
		return
	}

	s.status.Set(StatusComponent, statusstore.StatusReady)
	s.transcript.AddBreadcrumb("session started", map[string]any{"session_id": created.SessionID})
}

func (s *Session) handleSessionError(event events.Event) {
	sessionError, ok := event.(events.SessionError)
	if !ok {
		return
	}

	logger.Error(fmt.Sprintf("session error: %s", sessionError.Message))
	s.status.Set(StatusComponent, statusstore.StatusDegraded)
	s.transcript.AddBreadcrumb("session error", map[string]any{"message": sessionError.Message})
}

func (s *Session) handleResponseCreated(event events.Event) {
	created, ok := event.(events.ResponseCreated)
	if !ok {
		return
	}

	s.beginStep(created.ResponseID)
}

func (s *Session) handleResponseDone(event events.Event) {
	done, ok := event.(events.ResponseDone)
	if !ok {
		return
	}

	s.finishStep(done)
}

func (s *Session) handleOutputItemAdded(event events.Event) {
	added, ok := event.(events.OutputItemAdded)
	if !ok {
		return
	}

	switch added.ItemType {
	case events.OutputTypeMessage:
		if added.ItemID != "" {
			s.transcript.AddMessage(added.ItemID, roleOf(added.Role), added.Text, false)
		}
	case events.OutputTypeFunctionCall:
		s.startToolCall(added.CallID, added.Name, "")
	}
}

func (s *Session) handleOutputItemDone(event events.Event) {
	done, ok := event.(events.OutputItemDone)
	if !ok {
		return
	}

	switch done.ItemType {
	case events.OutputTypeMessage:
		if done.ItemID == "" {
			return
		}
		s.ensureMessage(done.ItemID, roleOf(done.Role))
		if done.Text != "" {
			s.transcript.UpdateMessage(done.ItemID, done.Text, false)
		}
		s.finalizeMessage(done.ItemID)
	case events.OutputTypeFunctionCall:
		// One of the two completion shapes; whichever arrives first wins.
		s.completeToolCall(done.CallID, done.Name, done.Arguments, "")
	}
}

func (s *Session) handleItemCreated(event events.Event) {
	created, ok := event.(events.ItemCreated)
	if !ok || created.ItemType != events.OutputTypeMessage || created.ItemID == "" {
		return
	}

	s.transcript.AddMessage(created.ItemID, roleOf(created.Role), created.Text, false)
	s.suppressGuardrailCorrection(created.ItemID, created.Text)
}

func (s *Session) handleUserTranscriptDelta(event events.Event) {
	delta, ok := event.(events.UserTranscriptDelta)
	if !ok || delta.ItemID == "" {
		return
	}

	s.ensureMessage(delta.ItemID, transcript.RoleUser)
	s.transcript.UpdateMessage(delta.ItemID, delta.Delta, true)
}

func (s *Session) handleUserTranscriptCompleted(event events.Event) {
	completed, ok := event.(events.UserTranscriptCompleted)
	if !ok || completed.ItemID == "" {
		return
	}

	s.ensureMessage(completed.ItemID, transcript.RoleUser)
	s.transcript.UpdateMessage(completed.ItemID, completed.Transcript, false)
	s.finalizeMessage(completed.ItemID)
}

func (s *Session) handleAssistantTranscriptDelta(event events.Event) {
	delta, ok := event.(events.AssistantTranscriptDelta)
	if !ok || delta.ItemID == "" {
		return
	}

	s.ensureMessage(delta.ItemID, transcript.RoleAssistant)
	s.transcript.UpdateMessage(delta.ItemID, delta.Delta, true)
}

func (s *Session) handleAssistantTranscriptDone(event events.Event) {
	done, ok := event.(events.AssistantTranscriptDone)
	if !ok || done.ItemID == "" {
		return
	}

	s.ensureMessage(done.ItemID, transcript.RoleAssistant)
	s.transcript.UpdateMessage(done.ItemID, done.Transcript, false)
	s.suppressGuardrailCorrection(done.ItemID, done.Transcript)
	s.finalizeMessage(done.ItemID)
}

func (s *Session) handleAgentToolStart(event events.Event) {
	start, ok := event.(events.AgentToolStart)
	if !ok {
		return
	}

	s.startToolCall(start.CallID, start.Name, start.Arguments)
}

func (s *Session) handleAgentToolEnd(event events.Event) {
	end, ok := event.(events.AgentToolEnd)
	if !ok {
		return
	}

	s.completeToolCall(end.CallID, end.Name, "", end.Output)
}

func (s *Session) handleFunctionCallArgumentsDelta(event events.Event) {
	delta, ok := event.(events.FunctionCallArgumentsDelta)
	if !ok {
		return
	}

	// Arguments without a started note are not actionable; drop them.
	noteID, ok := s.lookupNoteID(delta.CallID)
	if !ok {
		return
	}
	note, ok := s.transcript.Get(noteID)
	if !ok {
		return
	}

	existing, _ := note.Data["arguments"].(string)
	s.transcript.UpdateItem(noteID, transcript.Patch{
		Data: map[string]any{"arguments": existing + delta.Delta},
	})
}

func (s *Session) handleFunctionCallArgumentsDone(event events.Event) {
	done, ok := event.(events.FunctionCallArgumentsDone)
	if !ok {
		return
	}

	noteID, ok := s.lookupNoteID(done.CallID)
	if !ok {
		return
	}
	s.transcript.UpdateItem(noteID, transcript.Patch{
		Data: map[string]any{"arguments": done.Arguments},
	})
}

func (s *Session) handleGuardrailTripped(event events.Event) {
	tripped, ok := event.(events.GuardrailTripped)
	if !ok {
		return
	}

	target, ok := s.transcript.LatestAssistantMessage()
	if !ok {
		return
	}

	status := transcript.StatusDone
	if target.Status == transcript.StatusInProgress {
		status = transcript.StatusInProgress
	}
	s.transcript.UpdateItem(target.ItemID, transcript.Patch{
		Guardrail: &transcript.GuardrailResult{
			Status:    status,
			Category:  tripped.Category,
			Rationale: tripped.Rationale,
			Excerpt:   tripped.Excerpt,
		},
	})
}

func (s *Session) handleUnknown(event events.Event) {
	unknown, ok := event.(events.Unknown)
	if !ok {
		return
	}

	logger.Debug(fmt.Sprintf("ignoring unrecognized transport event %q", unknown.WireKind))
}

// ensureMessage lazily creates a message so a delta racing its creation
// event is never dropped.
func (s *Session) ensureMessage(itemID string, role transcript.Role) {
	if s.transcript.Has(itemID) {
		return
	}
	s.transcript.AddMessage(itemID, role, "", false)
}

// finalizeMessage marks a message DONE, settles a guardrail verdict left
// IN_PROGRESS, and forwards the final text to telemetry.
func (s *Session) finalizeMessage(itemID string) {
	s.transcript.UpdateItem(itemID, transcript.Patch{Status: utils.Ptr(transcript.StatusDone)})

	item, ok := s.transcript.Get(itemID)
	if !ok {
		return
	}
	if item.Guardrail != nil && item.Guardrail.Status == transcript.StatusInProgress {
		settled := *item.Guardrail
		settled.Status = transcript.StatusDone
		s.transcript.UpdateItem(itemID, transcript.Patch{Guardrail: &settled})
	}

	s.telemetry.emitMessage(item.ItemID, string(item.Role), item.Text)
}

// startToolCall creates the IN_PROGRESS tool note for a call id; repeated
// starts collapse to one note via the id mapping.
func (s *Session) startToolCall(callID, name, arguments string) {
	if callID == "" {
		return
	}

	s.noteToolCallPending(callID)

	title := name
	if title == "" {
		title = "tool call"
	}
	data := map[string]any{"call_id": callID}
	if name != "" {
		data["name"] = name
	}
	if arguments != "" {
		data["arguments"] = arguments
	}
	s.transcript.AddToolNote(title, data, s.noteIDFor(callID), transcript.StatusInProgress)
}

// completeToolCall merges the call's final arguments/output into its
// note, marks it DONE, and settles the pending set. Duplicate completion
// events are idempotent.
func (s *Session) completeToolCall(callID, name, arguments, output string) {
	if callID == "" {
		return
	}

	if noteID, ok := s.lookupNoteID(callID); ok {
		data := map[string]any{}
		if arguments != "" {
			data["arguments"] = arguments
		}
		if output != "" {
			data["output"] = output
		}
		s.transcript.UpdateItem(noteID, transcript.Patch{
			Status: utils.Ptr(transcript.StatusDone),
			Data:   data,
		})

		if note, ok := s.transcript.Get(noteID); ok {
			args, _ := note.Data["arguments"].(string)
			out, _ := note.Data["output"].(string)
			s.telemetry.emitToolCall(callID, note.Title, args, out)
		}
	} else if name != "" {
		// Completion without a recorded start still deserves a DONE note.
		data := map[string]any{"call_id": callID, "name": name}
		if output != "" {
			data["output"] = output
		}
		s.transcript.AddToolNote(name, data, s.noteIDFor(callID), transcript.StatusDone)
	}

	s.noteToolCallSettled(callID)
}

// suppressGuardrailCorrection hides a guardrail-corrective message and
// narrates it with a breadcrumb instead, once per item.
func (s *Session) suppressGuardrailCorrection(itemID, text string) {
	marker := s.options.guardrailMarker
	if marker == "" || !strings.Contains(text, marker) {
		return
	}

	s.mu.Lock()
	if _, seen := s.correctionSeen[itemID]; seen {
		s.mu.Unlock()
		return
	}
	s.correctionSeen[itemID] = struct{}{}
	s.mu.Unlock()

	s.transcript.UpdateItem(itemID, transcript.Patch{Hidden: utils.Ptr(true)})
	s.transcript.AddBreadcrumb("guardrail correction suppressed", map[string]any{"item_id": itemID})
}

func roleOf(role string) transcript.Role {
	if role == string(transcript.RoleUser) {
		return transcript.RoleUser
	}
	return transcript.RoleAssistant
}
