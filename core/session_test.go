package session

import (
	"sync"
	"testing"

	"github.com/BranchManager69/dexter-session-core/core/events"
	"github.com/BranchManager69/dexter-session-core/core/transcript"
)

type fakeTransport struct {
	mu           sync.Mutex
	handlers     map[events.Kind][]func(events.Event)
	sent         []events.Event
	unsubscribes int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: map[events.Kind][]func(events.Event){}}
}

func (f *fakeTransport) On(kind events.Kind, handler func(events.Event)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.handlers[kind] = append(f.handlers[kind], handler)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubscribes++
	}
}

func (f *fakeTransport) Send(event events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sent = append(f.sent, event)
	return nil
}

func (f *fakeTransport) emit(event events.Event) {
	f.mu.Lock()
	handlers := append([]func(events.Event){}, f.handlers[event.Kind()]...)
	f.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (f *fakeTransport) sentOfKind(kind events.Kind) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, event := range f.sent {
		if event.Kind() == kind {
			count++
		}
	}
	return count
}

func attachedSession(t *testing.T, opts ...Option) (*Session, *fakeTransport) {
	t.Helper()

	transport := newFakeTransport()
	s := New(transport, opts...)
	if err := s.Attach(); err != nil {
		t.Fatalf("failed to attach session: %v", err)
	}
	return s, transport
}

func findItem(t *testing.T, s *Session, itemID string) transcript.Item {
	t.Helper()

	item, ok := s.Transcript().Get(itemID)
	if !ok {
		t.Fatalf("expected item %q to exist", itemID)
	}
	return item
}

func TestToolCallCompletionTriggersExactlyOneContinue(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))

	added := events.NewOutputItemAdded("r1", "call-item-1", events.OutputTypeFunctionCall)
	added.CallID = "t1"
	added.Name = "resolve_wallet"
	transport.emit(added)

	transport.emit(events.NewAgentToolEnd("t1", "resolve_wallet", `{"ok":true}`))

	if got := transport.sentOfKind(events.KindResponseCreate); got != 1 {
		t.Fatalf("expected exactly one continue event, got %d", got)
	}

	s.mu.Lock()
	active := s.step.active
	s.mu.Unlock()
	if active {
		t.Fatal("expected step to be idle after the last tool call completed")
	}
}

func TestDuplicateCompletionEventsAreIdempotent(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))

	added := events.NewOutputItemAdded("r1", "call-item-1", events.OutputTypeFunctionCall)
	added.CallID = "t1"
	added.Name = "resolve_wallet"
	transport.emit(added)

	// Both completion shapes, then a straggler duplicate.
	transport.emit(events.NewAgentToolEnd("t1", "resolve_wallet", `{"ok":true}`))
	done := events.NewOutputItemDone("r1", "call-item-1", events.OutputTypeFunctionCall)
	done.CallID = "t1"
	transport.emit(done)
	transport.emit(events.NewAgentToolEnd("t1", "resolve_wallet", `{"ok":true}`))

	if got := transport.sentOfKind(events.KindResponseCreate); got != 1 {
		t.Fatalf("expected duplicate completions to be no-ops, got %d continues", got)
	}

	notes := 0
	for _, item := range s.Items() {
		if item.Type == transcript.TypeToolNote {
			notes++
			if item.Status != transcript.StatusDone {
				t.Fatalf("expected tool note DONE, got %q", item.Status)
			}
		}
	}
	if notes != 1 {
		t.Fatalf("expected one tool note, got %d", notes)
	}
}

func TestAssistantMessageWithoutToolCallsEndsStepNaturally(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewResponseDone("r1", []events.ResponseOutput{
		{Type: events.OutputTypeMessage, Role: "assistant", Text: "here you go"},
	}))

	if got := transport.sentOfKind(events.KindResponseCreate); got != 0 {
		t.Fatalf("expected no continue when the assistant already spoke, got %d", got)
	}
}

func TestEmptyResponseIsTreatedAsStall(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewResponseDone("r1", nil))

	if got := transport.sentOfKind(events.KindResponseCreate); got != 1 {
		t.Fatalf("expected one continue for a stalled response, got %d", got)
	}
}

func TestResponseDoneWithPendingCallsKeepsStepActive(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))

	added := events.NewOutputItemAdded("r1", "call-item-1", events.OutputTypeFunctionCall)
	added.CallID = "t1"
	transport.emit(added)

	transport.emit(events.NewResponseDone("r1", []events.ResponseOutput{
		{Type: events.OutputTypeFunctionCall, CallID: "t1", Name: "resolve_wallet"},
	}))

	if got := transport.sentOfKind(events.KindResponseCreate); got != 0 {
		t.Fatalf("expected no continue while calls are pending, got %d", got)
	}

	transport.emit(events.NewAgentToolEnd("t1", "resolve_wallet", "{}"))
	if got := transport.sentOfKind(events.KindResponseCreate); got != 1 {
		t.Fatalf("expected the eventual completion to trigger one continue, got %d", got)
	}
}

func TestDeltaBeforeCreationYieldsDeltaText(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewAssistantTranscriptDelta("m1", "hello"))

	item := findItem(t, s, "m1")
	if item.Text != "hello" {
		t.Fatalf("expected lazily created message to carry the delta, got %q", item.Text)
	}
	if item.Role != transcript.RoleAssistant {
		t.Fatalf("expected assistant role, got %q", item.Role)
	}

	// The late creation event must not reset the accumulated text.
	transport.emit(events.NewItemCreated("m1", events.OutputTypeMessage, "assistant", ""))
	if item := findItem(t, s, "m1"); item.Text != "hello" {
		t.Fatalf("expected late creation to be a no-op, got %q", item.Text)
	}
}

func TestInterleavedDeltasAccumulateInArrivalOrder(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewUserTranscriptDelta("m1", "one "))
	transport.emit(events.NewUserTranscriptDelta("m1", "two "))
	transport.emit(events.NewUserTranscriptDelta("m1", "three"))
	transport.emit(events.NewUserTranscriptCompleted("m1", "one two three"))

	item := findItem(t, s, "m1")
	if item.Text != "one two three" {
		t.Fatalf("expected final text %q, got %q", "one two three", item.Text)
	}
	if item.Status != transcript.StatusDone {
		t.Fatalf("expected message DONE after completion, got %q", item.Status)
	}
}

func TestRepeatedToolStartsCollapseToOneNote(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewAgentToolStart("t1", "resolve_wallet", `{"q":1}`))
	transport.emit(events.NewAgentToolStart("t1", "resolve_wallet", `{"q":1}`))

	notes := 0
	for _, item := range s.Items() {
		if item.Type == transcript.TypeToolNote {
			notes++
		}
	}
	if notes != 1 {
		t.Fatalf("expected repeated starts to collapse to one note, got %d", notes)
	}
}

func TestArgumentDeltasWithoutANoteAreDropped(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewFunctionCallArgumentsDelta("ghost", `{"q":`))

	if got := s.Transcript().Len(); got != 0 {
		t.Fatalf("expected no items from orphan argument deltas, got %d", got)
	}
}

func TestArgumentDeltasAccumulateOnTheNote(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewAgentToolStart("t1", "resolve_wallet", ""))
	transport.emit(events.NewFunctionCallArgumentsDelta("t1", `{"q":`))
	transport.emit(events.NewFunctionCallArgumentsDelta("t1", `1}`))

	noteID, ok := s.lookupNoteID("t1")
	if !ok {
		t.Fatal("expected a note mapping for call t1")
	}
	note := findItem(t, s, noteID)
	if note.Data["arguments"] != `{"q":1}` {
		t.Fatalf("expected accumulated arguments, got %v", note.Data["arguments"])
	}
}

func TestToolNoteMergesArgumentsThenOutput(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewAgentToolStart("t1", "resolve_wallet", `{"q":1}`))
	transport.emit(events.NewAgentToolEnd("t1", "resolve_wallet", `{"ok":true}`))

	noteID, _ := s.lookupNoteID("t1")
	note := findItem(t, s, noteID)
	if note.Data["arguments"] != `{"q":1}` {
		t.Fatalf("expected arguments preserved after completion, got %v", note.Data["arguments"])
	}
	if note.Data["output"] != `{"ok":true}` {
		t.Fatalf("expected output merged in, got %v", note.Data["output"])
	}
	if note.Status != transcript.StatusDone {
		t.Fatalf("expected note DONE, got %q", note.Status)
	}
}

func TestGuardrailAttachesToLatestAssistantMessage(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewAssistantTranscriptDelta("a1", "first"))
	transport.emit(events.NewAssistantTranscriptDelta("a2", "second"))
	transport.emit(events.NewGuardrailTripped("moderation", "too spicy", "second"))

	target := findItem(t, s, "a2")
	if target.Guardrail == nil || target.Guardrail.Category != "moderation" {
		t.Fatalf("expected verdict on the latest assistant message, got %+v", target.Guardrail)
	}

	untouched := findItem(t, s, "a1")
	if untouched.Guardrail != nil {
		t.Fatal("expected older assistant message untouched")
	}
}

func TestGuardrailSettledOnMessageCompletion(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewAssistantTranscriptDelta("a1", "partial"))
	transport.emit(events.NewGuardrailTripped("moderation", "too spicy", "partial"))

	if item := findItem(t, s, "a1"); item.Guardrail.Status != transcript.StatusInProgress {
		t.Fatalf("expected verdict pending while message streams, got %q", item.Guardrail.Status)
	}

	transport.emit(events.NewAssistantTranscriptDone("a1", "partial but done"))

	if item := findItem(t, s, "a1"); item.Guardrail.Status != transcript.StatusDone {
		t.Fatalf("expected verdict settled with the message, got %q", item.Guardrail.Status)
	}
}

func TestGuardrailCorrectionMessageIsSuppressed(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	text := "Let me rephrase that. " + defaultGuardrailCorrectionMarker
	transport.emit(events.NewItemCreated("a1", events.OutputTypeMessage, "assistant", text))

	item := findItem(t, s, "a1")
	if !item.IsHidden {
		t.Fatal("expected correction message hidden")
	}

	breadcrumbs := 0
	for _, entry := range s.Items() {
		if entry.Type == transcript.TypeBreadcrumb {
			breadcrumbs++
		}
	}
	if breadcrumbs != 1 {
		t.Fatalf("expected one breadcrumb narrating the suppression, got %d", breadcrumbs)
	}
}

func TestUnknownEventsAreIgnoredWithoutDestabilizing(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	transport.emit(events.NewResponseCreated("r1"))
	transport.emit(events.NewUnknown("experimental.event", map[string]any{"x": 1}))

	s.mu.Lock()
	active := s.step.active
	s.mu.Unlock()
	if !active {
		t.Fatal("expected the step state machine untouched by unknown events")
	}
}

func TestMismatchedEventTypesAreIgnored(t *testing.T) {
	s, transport := attachedSession(t)
	defer s.Close()

	// Deliver a concrete type that does not match the registered kind.
	transport.mu.Lock()
	handlers := transport.handlers[events.KindResponseCreated]
	transport.mu.Unlock()
	for _, handler := range handlers {
		handler(events.NewSessionError("wrong type on purpose"))
	}

	// Later events still get processed.
	transport.emit(events.NewUserTranscriptDelta("m1", "still alive"))
	if item := findItem(t, s, "m1"); item.Text != "still alive" {
		t.Fatalf("expected later events processed, got %q", item.Text)
	}
}

func TestCloseUnsubscribesExactlyOnce(t *testing.T) {
	s, transport := attachedSession(t)

	s.Close()
	s.Close()

	transport.mu.Lock()
	unsubscribes := transport.unsubscribes
	registered := 0
	for _, handlers := range transport.handlers {
		registered += len(handlers)
	}
	transport.mu.Unlock()

	if unsubscribes != registered {
		t.Fatalf("expected %d unsubscriptions, got %d", registered, unsubscribes)
	}
}

func TestTelemetryDeduplicatesRepeatedFinalizations(t *testing.T) {
	var mu sync.Mutex
	deliveries := 0

	s, transport := attachedSession(t, WithTelemetrySink(func(kind string, payload map[string]any) {
		mu.Lock()
		deliveries++
		mu.Unlock()
	}))
	defer s.Close()

	transport.emit(events.NewUserTranscriptCompleted("m1", "final text"))
	transport.emit(events.NewUserTranscriptCompleted("m1", "final text"))

	mu.Lock()
	got := deliveries
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected one telemetry delivery for identical content, got %d", got)
	}
}

func TestTelemetrySinkFailuresAreSwallowed(t *testing.T) {
	s, transport := attachedSession(t, WithTelemetrySink(func(string, map[string]any) {
		panic("telemetry backend down")
	}))
	defer s.Close()

	transport.emit(events.NewUserTranscriptCompleted("m1", "final text"))

	if item := findItem(t, s, "m1"); item.Status != transcript.StatusDone {
		t.Fatal("expected transcript unaffected by telemetry failure")
	}
}
