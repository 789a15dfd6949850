package session

import (
	"fmt"
	"sync"
)

// TelemetrySink consumes fire-and-forget session telemetry. Sinks must
// not assume delivery; failures are swallowed.
type TelemetrySink func(kind string, payload map[string]any)

// telemetryDedup forwards materially-changed messages and completed tool
// calls, deduplicated by id and content so repeated deltas do not cause
// repeated writes.
type telemetryDedup struct {
	sink TelemetrySink

	mu   sync.Mutex
	seen map[string]string
}

func newTelemetryDedup(sink TelemetrySink) *telemetryDedup {
	return &telemetryDedup{sink: sink, seen: map[string]string{}}
}

func (t *telemetryDedup) emitMessage(itemID, role, text string) {
	t.emit("message", "message:"+itemID, fmt.Sprintf("%s\x00%s", role, text), map[string]any{
		"item_id": itemID,
		"role":    role,
		"text":    text,
	})
}

func (t *telemetryDedup) emitToolCall(callID, name, arguments, output string) {
	t.emit("tool_call", "tool_call:"+callID, fmt.Sprintf("%s\x00%s\x00%s", name, arguments, output), map[string]any{
		"call_id":   callID,
		"name":      name,
		"arguments": arguments,
		"output":    output,
	})
}

func (t *telemetryDedup) emit(kind, key, fingerprint string, payload map[string]any) {
	if t.sink == nil {
		return
	}

	t.mu.Lock()
	if t.seen[key] == fingerprint {
		t.mu.Unlock()
		return
	}
	t.seen[key] = fingerprint
	t.mu.Unlock()

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Debug(fmt.Sprintf("telemetry sink failed for %s: %v", key, recovered))
		}
	}()
	t.sink(kind, payload)
}
