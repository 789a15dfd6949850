// Package payload extracts typed values out of arbitrarily shaped tool
// response payloads. All functions are best-effort and total: malformed
// input degrades to nil/empty results, never a panic.
package payload

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// maxUnwrapDepth bounds recursion so adversarial nesting stays total.
const maxUnwrapDepth = 16

// wrapperKeys are unwrapped in this priority order.
var wrapperKeys = []string{
	"structuredContent",
	"structured_content",
	"result",
	"output",
	"data",
	"response",
	"payload",
}

// contentEntryKeys are typed sub-fields checked within content array entries.
var contentEntryKeys = []string{"json", "object", "value", "data"}

// Extract returns the innermost meaningful payload of raw.
//
// It recursively unwraps the conventional wrapper keys, parses
// JSON-encoded strings, and scans content arrays for embedded JSON text,
// typed sub-fields, or nested objects. The input is returned unchanged
// when no unwrapping rule applies.
func Extract(raw any) any {
	return extract(raw, maxUnwrapDepth)
}

func extract(raw any, depth int) any {
	if raw == nil || depth <= 0 {
		return raw
	}

	switch value := raw.(type) {
	case string:
		if decoded, ok := decodeJSONString(value); ok {
			return extract(decoded, depth-1)
		}
		return raw
	case []any:
		if inner := extractFromContentList(value, depth-1); inner != nil {
			return inner
		}
		return raw
	case map[string]any:
		if content, ok := value["content"].([]any); ok {
			if inner := extractFromContentList(content, depth-1); inner != nil {
				return inner
			}
		}
		for _, key := range wrapperKeys {
			if inner, ok := value[key]; ok && inner != nil {
				return extract(inner, depth-1)
			}
		}
		return raw
	default:
		return raw
	}
}

// extractFromContentList scans entries for the first usable payload.
// Returns nil when no entry yields one.
func extractFromContentList(entries []any, depth int) any {
	if depth <= 0 {
		return nil
	}

	for _, entry := range entries {
		object, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		if text, ok := object["text"].(string); ok {
			if decoded, ok := decodeJSONString(text); ok {
				return extract(decoded, depth-1)
			}
			continue
		}

		for _, key := range contentEntryKeys {
			if inner, ok := object[key]; ok && inner != nil {
				return extract(inner, depth-1)
			}
		}

		if _, typed := object["type"]; !typed && len(object) > 0 {
			return extract(object, depth-1)
		}
	}

	return nil
}

// decodeJSONString parses s when it looks like a JSON object or array.
// Malformed JSON is ignored so the caller can fall through.
func decodeJSONString(s string) (any, bool) {
	trimmed := strings.TrimSpace(s)
	if len(trimmed) < 2 {
		return nil, false
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return nil, false
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, false
	}
	return decoded, true
}

// PickNumber returns the first candidate that is a finite number or a
// string parseable as one, nil when none qualifies.
func PickNumber(candidates ...any) *float64 {
	for _, candidate := range candidates {
		if number, ok := asNumber(candidate); ok {
			return &number
		}
	}
	return nil
}

func asNumber(candidate any) (float64, bool) {
	var number float64
	switch value := candidate.(type) {
	case float64:
		number = value
	case float32:
		number = float64(value)
	case int:
		number = float64(value)
	case int32:
		number = float64(value)
	case int64:
		number = float64(value)
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return 0, false
		}
		number = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return 0, false
		}
		number = parsed
	default:
		return 0, false
	}

	if math.IsNaN(number) || math.IsInf(number, 0) {
		return 0, false
	}
	return number, true
}

// PickString returns the first non-empty trimmed string candidate,
// "" when none qualifies.
func PickString(candidates ...any) string {
	for _, candidate := range candidates {
		if value, ok := candidate.(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
