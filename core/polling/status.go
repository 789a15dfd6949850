package polling

import "strings"

// processingStatuses mark a job as still making progress; polling starts
// automatically when the last known status is one of these.
var processingStatuses = map[string]struct{}{
	"queued":      {},
	"pending":     {},
	"processing":  {},
	"running":     {},
	"analyzing":   {},
	"in_progress": {},
	"submitted":   {},
	"accepted":    {},
}

// terminalStatuses mark a job as finished; polling stops permanently once
// one is observed.
var terminalStatuses = map[string]struct{}{
	"completed": {},
	"complete":  {},
	"succeeded": {},
	"success":   {},
	"done":      {},
	"failed":    {},
	"failure":   {},
	"error":     {},
	"cancelled": {},
	"canceled":  {},
	"expired":   {},
	"timeout":   {},
}

// IsProcessing reports whether status marks a job as still in flight.
// Unrecognized statuses are neither processing nor terminal.
func IsProcessing(status string) bool {
	_, ok := processingStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsTerminal reports whether status marks a job as finished.
func IsTerminal(status string) bool {
	_, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}
