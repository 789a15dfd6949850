package session

import (
	"context"
	"fmt"

	"github.com/BranchManager69/dexter-session-core/core/events"
)

// panicSafeHandler wraps an event handler so one bad event never breaks
// the listener chain: the panic is recovered and recorded, later events
// still get processed.
func panicSafeHandler(name string, handler func(events.Event)) func(events.Event) {
	return func(event events.Event) {
		defer func() {
			if recovered := recover(); recovered != nil {
				handlerPanicsCounter.Add(context.Background(), 1)
				logger.Error(fmt.Sprintf("%s handler panicked: %v", name, recovered))
			}
		}()

		handler(event)
	}
}
