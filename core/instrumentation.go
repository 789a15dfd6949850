package session

import (
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const scopeName = "github.com/BranchManager69/dexter-session-core/core"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = otelslog.NewLogger(scopeName)
)

var (
	routedEventsCounter, _ = meter.Int64Counter("session.events.routed",
		metric.WithDescription("Transport events dispatched to a handler, unknown kinds included."))
	continuesSentCounter, _ = meter.Int64Counter("session.continues.sent",
		metric.WithDescription("Follow-up turn requests sent back to the transport."))
	handlerPanicsCounter, _ = meter.Int64Counter("session.handler.panics",
		metric.WithDescription("Recovered panics inside event handlers."))
)
