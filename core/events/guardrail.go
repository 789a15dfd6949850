package events

const (
	// KindGuardrailTripped identifies a moderation verdict for the most
	// recent assistant message.
	KindGuardrailTripped Kind = "guardrail_tripped"
)

// GuardrailTripped carries a moderation verdict.
type GuardrailTripped struct {
	Base
	Category  string
	Rationale string
	Excerpt   string
}

// NewGuardrailTripped creates a guardrail tripped event.
func NewGuardrailTripped(category, rationale, excerpt string) GuardrailTripped {
	return GuardrailTripped{Base: NewBase(KindGuardrailTripped), Category: category, Rationale: rationale, Excerpt: excerpt}
}
