package events

const (
	// KindResponseCreated identifies the start of a new agent response.
	KindResponseCreated Kind = "response.created"
	// KindResponseDone identifies response completion.
	KindResponseDone Kind = "response.done"
	// KindResponseCreate identifies an outbound follow-up turn request.
	KindResponseCreate Kind = "response.create"
	// KindOutputItemAdded identifies an output item joining the active response.
	KindOutputItemAdded Kind = "response.output_item.added"
	// KindOutputItemDone identifies an output item reaching its terminal state.
	KindOutputItemDone Kind = "response.output_item.done"
)

// Output item types carried by OutputItemAdded/OutputItemDone and
// ResponseDone outputs.
const (
	OutputTypeMessage      = "message"
	OutputTypeFunctionCall = "function_call"
)

// ResponseCreated marks the start of a new agent response.
type ResponseCreated struct {
	Base
	ResponseID string
}

// NewResponseCreated creates a response created event.
func NewResponseCreated(responseID string) ResponseCreated {
	return ResponseCreated{Base: NewBase(KindResponseCreated), ResponseID: responseID}
}

// ResponseOutput is one item of a finished response.
type ResponseOutput struct {
	Type      string
	Role      string
	Text      string
	CallID    string
	Name      string
	Arguments string
}

// ResponseDone marks response completion with its produced outputs.
type ResponseDone struct {
	Base
	ResponseID string
	Outputs    []ResponseOutput
}

// NewResponseDone creates a response done event.
func NewResponseDone(responseID string, outputs []ResponseOutput) ResponseDone {
	return ResponseDone{Base: NewBase(KindResponseDone), ResponseID: responseID, Outputs: outputs}
}

// ResponseCreate requests a follow-up turn (outbound).
type ResponseCreate struct{ Base }

// NewResponseCreate creates an outbound follow-up turn request.
func NewResponseCreate() ResponseCreate {
	return ResponseCreate{Base: NewBase(KindResponseCreate)}
}

// OutputItemAdded marks an output item joining the active response.
type OutputItemAdded struct {
	Base
	ResponseID string
	ItemID     string
	ItemType   string
	Role       string
	Text       string
	CallID     string
	Name       string
}

// NewOutputItemAdded creates an output item added event.
func NewOutputItemAdded(responseID, itemID, itemType string) OutputItemAdded {
	return OutputItemAdded{Base: NewBase(KindOutputItemAdded), ResponseID: responseID, ItemID: itemID, ItemType: itemType}
}

// OutputItemDone marks an output item reaching its terminal state.
type OutputItemDone struct {
	Base
	ResponseID string
	ItemID     string
	ItemType   string
	Role       string
	Text       string
	CallID     string
	Name       string
	Arguments  string
	ItemStatus string
}

// NewOutputItemDone creates an output item done event.
func NewOutputItemDone(responseID, itemID, itemType string) OutputItemDone {
	return OutputItemDone{Base: NewBase(KindOutputItemDone), ResponseID: responseID, ItemID: itemID, ItemType: itemType}
}
