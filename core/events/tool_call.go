package events

const (
	// KindAgentToolStart identifies tool call execution start.
	KindAgentToolStart Kind = "agent_tool_start"
	// KindAgentToolEnd identifies tool call execution end.
	KindAgentToolEnd Kind = "agent_tool_end"
	// KindFunctionCallArgumentsDelta identifies streamed tool call argument text.
	KindFunctionCallArgumentsDelta Kind = "response.function_call_arguments.delta"
	// KindFunctionCallArgumentsDone identifies the final argument text for a call.
	KindFunctionCallArgumentsDone Kind = "response.function_call_arguments.done"
)

// AgentToolStart marks start of tool execution.
type AgentToolStart struct {
	Base
	CallID    string
	Name      string
	Arguments string
}

// NewAgentToolStart creates an agent tool start event.
func NewAgentToolStart(callID, name, arguments string) AgentToolStart {
	return AgentToolStart{Base: NewBase(KindAgentToolStart), CallID: callID, Name: name, Arguments: arguments}
}

// AgentToolEnd marks end of tool execution.
type AgentToolEnd struct {
	Base
	CallID string
	Name   string
	Output string
}

// NewAgentToolEnd creates an agent tool end event.
func NewAgentToolEnd(callID, name, output string) AgentToolEnd {
	return AgentToolEnd{Base: NewBase(KindAgentToolEnd), CallID: callID, Name: name, Output: output}
}

// FunctionCallArgumentsDelta carries streamed tool call argument text.
type FunctionCallArgumentsDelta struct {
	Base
	CallID string
	Delta  string
}

// NewFunctionCallArgumentsDelta creates a function call arguments delta event.
func NewFunctionCallArgumentsDelta(callID, delta string) FunctionCallArgumentsDelta {
	return FunctionCallArgumentsDelta{Base: NewBase(KindFunctionCallArgumentsDelta), CallID: callID, Delta: delta}
}

// FunctionCallArgumentsDone carries the final argument text for a call.
type FunctionCallArgumentsDone struct {
	Base
	CallID    string
	Arguments string
}

// NewFunctionCallArgumentsDone creates a function call arguments done event.
func NewFunctionCallArgumentsDone(callID, arguments string) FunctionCallArgumentsDone {
	return FunctionCallArgumentsDone{Base: NewBase(KindFunctionCallArgumentsDone), CallID: callID, Arguments: arguments}
}
