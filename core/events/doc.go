// Package events defines the typed realtime session event contract.
//
// Kind strings follow the wire protocol's type discriminators so a
// transport can map frames to events without a translation table.
// Event kinds are grouped by namespace:
//
//   - session.*
//   - response.*
//   - conversation.item.*
//   - agent_tool_*
//   - guardrail_tripped
//
// Semantics used across the package:
//
//   - Delta: append-only text piece emitted in stream order.
//   - Completed/Done: terminal immutable text/state for the current
//     stream phase.
//   - CallID: the transport-assigned identifier of one tool invocation;
//     stable across its start, argument streaming, and completion events.
//
// session events
//
//   - SessionCreated (session.created): the remote session is live.
//   - SessionError (session.error): the transport surfaced a
//     non-recoverable error; carried as data, never as a panic.
//   - SessionUpdate (session.update): outbound session reconfiguration
//     (turn detection, tool registration).
//
// response events
//
//   - ResponseCreated (response.created): a new agent response (step)
//     began; carries the response id.
//   - ResponseDone (response.done): the response finished; carries the
//     produced output items.
//   - ResponseCreate (response.create): outbound request for a follow-up
//     turn.
//   - OutputItemAdded (response.output_item.added): one output item
//     (message or function call) was added to the active response.
//   - OutputItemDone (response.output_item.done): one output item
//     reached its terminal state.
//   - AssistantTranscriptDelta (response.audio_transcript.delta):
//     streamed assistant transcript text.
//   - AssistantTranscriptDone (response.audio_transcript.done): the
//     assistant transcript for an item is final.
//   - FunctionCallArgumentsDelta (response.function_call_arguments.delta):
//     streamed tool call argument text.
//   - FunctionCallArgumentsDone (response.function_call_arguments.done):
//     the argument stream for a call is final.
//
// conversation.item events
//
//   - ItemCreated (conversation.item.created): a conversation item
//     materialized; messages are created at most once per item id.
//   - UserTranscriptDelta (conversation.item.input_audio_transcription.delta):
//     streamed user transcript text.
//   - UserTranscriptCompleted (conversation.item.input_audio_transcription.completed):
//     the user transcript for an item is final.
//
// agent_tool events
//
//   - AgentToolStart (agent_tool_start): tool execution started.
//   - AgentToolEnd (agent_tool_end): tool execution finished with output.
//
// guardrail events
//
//   - GuardrailTripped (guardrail_tripped): a moderation verdict for the
//     most recent assistant message.
//
// Unknown (unknown) wraps any frame whose type discriminator is not part
// of this contract; routers log and ignore it.
package events
