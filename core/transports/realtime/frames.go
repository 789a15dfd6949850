package realtime

import (
	"encoding/json"

	"github.com/BranchManager69/dexter-session-core/core/events"
)

// frame is the wire shape of one realtime protocol message. Only the
// fields relevant to a frame's type are populated.
type frame struct {
	Type string `json:"type"`

	Session  map[string]any `json:"session,omitempty"`
	Error    *errorFrame    `json:"error,omitempty"`
	Response *responseFrame `json:"response,omitempty"`
	Item     *itemFrame     `json:"item,omitempty"`

	ResponseID string `json:"response_id,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	Delta      string `json:"delta,omitempty"`
	Transcript string `json:"transcript,omitempty"`

	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`

	Category  string `json:"category,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	Excerpt   string `json:"excerpt,omitempty"`
}

type errorFrame struct {
	Message string `json:"message"`
}

type responseFrame struct {
	ID     string      `json:"id"`
	Output []itemFrame `json:"output"`
}

type itemFrame struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	Text      string `json:"text"`
}

// decodeFrame maps one wire frame to its typed event. Frames with an
// unrecognized type decode to events.Unknown so routers can log and
// ignore them; a frame that fails to parse at all is also surfaced as
// Unknown rather than an error.
func decodeFrame(data []byte) events.Event {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return events.NewUnknown("", map[string]any{"raw": string(data)})
	}

	switch events.Kind(f.Type) {
	case events.KindSessionCreated:
		sessionID := ""
		if f.Session != nil {
			sessionID, _ = f.Session["id"].(string)
		}
		return events.NewSessionCreated(sessionID)

	case events.KindSessionError, "error":
		message := ""
		if f.Error != nil {
			message = f.Error.Message
		}
		return events.NewSessionError(message)

	case events.KindResponseCreated:
		if f.Response != nil {
			return events.NewResponseCreated(f.Response.ID)
		}
		return events.NewResponseCreated(f.ResponseID)

	case events.KindResponseDone:
		done := events.NewResponseDone(f.ResponseID, nil)
		if f.Response != nil {
			outputs := make([]events.ResponseOutput, 0, len(f.Response.Output))
			for _, item := range f.Response.Output {
				outputs = append(outputs, events.ResponseOutput{
					Type:      item.Type,
					Role:      item.Role,
					Text:      item.Text,
					CallID:    item.CallID,
					Name:      item.Name,
					Arguments: item.Arguments,
				})
			}
			done = events.NewResponseDone(f.Response.ID, outputs)
		}
		return done

	case events.KindOutputItemAdded:
		added := events.NewOutputItemAdded(f.ResponseID, f.ItemID, "")
		if f.Item != nil {
			added = events.NewOutputItemAdded(f.ResponseID, f.Item.ID, f.Item.Type)
			added.Role = f.Item.Role
			added.Text = f.Item.Text
			added.CallID = f.Item.CallID
			added.Name = f.Item.Name
		}
		return added

	case events.KindOutputItemDone:
		done := events.NewOutputItemDone(f.ResponseID, f.ItemID, "")
		if f.Item != nil {
			done = events.NewOutputItemDone(f.ResponseID, f.Item.ID, f.Item.Type)
			done.Role = f.Item.Role
			done.Text = f.Item.Text
			done.CallID = f.Item.CallID
			done.Name = f.Item.Name
			done.Arguments = f.Item.Arguments
			done.ItemStatus = f.Item.Status
		}
		return done

	case events.KindItemCreated:
		if f.Item != nil {
			return events.NewItemCreated(f.Item.ID, f.Item.Type, f.Item.Role, f.Item.Text)
		}
		return events.NewItemCreated(f.ItemID, "", "", "")

	case events.KindUserTranscriptDelta:
		return events.NewUserTranscriptDelta(f.ItemID, f.Delta)
	case events.KindUserTranscriptCompleted:
		return events.NewUserTranscriptCompleted(f.ItemID, f.Transcript)
	case events.KindAssistantTranscriptDelta:
		return events.NewAssistantTranscriptDelta(f.ItemID, f.Delta)
	case events.KindAssistantTranscriptDone:
		return events.NewAssistantTranscriptDone(f.ItemID, f.Transcript)

	case events.KindAgentToolStart:
		return events.NewAgentToolStart(f.CallID, f.Name, f.Arguments)
	case events.KindAgentToolEnd:
		return events.NewAgentToolEnd(f.CallID, f.Name, f.Output)
	case events.KindFunctionCallArgumentsDelta:
		return events.NewFunctionCallArgumentsDelta(f.CallID, f.Delta)
	case events.KindFunctionCallArgumentsDone:
		return events.NewFunctionCallArgumentsDone(f.CallID, f.Arguments)

	case events.KindGuardrailTripped:
		return events.NewGuardrailTripped(f.Category, f.Rationale, f.Excerpt)
	}

	var payload map[string]any
	_ = json.Unmarshal(data, &payload)
	return events.NewUnknown(f.Type, payload)
}

// encodeFrame maps an outbound event to its wire frame.
func encodeFrame(event events.Event) frame {
	switch typed := event.(type) {
	case events.SessionUpdate:
		return frame{Type: string(events.KindSessionUpdate), Session: typed.Session}
	case events.ResponseCreate:
		return frame{Type: string(events.KindResponseCreate)}
	default:
		return frame{Type: string(event.Kind())}
	}
}
