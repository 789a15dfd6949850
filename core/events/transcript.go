package events

const (
	// KindItemCreated identifies a conversation item materializing.
	KindItemCreated Kind = "conversation.item.created"
	// KindUserTranscriptDelta identifies streamed user transcript text.
	KindUserTranscriptDelta Kind = "conversation.item.input_audio_transcription.delta"
	// KindUserTranscriptCompleted identifies the final user transcript for an item.
	KindUserTranscriptCompleted Kind = "conversation.item.input_audio_transcription.completed"
	// KindAssistantTranscriptDelta identifies streamed assistant transcript text.
	KindAssistantTranscriptDelta Kind = "response.audio_transcript.delta"
	// KindAssistantTranscriptDone identifies the final assistant transcript for an item.
	KindAssistantTranscriptDone Kind = "response.audio_transcript.done"
)

// ItemCreated marks a conversation item materializing.
type ItemCreated struct {
	Base
	ItemID   string
	ItemType string
	Role     string
	Text     string
}

// NewItemCreated creates a conversation item created event.
func NewItemCreated(itemID, itemType, role, text string) ItemCreated {
	return ItemCreated{Base: NewBase(KindItemCreated), ItemID: itemID, ItemType: itemType, Role: role, Text: text}
}

// UserTranscriptDelta carries streamed user transcript text.
type UserTranscriptDelta struct {
	Base
	ItemID string
	Delta  string
}

// NewUserTranscriptDelta creates a user transcript delta event.
func NewUserTranscriptDelta(itemID, delta string) UserTranscriptDelta {
	return UserTranscriptDelta{Base: NewBase(KindUserTranscriptDelta), ItemID: itemID, Delta: delta}
}

// UserTranscriptCompleted carries the final user transcript for an item.
type UserTranscriptCompleted struct {
	Base
	ItemID     string
	Transcript string
}

// NewUserTranscriptCompleted creates a user transcript completed event.
func NewUserTranscriptCompleted(itemID, transcript string) UserTranscriptCompleted {
	return UserTranscriptCompleted{Base: NewBase(KindUserTranscriptCompleted), ItemID: itemID, Transcript: transcript}
}

// AssistantTranscriptDelta carries streamed assistant transcript text.
type AssistantTranscriptDelta struct {
	Base
	ResponseID string
	ItemID     string
	Delta      string
}

// NewAssistantTranscriptDelta creates an assistant transcript delta event.
func NewAssistantTranscriptDelta(itemID, delta string) AssistantTranscriptDelta {
	return AssistantTranscriptDelta{Base: NewBase(KindAssistantTranscriptDelta), ItemID: itemID, Delta: delta}
}

// AssistantTranscriptDone carries the final assistant transcript for an item.
type AssistantTranscriptDone struct {
	Base
	ResponseID string
	ItemID     string
	Transcript string
}

// NewAssistantTranscriptDone creates an assistant transcript done event.
func NewAssistantTranscriptDone(itemID, transcript string) AssistantTranscriptDone {
	return AssistantTranscriptDone{Base: NewBase(KindAssistantTranscriptDone), ItemID: itemID, Transcript: transcript}
}
