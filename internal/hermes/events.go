package hermes

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubjectConversationStored = "factfind.conversation.stored"
	SubjectProfileExtracted   = "factfind.profile.extracted"
	SubjectRegistered         = "factfind.registered"
)

// Envelope is the common wrapper for every published event.
type Envelope struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Data      any       `json:"data"`
}

func NewEnvelope(eventType string, data any) Envelope {
	return Envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    "factfind",
		Data:      data,
	}
}

// ConversationStored is published after a call transcript is persisted.
type ConversationStored struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	AgentID        string `json:"agent_id"`
	Status         string `json:"status"`
	Turns          int    `json:"turns"`
}

// ProfileExtracted is published after an extracted profile is persisted.
type ProfileExtracted struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	CriticalFields int    `json:"critical_fields"`
}

// Registered announces a running instance.
type Registered struct {
	Port  int    `json:"port"`
	Store string `json:"store"`
	LLM   string `json:"llm"`
}
