// Package elevenlabs handles the voice agent platform: post-call webhook
// events, their signatures, and outbound call requests.
package elevenlabs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TypePostCallTranscription is the only webhook event that carries a transcript.
const TypePostCallTranscription = "post_call_transcription"

var ErrInvalidPayload = errors.New("invalid webhook payload")

// Event is a parsed webhook envelope: *PostCallTranscription or *Unrecognized.
type Event interface {
	EventType() string
}

// PostCallTranscription is sent once a call ends and its transcript is ready.
type PostCallTranscription struct {
	// Raw is the data object exactly as received.
	Raw  json.RawMessage
	Data TranscriptionData
}

// Unrecognized is any other event type. It is acknowledged and ignored.
type Unrecognized struct {
	Type string
}

func (*PostCallTranscription) EventType() string { return TypePostCallTranscription }
func (e *Unrecognized) EventType() string { return e.Type }

type TranscriptionData struct {
	AgentID        string           `json:"agent_id"`
	ConversationID string           `json:"conversation_id"`
	UserID         string           `json:"user_id"`
	Status         string           `json:"status"`
	Transcript     []TranscriptTurn `json:"transcript"`
	Metadata       CallMetadata     `json:"metadata"`
	Analysis       CallAnalysis     `json:"analysis"`
}

type TranscriptTurn struct {
	Role           string   `json:"role"`
	Message        string   `json:"message"`
	TimeInCallSecs *float64 `json:"time_in_call_secs"`
}

type CallMetadata struct {
	StartTimeUnixSecs int64   `json:"start_time_unix_secs"`
	CallDurationSecs  float64 `json:"call_duration_secs"`
	TerminationReason string  `json:"termination_reason"`
}

type CallAnalysis struct {
	CallSuccessful    string `json:"call_successful"`
	TranscriptSummary string `json:"transcript_summary"`
}

type envelope struct {
	Type           string          `json:"type"`
	EventTimestamp int64           `json:"event_timestamp"`
	Data           json.RawMessage `json:"data"`
}

// ParseEvent decodes a webhook body. Errors wrap ErrInvalidPayload.
func ParseEvent(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidPayload)
	}
	if env.Type != TypePostCallTranscription {
		return &Unrecognized{Type: env.Type}, nil
	}

	var data TranscriptionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, fmt.Errorf("%w: data: %w", ErrInvalidPayload, err)
	}
	if data.ConversationID == "" {
		return nil, fmt.Errorf("%w: missing data.conversation_id", ErrInvalidPayload)
	}
	return &PostCallTranscription{Raw: env.Data, Data: data}, nil
}
