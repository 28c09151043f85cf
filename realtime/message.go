package realtime

import (
	"encoding/json"
	"errors"

	"github.com/codecollab-io/codecollab/filetree"
)

// AISenderID is the reserved sender identity for AI-authored messages.
// Real member ids are UUIDs, so the sentinel can never collide with one.
const AISenderID = "ai"

// AISenderName is the display name used on AI-authored messages
const AISenderName = "AI"

// Sender identifies the author of a room message
type Sender struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Envelope is the unit exchanged over the room channel. The body stays raw:
// human messages carry a plain string, AI messages carry a structured reply
// (either a JSON object or, from older clients, a JSON-encoded string).
type Envelope struct {
	Sender  Sender          `json:"sender"`
	Message json.RawMessage `json:"message"`
}

// IsAI reports whether the message claims the AI sender identity
func (e *Envelope) IsAI() bool {
	return e.Sender.ID == AISenderID
}

// Text returns the body as plain text for human messages, or the empty
// string when the body is not a JSON string.
func (e *Envelope) Text() string {
	var s string
	if err := json.Unmarshal(e.Message, &s); err != nil {
		return ""
	}
	return s
}

// Reply is the structured body of an AI-authored message
type Reply struct {
	Text     string         `json:"text"`
	FileTree *filetree.Tree `json:"fileTree,omitempty"`
}

// DecodeReply parses the body as a structured AI reply. Accepts both the
// object form and the string-of-JSON form the original clients send.
func (e *Envelope) DecodeReply() (*Reply, error) {
	raw := e.Message
	if len(raw) == 0 {
		return nil, errors.New("empty message body")
	}

	// Unwrap a JSON-encoded string body
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		raw = []byte(s)
	}

	var r Reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// EncodeAIEnvelope builds the wire payload for an AI-authored reply
func EncodeAIEnvelope(r *Reply) ([]byte, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Sender:  Sender{ID: AISenderID, Name: AISenderName},
		Message: body,
	})
}
