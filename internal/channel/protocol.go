package channel

import (
	"encoding/json"

	"github.com/VarunWeb6/ALEX-AI/internal/api"
)

// Event names on the project channel.
const (
	// EventProjectMessage carries one chat message, both directions.
	EventProjectMessage = "project-message"
)

// Connection states reported through Manager.OnStateChange.
const (
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateDisconnected = "disconnected"
	StateAuthFailed   = "auth_failed"
	StateClosed       = "closed"
)

// Envelope wraps every channel frame with an event name for routing. ID is a
// correlation id assigned by the sender; receivers use it to drop the echo of
// their own optimistic sends.
type Envelope struct {
	Event   string          `json:"event"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatMessage is the payload of a project-message event.
type ChatMessage struct {
	ID      string      `json:"id,omitempty"`
	Message string      `json:"message"`
	Sender  api.UserRef `json:"sender"`
}
