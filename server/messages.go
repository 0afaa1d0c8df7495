package server

import "github.com/akaeyuhi/GameLeaderTable/types"

const (
	MessageTypeMove    = "move"
	MessageTypeWelcome = "welcome"
)

// InboundMessage is the envelope for client-to-server frames. Frames that
// fail to decode into it, or that carry an unknown type, are discarded.
type InboundMessage struct {
	Type string        `json:"type"`
	Dir  *types.Vector `json:"dir,omitempty"`
}

// WelcomeMessage is sent once per connection so the client learns the
// connection id its player and leaderboard entries are keyed by.
type WelcomeMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

func NewWelcomeMessage(id string) WelcomeMessage {
	return WelcomeMessage{Type: MessageTypeWelcome, ID: id}
}
