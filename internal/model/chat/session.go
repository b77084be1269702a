package chat

import "github.com/bridgetext/coachbot/backend/internal/model/tone"

// Session is a point-in-time copy of one conversation's state.
type Session struct {
	ID        string     `json:"id"`
	Tone      tone.Tone  `json:"tone,omitempty"`
	Exchanges []Exchange `json:"exchanges"`
}

// Len returns the number of completed exchanges.
func (s Session) Len() int {
	return len(s.Exchanges)
}
