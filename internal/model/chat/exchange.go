package chat

import "time"

// Exchange is one user message paired with the bot's reply. Immutable once
// appended to a session; JSON keys match the frontend's transcript shape.
type Exchange struct {
	User      string    `json:"user"`
	Bot       string    `json:"ai"`
	Timestamp time.Time `json:"timestamp"`
}
