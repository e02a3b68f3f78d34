package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventTokenRejected  EventType = "token_rejected"
)

// Event represents an authentication outcome emitted by the request pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Username  string      `json:"username,omitempty"`
	UserID    *int64      `json:"user_id,omitempty"`
	Path      string      `json:"path"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

// FailurePayload describes why a login or token was rejected.
type FailurePayload struct {
	Reason string `json:"reason"`
}
