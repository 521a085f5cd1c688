// Package queue defines message payloads exchanged over the message broker.
package queue

// ChatRepliedEvent is published after the chat endpoint answers a message.
// It carries enough for downstream consumers to log or aggregate replies
// without calling back into the service.
type ChatRepliedEvent struct {
	Rule      string `json:"rule"`       // phrase, greeting, farewell or fallback
	Message   string `json:"message"`    // verbatim input
	Response  string `json:"response"`   // reply returned to the client
	RepliedAt string `json:"replied_at"` // RFC 3339, UTC
}
