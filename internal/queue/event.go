// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRegisteredEvent is published after a successful signup. It carries
// enough information for downstream consumers to audit or notify without
// querying the primary database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Login        string `json:"user_login"`
	Email        string `json:"user_email"`
	RegisteredAt string `json:"registered_at"`
}
