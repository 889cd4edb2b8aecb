package domain

import "time"

// Role distinguishes the presenter from respondents.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Participant is the identity attached to one live connection. Removed
// participants stay in the roster until they disconnect, but every
// command they send is rejected.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Removed      bool   `json:"removed"`
}

// ChatMessage is broadcast to every connection and never stored.
type ChatMessage struct {
	User         string    `json:"user"`
	Message      string    `json:"message"`
	ConnectionID string    `json:"connectionId"`
	Timestamp    time.Time `json:"timestamp"`
}
