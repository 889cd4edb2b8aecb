package domain

import "encoding/json"

// Wire events. Names follow the socket.io-style "<topic>:<action>"
// convention the web client speaks.
const (
	// Inbound commands.
	EventParticipantJoin = "participant:join"
	EventTeacherJoin     = "teacher:join"
	EventGetCurrentPoll  = "poll:getCurrent"
	EventCreatePoll      = "poll:create"
	EventStartPoll       = "poll:start"
	EventSubmitAnswer    = "answer:submit"
	EventChat            = "chat:message"
	EventKick            = "participant:kick"
	EventGetHistory      = "poll:history:get"

	// Outbound events.
	EventConnected          = "connected"
	EventParticipantsUpdate = "participants:update"
	EventPollCurrent        = "poll:current"
	EventPollCreated        = "poll:created"
	EventPollStarted        = "poll:started"
	EventPollEnded          = "poll:ended"
	EventVotesUpdate        = "votes:update"
	EventAnswerAccepted     = "answer:accepted"
	EventKicked             = "participant:kicked"
	EventHistoryData        = "poll:history:data"
	EventError              = "error"
)

// Envelope frames every message on the event channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinRequest is the payload of participant:join.
type JoinRequest struct {
	Name string `json:"name"`
	Role string `json:"role" validate:"omitempty,oneof=student teacher"`
}

// CreateOptionRequest is one option of a poll:create payload. The id is
// optional; absent ids are assigned sequentially starting at 1.
type CreateOptionRequest struct {
	ID   *int   `json:"id"`
	Text string `json:"text" validate:"required"`
}

// CreatePollRequest is the payload of poll:create.
type CreatePollRequest struct {
	ID       string                `json:"id"`
	Question string                `json:"question" validate:"required"`
	Options  []CreateOptionRequest `json:"options" validate:"required,min=2,dive"`
	Duration int                   `json:"duration" validate:"omitempty,min=1"`
}

// StartPollRequest is the payload of poll:start.
type StartPollRequest struct {
	PollID string `json:"pollId" validate:"required"`
}

// SubmitAnswerRequest is the payload of answer:submit. Option ids start
// at 1, so required catches a missing optionId.
type SubmitAnswerRequest struct {
	PollID   string `json:"pollId" validate:"required"`
	OptionID int    `json:"optionId" validate:"required"`
}

// ChatRequest is the payload of chat:message. Older clients send the
// body under "message" instead of "text".
type ChatRequest struct {
	Name    string `json:"name"`
	Text    string `json:"text"`
	Message string `json:"message"`
}

// KickRequest is the payload of participant:kick. The target resolves
// by connection id when present, otherwise by the earliest-registered
// roster entry with a matching name.
type KickRequest struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Reason       string `json:"reason"`
}

// ConnectedEvent acknowledges a join to the joining connection.
type ConnectedEvent struct {
	ConnectionID string `json:"connectionId"`
}

// CurrentPollEvent carries the current poll, or a nil poll when the
// current slot is empty.
type CurrentPollEvent struct {
	Poll  *Poll     `json:"poll"`
	State PollState `json:"state,omitempty"`
}

// PollEvent carries the full poll on poll:created and poll:started.
type PollEvent struct {
	Poll *Poll `json:"poll"`
}

// PollEndedEvent carries the final frozen counts and percentages.
type PollEndedEvent struct {
	PollID  string         `json:"pollId"`
	Options []OptionResult `json:"options"`
}

// VoteSnapshot is broadcast after every vote and lifecycle change.
type VoteSnapshot struct {
	PollID  string         `json:"pollId"`
	Options []OptionResult `json:"options"`
	Total   int            `json:"total"`
}

// AnswerAcceptedEvent acknowledges one accepted vote to its sender.
type AnswerAcceptedEvent struct {
	PollID   string `json:"pollId"`
	OptionID int    `json:"optionId"`
}

// KickedEvent is unicast to a removed participant.
type KickedEvent struct {
	Reason string `json:"reason"`
}

// HistoryEvent carries the archived poll list, most recent first.
type HistoryEvent struct {
	History []HistoryRecord `json:"history"`
}

// ErrorEvent is unicast to the connection whose command failed.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
