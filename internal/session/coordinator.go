package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"pollroom/internal/archive"
	"pollroom/internal/domain"
	"pollroom/internal/poll"
	apperrors "pollroom/pkg/errors"
	"pollroom/pkg/logger"
)

// Coordinator routes inbound commands to the poll service, the archive,
// and the hub. One mutex serializes command processing, so every
// command runs to completion before the next is dispatched; validation
// always happens before any mutation.
type Coordinator struct {
	mu       sync.Mutex
	hub      *Hub
	polls    *poll.Service
	archive  *archive.Service
	validate *validator.Validate
	log      *logger.Logger
}

// NewCoordinator wires the command router.
func NewCoordinator(hub *Hub, polls *poll.Service, archiveSvc *archive.Service, log *logger.Logger) *Coordinator {
	return &Coordinator{
		hub:      hub,
		polls:    polls,
		archive:  archiveSvc,
		validate: validator.New(),
		log:      log,
	}
}

// Connect registers a new connection with its placeholder participant
// and announces the updated roster.
func (co *Coordinator) Connect(c *Client) {
	co.mu.Lock()
	defer co.mu.Unlock()

	co.hub.Register(c)
	co.broadcastRoster()
}

// Disconnect drops the connection's participant and announces the
// updated roster. Broadcasts already issued for an in-flight command
// stand.
func (co *Coordinator) Disconnect(connectionID string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	co.hub.Unregister(connectionID)
	co.broadcastRoster()
}

// Dispatch routes one inbound command. Commands from removed
// participants are rejected outright.
func (co *Coordinator) Dispatch(connectionID string, env domain.Envelope) {
	co.mu.Lock()
	defer co.mu.Unlock()

	p, ok := co.hub.Participant(connectionID)
	if !ok {
		return
	}
	if p.Removed {
		co.sendError(connectionID, apperrors.NewInvalidParticipant("You have been removed from this session"))
		return
	}

	var err error
	switch env.Event {
	case domain.EventParticipantJoin:
		err = co.handleJoin(connectionID, env.Data)
	case domain.EventTeacherJoin:
		err = co.handleTeacherJoin(connectionID)
	case domain.EventGetCurrentPoll:
		co.hub.SendTo(connectionID, domain.EventPollCurrent, co.polls.Current())
	case domain.EventCreatePoll:
		err = co.handleCreatePoll(env.Data)
	case domain.EventStartPoll:
		err = co.handleStartPoll(env.Data)
	case domain.EventSubmitAnswer:
		err = co.handleSubmitAnswer(connectionID, env.Data)
	case domain.EventChat:
		err = co.handleChat(connectionID, p, env.Data)
	case domain.EventKick:
		err = co.handleKick(env.Data)
	case domain.EventGetHistory:
		err = co.handleGetHistory(connectionID)
	default:
		err = apperrors.NewInvalidPayload("Unknown event: " + env.Event)
	}

	if err != nil {
		co.sendError(connectionID, err)
	}
}

func (co *Coordinator) handleJoin(connectionID string, data json.RawMessage) error {
	var req domain.JoinRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}

	name := req.Name
	if name == "" {
		name = defaultName(connectionID)
	}
	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleStudent
	}

	co.hub.UpdateParticipant(connectionID, func(p *domain.Participant) {
		p.Name = name
		p.Role = role
	})

	co.hub.SendTo(connectionID, domain.EventConnected, domain.ConnectedEvent{ConnectionID: connectionID})
	co.broadcastRoster()
	co.sendCurrentPollIfAny(connectionID)
	return nil
}

func (co *Coordinator) handleTeacherJoin(connectionID string) error {
	co.hub.UpdateParticipant(connectionID, func(p *domain.Participant) {
		p.Role = domain.RoleTeacher
	})

	co.broadcastRoster()
	co.sendCurrentPollIfAny(connectionID)
	return nil
}

func (co *Coordinator) handleCreatePoll(data json.RawMessage) error {
	var req domain.CreatePollRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}
	_, err := co.polls.Create(&req)
	return err
}

func (co *Coordinator) handleStartPoll(data json.RawMessage) error {
	var req domain.StartPollRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}
	return co.polls.Start(req.PollID)
}

func (co *Coordinator) handleSubmitAnswer(connectionID string, data json.RawMessage) error {
	var req domain.SubmitAnswerRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}
	return co.polls.SubmitVote(req.PollID, req.OptionID, connectionID)
}

func (co *Coordinator) handleChat(connectionID string, sender domain.Participant, data json.RawMessage) error {
	var req domain.ChatRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}

	text := req.Text
	if text == "" {
		text = req.Message
	}
	if text == "" {
		return apperrors.NewInvalidPayload("Chat message needs text")
	}

	user := req.Name
	if user == "" {
		user = sender.Name
	}
	if user == "" {
		user = "Anonymous"
	}

	co.hub.Broadcast(domain.EventChat, domain.ChatMessage{
		User:         user,
		Message:      text,
		ConnectionID: connectionID,
		Timestamp:    time.Now().UTC(),
	})
	return nil
}

func (co *Coordinator) handleKick(data json.RawMessage) error {
	var req domain.KickRequest
	if err := co.decode(data, &req); err != nil {
		return err
	}

	targetID := req.ConnectionID
	if targetID == "" && req.Name != "" {
		if id, ok := co.hub.FindByName(req.Name); ok {
			targetID = id
		}
	}

	if targetID == "" {
		return apperrors.NewInvalidParticipant("Invalid participant")
	}
	if ok := co.hub.UpdateParticipant(targetID, func(p *domain.Participant) {
		p.Removed = true
	}); !ok {
		return apperrors.NewInvalidParticipant("Invalid participant")
	}

	reason := req.Reason
	if reason == "" {
		reason = "Removed by teacher"
	}

	co.log.Info("participant removed",
		zap.String("connection_id", targetID),
		zap.String("reason", reason))

	co.hub.SendTo(targetID, domain.EventKicked, domain.KickedEvent{Reason: reason})
	co.broadcastRoster()
	return nil
}

func (co *Coordinator) handleGetHistory(connectionID string) error {
	records, err := co.archive.List(context.Background())
	if err != nil {
		return apperrors.NewInternalError("Failed to load poll history", err)
	}
	co.hub.SendTo(connectionID, domain.EventHistoryData, records)
	return nil
}

// decode unmarshals and validates a command payload. Absent payloads
// decode as empty structs so commands with all-optional fields work
// without a data member.
func (co *Coordinator) decode(data json.RawMessage, v interface{}) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return apperrors.NewInvalidPayload("Malformed payload")
		}
	}
	if err := co.validate.Struct(v); err != nil {
		return apperrors.NewInvalidPayload("Invalid payload: " + err.Error())
	}
	return nil
}

func (co *Coordinator) broadcastRoster() {
	co.hub.Broadcast(domain.EventParticipantsUpdate, co.hub.Roster())
}

// sendCurrentPollIfAny unicasts the live poll snapshot so late joiners
// and reconnecting clients catch up without waiting for the next
// transition.
func (co *Coordinator) sendCurrentPollIfAny(connectionID string) {
	current := co.polls.Current()
	if current.Poll == nil {
		return
	}
	co.hub.SendTo(connectionID, domain.EventPollCurrent, current)
}

func (co *Coordinator) sendError(connectionID string, err error) {
	appErr := apperrors.From(err)
	if appErr.Type == apperrors.ErrorTypeInternal {
		co.log.WithError(err).Error("command failed", zap.String("connection_id", connectionID))
	} else {
		co.log.Debug("command rejected",
			zap.String("connection_id", connectionID),
			zap.String("type", string(appErr.Type)),
			zap.String("message", appErr.Message))
	}
	co.hub.SendTo(connectionID, domain.EventError, domain.ErrorEvent{
		Type:    string(appErr.Type),
		Message: appErr.Message,
	})
}
