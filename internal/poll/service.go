// Package poll owns the single current poll: its lifecycle transitions,
// vote aggregation, and timed expiry. All mutations are serialized
// behind one mutex; the expiry timer goes through the same path as
// client commands.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"pollroom/internal/domain"
	apperrors "pollroom/pkg/errors"
	"pollroom/pkg/logger"
)

// Broadcaster fans typed events out to every connection, or to one.
type Broadcaster interface {
	Broadcast(event string, data interface{})
	SendTo(connectionID string, event string, data interface{}) bool
}

// Archiver receives finished polls for percentage computation and
// archival.
type Archiver interface {
	Append(ctx context.Context, finished *domain.Poll, endedAt time.Time) (domain.HistoryRecord, error)
}

// Service is the poll state machine. Lifecycle:
//
//	Empty -> Created -> Active -> Ended -> Empty
//
// Ended is transient: ending a poll archives it and clears the current
// slot in one step.
type Service struct {
	mu              sync.Mutex
	out             Broadcaster
	archive         Archiver
	sched           *Scheduler
	log             *logger.Logger
	now             func() time.Time
	defaultDuration int

	current *domain.Poll
	voters  map[string]struct{} // connection ids that voted on the current poll
}

// NewService creates the poll service. defaultDuration is in seconds
// and applies when a create request carries none.
func NewService(out Broadcaster, archive Archiver, defaultDuration int, log *logger.Logger) *Service {
	if defaultDuration <= 0 {
		defaultDuration = domain.DefaultPollDuration
	}
	s := &Service{
		out:             out,
		archive:         archive,
		log:             log,
		now:             time.Now,
		defaultDuration: defaultDuration,
	}
	s.sched = NewScheduler(s.expire)
	return s
}

// Create replaces the current slot with a new poll in state Created and
// broadcasts it along with an all-zero vote snapshot. An in-flight
// active poll is force-ended and archived first, never silently
// dropped.
func (s *Service) Create(req *domain.CreatePollRequest) (*domain.Poll, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Question == "" || len(req.Options) < 2 {
		return nil, apperrors.NewInvalidPayload("Invalid poll payload")
	}
	for _, o := range req.Options {
		if o.Text == "" {
			return nil, apperrors.NewInvalidPayload("Every option needs text")
		}
	}

	if s.current != nil && s.current.StartedAt != nil {
		s.endLocked("replaced")
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	duration := req.Duration
	if duration <= 0 {
		duration = s.defaultDuration
	}

	options := lo.Map(req.Options, func(o domain.CreateOptionRequest, idx int) domain.Option {
		optionID := idx + 1
		if o.ID != nil {
			optionID = *o.ID
		}
		return domain.Option{ID: optionID, Text: o.Text}
	})

	s.current = &domain.Poll{
		ID:        id,
		Question:  req.Question,
		Options:   options,
		Duration:  duration,
		CreatedAt: s.now(),
	}
	s.voters = make(map[string]struct{})

	s.log.Info("poll created",
		zap.String("poll_id", id),
		zap.Int("options", len(options)),
		zap.Int("duration_seconds", duration))

	s.out.Broadcast(domain.EventPollCreated, domain.PollEvent{Poll: s.copyLocked()})
	s.broadcastVotesLocked()
	return s.copyLocked(), nil
}

// Start transitions the current poll to Active and arms its expiry
// timer. Starting again re-arms the timer from now.
func (s *Service) Start(pollID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != pollID {
		return apperrors.NewNoActivePoll("No poll to start")
	}

	startedAt := s.now()
	s.current.StartedAt = &startedAt
	s.sched.Arm(s.current.ID, time.Duration(s.current.Duration)*time.Second)

	s.log.Info("poll started",
		zap.String("poll_id", s.current.ID),
		zap.Int("duration_seconds", s.current.Duration))

	s.out.Broadcast(domain.EventPollStarted, domain.PollEvent{Poll: s.copyLocked()})
	s.broadcastVotesLocked()
	return nil
}

// SubmitVote counts one vote from the given connection. Each connection
// gets at most one accepted vote per poll; repeats are rejected without
// touching the counts.
func (s *Service) SubmitVote(pollID string, optionID int, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != pollID {
		return apperrors.NewInvalidPoll("Invalid poll")
	}
	if s.current.StartedAt == nil {
		return apperrors.NewInvalidPoll("Poll has not started")
	}
	if _, voted := s.voters[connectionID]; voted {
		return apperrors.NewAlreadyVoted("You have already voted on this poll")
	}

	idx := -1
	for i := range s.current.Options {
		if s.current.Options[i].ID == optionID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return apperrors.NewInvalidOption("Invalid option")
	}

	s.current.Options[idx].Votes++
	s.voters[connectionID] = struct{}{}

	s.out.SendTo(connectionID, domain.EventAnswerAccepted, domain.AnswerAcceptedEvent{
		PollID:   pollID,
		OptionID: optionID,
	})
	s.broadcastVotesLocked()
	return nil
}

// End force-ends the current poll. A no-op when the slot is empty or
// the id does not match; an empty pollID ends whatever is current.
func (s *Service) End(pollID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || (pollID != "" && s.current.ID != pollID) {
		return
	}
	s.endLocked(reason)
}

// Current returns a copy of the current poll with its derived state
// label, or a nil poll when the slot is empty.
func (s *Service) Current() domain.CurrentPollEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return domain.CurrentPollEvent{}
	}
	cp := s.copyLocked()
	return domain.CurrentPollEvent{Poll: cp, State: cp.State()}
}

// Stop cancels any outstanding expiry timer. Used on shutdown.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.sched.Cancel(s.current.ID)
	}
}

// expire is the scheduler callback. Poll identity is re-checked under
// the lock: a timer that outlived its poll must not end a successor.
func (s *Service) expire(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil || s.current.ID != pollID {
		return
	}
	s.endLocked("expired")
}

// endLocked broadcasts the final results, archives the poll, sends the
// last vote snapshot, and clears the current slot.
func (s *Service) endLocked(reason string) {
	finished := s.current
	s.sched.Cancel(finished.ID)

	results, total := domain.Tally(finished.Options)
	s.out.Broadcast(domain.EventPollEnded, domain.PollEndedEvent{
		PollID:  finished.ID,
		Options: results,
	})

	if _, err := s.archive.Append(context.Background(), finished, s.now()); err != nil {
		s.log.WithError(err).Error("failed to archive finished poll",
			zap.String("poll_id", finished.ID))
	}

	s.broadcastVotesLocked()

	s.log.Info("poll ended",
		zap.String("poll_id", finished.ID),
		zap.String("reason", reason),
		zap.Int("total_votes", total))

	s.current = nil
	s.voters = nil
}

// broadcastVotesLocked sends the derived vote snapshot for the current
// poll to every connection.
func (s *Service) broadcastVotesLocked() {
	if s.current == nil {
		return
	}
	results, total := domain.Tally(s.current.Options)
	s.out.Broadcast(domain.EventVotesUpdate, domain.VoteSnapshot{
		PollID:  s.current.ID,
		Options: results,
		Total:   total,
	})
}

// copyLocked returns a deep copy safe to hand outside the lock.
func (s *Service) copyLocked() *domain.Poll {
	cp := *s.current
	cp.Options = make([]domain.Option, len(s.current.Options))
	copy(cp.Options, s.current.Options)
	return &cp
}
