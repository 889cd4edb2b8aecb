package poll

import (
	"sync"
	"time"
)

// Scheduler owns at most one outstanding expiry timer, tagged with the
// poll id it guards. Arming replaces and cancels any previous timer, so
// a timer armed for a replaced poll can never fire against its
// successor; the fire callback additionally re-checks poll identity
// under the service lock.
type Scheduler struct {
	mu     sync.Mutex
	timer  *time.Timer
	pollID string
	fire   func(pollID string)
}

// NewScheduler creates a scheduler invoking fire when a timer expires.
func NewScheduler(fire func(pollID string)) *Scheduler {
	return &Scheduler{fire: fire}
}

// Arm schedules expiry of the given poll after d, cancelling any
// previously armed timer.
func (s *Scheduler) Arm(pollID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}
	s.pollID = pollID
	s.timer = time.AfterFunc(d, func() {
		s.expired(pollID)
	})
}

// Cancel stops the outstanding timer if it guards the given poll.
func (s *Scheduler) Cancel(pollID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pollID != pollID {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pollID = ""
}

// expired runs on the timer goroutine. The stale check drops timers
// that lost a race with Arm or Cancel after already firing; fire is
// called outside the scheduler lock so it can take the service lock.
func (s *Scheduler) expired(pollID string) {
	s.mu.Lock()
	stale := s.pollID != pollID
	if !stale {
		s.timer = nil
		s.pollID = ""
	}
	s.mu.Unlock()

	if !stale {
		s.fire(pollID)
	}
}
