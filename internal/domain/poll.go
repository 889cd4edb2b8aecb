package domain

import (
	"math"
	"time"

	"github.com/samber/lo"
)

// PollState is the derived lifecycle label of the current poll.
type PollState string

const (
	PollStateCreated PollState = "created"
	PollStateActive  PollState = "active"
)

// DefaultPollDuration is used when a create request carries no duration.
const DefaultPollDuration = 60

// Option is one answer choice of a poll. Votes only move while the poll
// is active and are frozen once it ends.
type Option struct {
	ID    int    `json:"id"`
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is the single system-wide poll instance. StartedAt stays nil
// until the teacher starts it.
type Poll struct {
	ID        string     `json:"id"`
	Question  string     `json:"question"`
	Options   []Option   `json:"options"`
	Duration  int        `json:"duration"` // seconds
	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt"`
}

// State returns the lifecycle label for the poll snapshot sent to clients.
func (p *Poll) State() PollState {
	if p.StartedAt != nil {
		return PollStateActive
	}
	return PollStateCreated
}

// OptionResult is an option with its derived share of the total votes.
// The same shape serves live vote snapshots and archived history.
type OptionResult struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// HistoryRecord is an immutable summary of a finished poll.
type HistoryRecord struct {
	ID         string         `json:"id"`
	Question   string         `json:"question"`
	Options    []OptionResult `json:"options"`
	TotalVotes int            `json:"totalVotes"`
	CreatedAt  time.Time      `json:"createdAt"`
	StartedAt  *time.Time     `json:"startedAt"`
	EndedAt    time.Time      `json:"endedAt"`
}

// Tally projects options onto their results with integer percentages
// (nearest, ties away from zero) and returns the vote total. A zero
// total yields zero percentages across the board.
func Tally(options []Option) ([]OptionResult, int) {
	total := lo.SumBy(options, func(o Option) int { return o.Votes })

	results := lo.Map(options, func(o Option, _ int) OptionResult {
		pct := 0
		if total > 0 {
			pct = int(math.Round(float64(o.Votes) / float64(total) * 100))
		}
		return OptionResult{
			ID:         o.ID,
			Text:       o.Text,
			Votes:      o.Votes,
			Percentage: pct,
		}
	})

	return results, total
}
