// Package archive owns the append-only record of ended polls. Final
// percentages are computed once, here, when a poll is archived.
package archive

import (
	"context"
	"time"

	"pollroom/internal/domain"
	"pollroom/pkg/logger"

	"go.uber.org/zap"
)

// Service archives finished polls and serves the capped history list.
type Service struct {
	store Store
	limit int
	log   *logger.Logger
}

// NewService creates an archive service serving at most limit records
// per request.
func NewService(store Store, limit int, log *logger.Logger) *Service {
	return &Service{store: store, limit: limit, log: log}
}

// Append freezes the finished poll into a HistoryRecord and prepends it
// to the archive.
func (s *Service) Append(ctx context.Context, finished *domain.Poll, endedAt time.Time) (domain.HistoryRecord, error) {
	results, total := domain.Tally(finished.Options)

	record := domain.HistoryRecord{
		ID:         finished.ID,
		Question:   finished.Question,
		Options:    results,
		TotalVotes: total,
		CreatedAt:  finished.CreatedAt,
		StartedAt:  finished.StartedAt,
		EndedAt:    endedAt,
	}

	if err := s.store.Prepend(ctx, record); err != nil {
		return domain.HistoryRecord{}, err
	}

	s.log.Info("poll archived",
		zap.String("poll_id", record.ID),
		zap.Int("total_votes", total),
		zap.Int("options", len(record.Options)))

	return record, nil
}

// List returns the most recent records, newest first.
func (s *Service) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	return s.store.List(ctx, s.limit)
}
