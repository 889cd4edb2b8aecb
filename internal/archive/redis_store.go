package archive

import (
	"context"
	"encoding/json"
	"fmt"

	"pollroom/internal/domain"
	"pollroom/pkg/redis"
)

// RedisStore keeps the archive in a redis list so a shared cache tier
// can serve history. Records are JSON, newest at the head.
type RedisStore struct {
	client *redis.Client
	key    string
	cap    int
}

// NewRedisStore creates a redis-backed store retaining at most cap records.
func NewRedisStore(client *redis.Client, cap int) *RedisStore {
	return &RedisStore{
		client: client,
		key:    client.KeyBuilder.KeyPollHistory(),
		cap:    cap,
	}
}

// Prepend pushes the record onto the list head and trims to the cap.
func (s *RedisStore) Prepend(ctx context.Context, record domain.HistoryRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}

	if err := s.client.LPush(ctx, s.key, payload); err != nil {
		return fmt.Errorf("push history record: %w", err)
	}

	if s.cap > 0 {
		if err := s.client.LTrim(ctx, s.key, 0, int64(s.cap)-1); err != nil {
			return fmt.Errorf("trim history: %w", err)
		}
	}
	return nil
}

// List returns up to limit records, most recent first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]domain.HistoryRecord, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.client.LRange(ctx, s.key, 0, stop)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	records := make([]domain.HistoryRecord, 0, len(raw))
	for _, item := range raw {
		var record domain.HistoryRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
