package archive

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollroom/internal/domain"
	"pollroom/pkg/logger"
	"pollroom/pkg/redis"
)

func newRedisStore(t *testing.T, cap int) *RedisStore {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := redis.NewClient("redis://"+mr.Addr(), "test", logger.NewNop().Logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, cap)
}

func finishedPoll(id string, votes ...int) *domain.Poll {
	options := make([]domain.Option, len(votes))
	for i, v := range votes {
		options[i] = domain.Option{ID: i + 1, Text: fmt.Sprintf("Option %d", i+1), Votes: v}
	}
	started := time.Now().Add(-time.Minute).UTC().Truncate(time.Second)
	return &domain.Poll{
		ID:        id,
		Question:  "Pick one",
		Options:   options,
		Duration:  60,
		CreatedAt: started.Add(-time.Minute),
		StartedAt: &started,
	}
}

func TestServiceAppendComputesPercentages(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(50),
		"redis":  newRedisStore(t, 50),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, 50, logger.NewNop())

			endedAt := time.Now().UTC().Truncate(time.Second)
			record, err := svc.Append(context.Background(), finishedPoll("p1", 2, 1), endedAt)
			require.NoError(t, err)

			assert.Equal(t, 67, record.Options[0].Percentage)
			assert.Equal(t, 33, record.Options[1].Percentage)

			listed, err := svc.List(context.Background())
			require.NoError(t, err)
			require.Len(t, listed, 1)
			assert.Equal(t, record.ID, listed[0].ID)
			assert.Equal(t, record.Options, listed[0].Options)
		})
	}
}

func TestListIsMostRecentFirst(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(50),
		"redis":  newRedisStore(t, 50),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			svc := NewService(store, 50, logger.NewNop())
			ctx := context.Background()

			for i := 1; i <= 3; i++ {
				_, err := svc.Append(ctx, finishedPoll(fmt.Sprintf("p%d", i), i, 0), time.Now().UTC())
				require.NoError(t, err)
			}

			listed, err := svc.List(ctx)
			require.NoError(t, err)
			require.Len(t, listed, 3)
			assert.Equal(t, "p3", listed[0].ID)
			assert.Equal(t, "p2", listed[1].ID)
			assert.Equal(t, "p1", listed[2].ID)
		})
	}
}

func TestStoreCapsRetention(t *testing.T) {
	stores := map[string]Store{
		"memory": NewMemoryStore(3),
		"redis":  newRedisStore(t, 3),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			for i := 1; i <= 5; i++ {
				results, _ := domain.Tally([]domain.Option{{ID: 1, Text: "A", Votes: i}})
				err := store.Prepend(ctx, domain.HistoryRecord{
					ID:      fmt.Sprintf("p%d", i),
					Options: results,
					EndedAt: time.Now().UTC(),
				})
				require.NoError(t, err)
			}

			listed, err := store.List(ctx, 50)
			require.NoError(t, err)
			require.Len(t, listed, 3, "oldest records drop past the cap")
			assert.Equal(t, "p5", listed[0].ID)
			assert.Equal(t, "p3", listed[2].ID)
		})
	}
}

func TestListHonorsLimit(t *testing.T) {
	store := NewMemoryStore(50)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		require.NoError(t, store.Prepend(ctx, domain.HistoryRecord{ID: fmt.Sprintf("p%d", i)}))
	}

	listed, err := store.List(ctx, 4)
	require.NoError(t, err)
	require.Len(t, listed, 4)
	assert.Equal(t, "p10", listed[0].ID)
}

func TestListCopyIsImmutable(t *testing.T) {
	store := NewMemoryStore(50)
	ctx := context.Background()

	require.NoError(t, store.Prepend(ctx, domain.HistoryRecord{ID: "p1", Question: "original"}))

	listed, err := store.List(ctx, 10)
	require.NoError(t, err)
	listed[0].Question = "mutated"

	again, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "original", again[0].Question)
}
