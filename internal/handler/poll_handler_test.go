package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollroom/internal/archive"
	"pollroom/internal/domain"
	"pollroom/internal/poll"
	"pollroom/internal/session"
	"pollroom/pkg/logger"
)

func newTestStack(t *testing.T) (*poll.Service, *archive.Service) {
	t.Helper()
	log := logger.NewNop()
	hub := session.NewHub(log)
	archiveSvc := archive.NewService(archive.NewMemoryStore(50), 50, log)
	return poll.NewService(hub, archiveSvc, 60, log), archiveSvc
}

func TestGetCurrentReturns404WhenNoPoll(t *testing.T) {
	polls, archiveSvc := newTestStack(t)
	h := NewPollHandler(polls, archiveSvc, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/polls/current", nil)
	rec := httptest.NewRecorder()
	h.GetCurrent(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"]["type"])
}

func TestGetCurrentReturnsLivePoll(t *testing.T) {
	polls, archiveSvc := newTestStack(t)
	h := NewPollHandler(polls, archiveSvc, logger.NewNop())

	_, err := polls.Create(&domain.CreatePollRequest{
		ID:       "p1",
		Question: "Pick one",
		Options:  []domain.CreateOptionRequest{{Text: "A"}, {Text: "B"}},
	})
	require.NoError(t, err)
	require.NoError(t, polls.Start("p1"))

	req := httptest.NewRequest(http.MethodGet, "/polls/current", nil)
	rec := httptest.NewRecorder()
	h.GetCurrent(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var current domain.CurrentPollEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &current))
	require.NotNil(t, current.Poll)
	assert.Equal(t, "p1", current.Poll.ID)
	assert.Equal(t, domain.PollStateActive, current.State)
	assert.Len(t, current.Poll.Options, 2)
}

func TestGetHistoryReturnsArchivedPolls(t *testing.T) {
	polls, archiveSvc := newTestStack(t)
	h := NewPollHandler(polls, archiveSvc, logger.NewNop())

	_, err := polls.Create(&domain.CreatePollRequest{
		ID:       "p1",
		Question: "Pick one",
		Options:  []domain.CreateOptionRequest{{Text: "A"}, {Text: "B"}},
		Duration: 600,
	})
	require.NoError(t, err)
	require.NoError(t, polls.Start("p1"))
	require.NoError(t, polls.SubmitVote("p1", 1, "conn-a"))
	polls.End("p1", "advance")

	req := httptest.NewRequest(http.MethodGet, "/polls/history", nil)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.HistoryEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.History, 1)
	assert.Equal(t, "p1", body.History[0].ID)
	assert.Equal(t, 1, body.History[0].TotalVotes)
	assert.Equal(t, 100, body.History[0].Options[0].Percentage)
	assert.WithinDuration(t, time.Now(), body.History[0].EndedAt, 5*time.Second)
}

func TestGetHistoryEmpty(t *testing.T) {
	polls, archiveSvc := newTestStack(t)
	h := NewPollHandler(polls, archiveSvc, logger.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/polls/history", nil)
	rec := httptest.NewRecorder()
	h.GetHistory(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body domain.HistoryEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.History)
}
