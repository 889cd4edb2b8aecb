package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pollroom/internal/archive"
	"pollroom/internal/domain"
	"pollroom/internal/poll"
	"pollroom/internal/session"
	"pollroom/pkg/logger"
)

func newSocketServer(t *testing.T, allowedOrigins []string) (*httptest.Server, *poll.Service) {
	t.Helper()
	log := logger.NewNop()
	hub := session.NewHub(log)
	archiveSvc := archive.NewService(archive.NewMemoryStore(50), 50, log)
	polls := poll.NewService(hub, archiveSvc, 60, log)
	coordinator := session.NewCoordinator(hub, polls, archiveSvc, log)

	sh := NewSocketHandler(coordinator, allowedOrigins, log)
	srv := httptest.NewServer(http.HandlerFunc(sh.Serve))
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	t.Cleanup(polls.Stop)
	return srv, polls
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readEvent reads frames until one matches the wanted event name.
func readEvent(t *testing.T, conn *websocket.Conn, want string) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	require.NoError(t, conn.SetReadDeadline(deadline))
	for {
		var env domain.Envelope
		require.NoError(t, conn.ReadJSON(&env), "waiting for %s", want)
		if env.Event == want {
			return env.Data
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		data = raw
	}
	require.NoError(t, conn.WriteJSON(domain.Envelope{Event: event, Data: data}))
}

func TestSocketJoinRoundTrip(t *testing.T) {
	srv, _ := newSocketServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	send(t, conn, domain.EventParticipantJoin, domain.JoinRequest{Name: "Priya", Role: "student"})

	var ack domain.ConnectedEvent
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventConnected), &ack))
	assert.NotEmpty(t, ack.ConnectionID)

	var roster []domain.Participant
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventParticipantsUpdate), &roster))
	found := false
	for _, p := range roster {
		if p.Name == "Priya" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSocketVoteRoundTrip(t *testing.T) {
	srv, polls := newSocketServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	send(t, conn, domain.EventCreatePoll, domain.CreatePollRequest{
		ID:       "p1",
		Question: "Pick one",
		Options:  []domain.CreateOptionRequest{{Text: "A"}, {Text: "B"}},
		Duration: 600,
	})

	var created domain.PollEvent
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventPollCreated), &created))
	assert.Equal(t, "p1", created.Poll.ID)

	send(t, conn, domain.EventStartPoll, domain.StartPollRequest{PollID: "p1"})
	readEvent(t, conn, domain.EventPollStarted)

	send(t, conn, domain.EventSubmitAnswer, domain.SubmitAnswerRequest{PollID: "p1", OptionID: 2})

	var ack domain.AnswerAcceptedEvent
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventAnswerAccepted), &ack))
	assert.Equal(t, 2, ack.OptionID)

	var snapshot domain.VoteSnapshot
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventVotesUpdate), &snapshot))
	assert.Equal(t, 1, snapshot.Total)

	current := polls.Current()
	require.NotNil(t, current.Poll)
	assert.Equal(t, 1, current.Poll.Options[1].Votes)
}

func TestSocketMalformedFrameGetsError(t *testing.T) {
	srv, _ := newSocketServer(t, []string{"*"})

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))

	var errEvent domain.ErrorEvent
	require.NoError(t, json.Unmarshal(readEvent(t, conn, domain.EventError), &errEvent))
	assert.Equal(t, "invalid_payload", errEvent.Type)
}

func TestSocketRejectsDisallowedOrigin(t *testing.T) {
	srv, _ := newSocketServer(t, []string{"http://allowed.example"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	if conn != nil {
		conn.Close()
	}
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSocketAllowsConfiguredOrigin(t *testing.T) {
	srv, _ := newSocketServer(t, []string{"http://allowed.example"})

	header := http.Header{"Origin": []string{"http://allowed.example"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	conn.Close()
}
