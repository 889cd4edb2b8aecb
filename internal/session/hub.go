// Package session holds the live side of the engine: the connection
// registry, the broadcast dispatcher, and the coordinator that routes
// inbound commands.
package session

import (
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"

	"pollroom/internal/domain"
	"pollroom/pkg/logger"
)

type rosterEntry struct {
	participant domain.Participant
	seq         uint64 // registration order, used for display and kick-by-name tie-break
}

// Hub tracks every live connection and its participant identity, and
// fans typed events out to one or all of them. Delivery is best effort:
// a connection whose send buffer is full misses the event instead of
// blocking the rest.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	roster  map[string]*rosterEntry
	nextSeq uint64
	log     *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		roster:  make(map[string]*rosterEntry),
		log:     log,
	}
}

// Register adds a connection with a placeholder participant: generated
// name, student role. An explicit join command refines it later.
func (h *Hub) Register(c *Client) domain.Participant {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	p := domain.Participant{
		ConnectionID: c.ID,
		Name:         defaultName(c.ID),
		Role:         domain.RoleStudent,
	}
	h.clients[c.ID] = c
	h.roster[c.ID] = &rosterEntry{participant: p, seq: h.nextSeq}

	h.log.Debug("connection registered", zap.String("connection_id", c.ID))
	return p
}

// Unregister removes the connection and its participant entirely.
func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[connectionID]; ok {
		c.close()
		delete(h.clients, connectionID)
	}
	delete(h.roster, connectionID)

	h.log.Debug("connection unregistered", zap.String("connection_id", connectionID))
}

// Participant returns a copy of the participant bound to the connection.
func (h *Hub) Participant(connectionID string) (domain.Participant, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.roster[connectionID]
	if !ok {
		return domain.Participant{}, false
	}
	return entry.participant, true
}

// UpdateParticipant mutates the participant bound to the connection in
// place and reports whether it exists.
func (h *Hub) UpdateParticipant(connectionID string, update func(*domain.Participant)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.roster[connectionID]
	if !ok {
		return false
	}
	update(&entry.participant)
	return true
}

// FindByName resolves a participant by name. Ties break toward the
// earliest registration.
func (h *Hub) FindByName(name string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var (
		found   string
		bestSeq uint64
		ok      bool
	)
	for id, entry := range h.roster {
		if entry.participant.Name != name {
			continue
		}
		if !ok || entry.seq < bestSeq {
			found, bestSeq, ok = id, entry.seq, true
		}
	}
	return found, ok
}

// Roster returns all participants in registration order.
func (h *Hub) Roster() []domain.Participant {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entries := make([]*rosterEntry, 0, len(h.roster))
	for _, entry := range h.roster {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]domain.Participant, len(entries))
	for i, entry := range entries {
		out[i] = entry.participant
	}
	return out
}

// Broadcast sends the event to every connection. Payload marshalling
// happens once; the per-connection write order is preserved by each
// client's send queue.
func (h *Hub) Broadcast(event string, data interface{}) {
	env, err := envelope(event, data)
	if err != nil {
		h.log.WithError(err).Error("failed to encode broadcast", zap.String("event", event))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(env) {
			h.log.Warn("dropping event for slow connection",
				zap.String("event", event),
				zap.String("connection_id", c.ID))
		}
	}
}

// SendTo sends the event to a single connection and reports whether the
// connection exists and accepted it.
func (h *Hub) SendTo(connectionID string, event string, data interface{}) bool {
	env, err := envelope(event, data)
	if err != nil {
		h.log.WithError(err).Error("failed to encode event", zap.String("event", event))
		return false
	}

	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return c.enqueue(env)
}

// Close shuts down every connection. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
		delete(h.roster, id)
	}
}

func envelope(event string, data interface{}) (domain.Envelope, error) {
	env := domain.Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return domain.Envelope{}, err
		}
		env.Data = raw
	}
	return env, nil
}

// defaultName derives the placeholder participant name from the
// connection id.
func defaultName(connectionID string) string {
	short := connectionID
	if len(short) > 4 {
		short = short[:4]
	}
	return "User-" + short
}
