package realtime

import (
	"errors"
	"log/slog"
	"sync"

	"campus-canteen-api/models"

	"github.com/google/uuid"
)

// sessionBuffer bounds how far a subscriber may fall behind before events
// are dropped for it.
const sessionBuffer = 32

var (
	ErrUnknownSession = errors.New("unknown realtime session")
	ErrHubClosed      = errors.New("realtime hub closed")
)

// Mirror receives a copy of every broadcast event
type Mirror interface {
	Mirror(ev Event)
}

// Session is one connected subscriber
type Session struct {
	ID        string
	Principal models.Principal

	events chan Event
	topics map[string]struct{}
	closed bool
}

// Events is closed when the session is unregistered
func (s *Session) Events() <-chan Event { return s.events }

// Hub is the single in-process fan-out channel. Delivery is at-most-once.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	mirror   Mirror
	log      *slog.Logger
	dropped  uint64
	closed   bool
}

func NewHub(log *slog.Logger, mirror Mirror) *Hub {
	return &Hub{sessions: map[string]*Session{}, mirror: mirror, log: log}
}

// Register fails with ErrHubClosed once Close has run.
func (h *Hub) Register(p models.Principal) (*Session, error) {
	s := &Session{
		ID:        uuid.NewString(),
		Principal: p,
		events:    make(chan Event, sessionBuffer),
		topics:    map[string]struct{}{},
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	h.sessions[s.ID] = s
	h.mu.Unlock()
	h.log.Info("realtime session connected", "session", s.ID, "principal", p.ID, "role", p.Role)
	return s, nil
}

func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
		s.closed = true
		close(s.events)
	}
	h.mu.Unlock()
	if ok {
		h.log.Info("realtime session disconnected", "session", id)
	}
}

// Close ends every session, which ends their streams, and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.sessions {
		s.closed = true
		close(s.events)
		delete(h.sessions, id)
	}
}

// Session returns the live session with id
func (h *Hub) Session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

func (h *Hub) Join(sessionID, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	s.topics[topic] = struct{}{}
	return nil
}

func (h *Hub) Leave(sessionID, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[sessionID]
	if !ok {
		return ErrUnknownSession
	}
	delete(s.topics, topic)
	return nil
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Dropped is the number of events discarded because a subscriber was full
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

func (h *Hub) Broadcast(name string, payload any) {
	ev := Event{Name: name, Payload: payload}
	h.fanout(ev, func(*Session) bool { return true })
	if h.mirror != nil {
		h.mirror.Mirror(ev)
	}
}

func (h *Hub) PublishTopic(topic, name string, payload any) {
	ev := Event{Name: name, Topic: topic, Payload: payload}
	h.fanout(ev, func(s *Session) bool {
		_, ok := s.topics[topic]
		return ok
	})
}

// Send delivers to one session only
func (h *Hub) Send(sessionID string, name string, payload any) error {
	ev := Event{Name: name, Payload: payload}
	found := false
	h.fanout(ev, func(s *Session) bool {
		if s.ID == sessionID {
			found = true
			return true
		}
		return false
	})
	if !found {
		return ErrUnknownSession
	}
	return nil
}

// fanout holds the write lock so Unregister cannot close a channel mid-send
func (h *Hub) fanout(ev Event, match func(*Session) bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sessions {
		if s.closed || !match(s) {
			continue
		}
		select {
		case s.events <- ev:
		default:
			h.dropped++
			h.log.Warn("realtime subscriber full, dropping event", "session", s.ID, "event", ev.Name)
		}
	}
}
