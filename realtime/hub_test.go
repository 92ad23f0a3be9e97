package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"campus-canteen-api/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func recv(t *testing.T, s *Session) Event {
	t.Helper()
	select {
	case ev := <-s.Events():
		return ev
	default:
		t.Fatalf("no event queued for session %s", s.ID)
	}
	return Event{}
}

func register(t *testing.T, h *Hub, p models.Principal) *Session {
	t.Helper()
	s, err := h.Register(p)
	require.NoError(t, err)
	return s
}

func assertEmpty(t *testing.T, s *Session) {
	t.Helper()
	select {
	case ev := <-s.Events():
		t.Fatalf("unexpected event %q", ev.Name)
	default:
	}
}

func TestHub_BroadcastReachesEverySession(t *testing.T) {
	h := NewHub(quiet, nil)
	a := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	b := register(t, h, models.Principal{ID: 1, Role: models.RoleAdmin})
	require.Equal(t, 2, h.Count())

	h.Broadcast(EventNewOrder, map[string]any{"id": 9})

	assert.Equal(t, EventNewOrder, recv(t, a).Name)
	assert.Equal(t, EventNewOrder, recv(t, b).Name)
}

func TestHub_TopicOnlyReachesJoined(t *testing.T) {
	h := NewHub(quiet, nil)
	tracker := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	other := register(t, h, models.Principal{ID: 2, Role: models.RoleStudent})

	require.NoError(t, h.Join(tracker.ID, OrderTopic(5)))
	h.PublishTopic(OrderTopic(5), EventDeliveryLocation, map[string]float64{"latitude": 13.6})

	ev := recv(t, tracker)
	assert.Equal(t, "order:5", ev.Topic)
	assertEmpty(t, other)

	require.NoError(t, h.Leave(tracker.ID, OrderTopic(5)))
	h.PublishTopic(OrderTopic(5), EventDeliveryLocation, nil)
	assertEmpty(t, tracker)

	assert.ErrorIs(t, h.Join("nope", OrderTopic(5)), ErrUnknownSession)
}

func TestHub_FullSubscriberDropsInsteadOfBlocking(t *testing.T) {
	h := NewHub(quiet, nil)
	s := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	for i := 0; i < sessionBuffer+5; i++ {
		h.Broadcast(EventMenuItemUpdated, i)
	}
	assert.Equal(t, uint64(5), h.Dropped())
	assert.Len(t, s.events, sessionBuffer)
}

func TestHub_UnregisterClosesStream(t *testing.T) {
	h := NewHub(quiet, nil)
	s := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	h.Unregister(s.ID)
	h.Unregister(s.ID)

	_, open := <-s.Events()
	assert.False(t, open)
	assert.Zero(t, h.Count())
	h.Broadcast(EventNewOrder, nil) // must not panic on closed channel
}

func TestHub_ConcurrentPublishAndUnregister(t *testing.T) {
	h := NewHub(quiet, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		s := register(t, h, models.Principal{ID: uint(i), Role: models.RoleStudent})
		wg.Add(2)
		go func() { defer wg.Done(); h.Broadcast(EventNewOrder, nil) }()
		go func() { defer wg.Done(); h.Unregister(s.ID) }()
	}
	wg.Wait()
	assert.Zero(t, h.Count())
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestHub_MirrorsBroadcastsToKafka(t *testing.T) {
	w := &fakeWriter{}
	h := NewHub(quiet, &KafkaMirror{w: w, log: quiet})

	h.Broadcast(EventOrderRemoved, map[string]uint{"id": 3})
	h.PublishTopic(OrderTopic(3), EventTrackedStatus, nil) // topic events stay local

	require.Len(t, w.msgs, 1)
	assert.Equal(t, EventOrderRemoved, string(w.msgs[0].Key))
	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventOrderRemoved, ev.Name)
}

func TestHub_CloseEndsAllSessions(t *testing.T) {
	h := NewHub(quiet, nil)
	a := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	b := register(t, h, models.Principal{ID: 2, Role: models.RoleAdmin})

	h.Close()
	assert.Equal(t, 0, h.Count())
	for _, s := range []*Session{a, b} {
		_, open := <-s.Events()
		assert.False(t, open)
	}
	// late unregister from a stream handler is a no-op
	h.Unregister(a.ID)
	h.Broadcast(EventMenuCleared, nil)

	_, err := h.Register(models.Principal{ID: 3, Role: models.RoleStudent})
	assert.ErrorIs(t, err, ErrHubClosed)
	assert.Equal(t, 0, h.Count())
}

func TestHub_SendTargetsOneSession(t *testing.T) {
	h := NewHub(quiet, nil)
	a := register(t, h, models.Principal{ID: 1, Role: models.RoleStudent})
	b := register(t, h, models.Principal{ID: 2, Role: models.RoleStudent})

	require.NoError(t, h.Send(a.ID, EventConnected, map[string]any{"sessionId": a.ID}))
	assert.Equal(t, EventConnected, recv(t, a).Name)
	assertEmpty(t, b)

	assert.ErrorIs(t, h.Send("nope", EventConnected, nil), ErrUnknownSession)
}
