// Package realtimetest records published events for assertions.
package realtimetest

import (
	"sync"

	"campus-canteen-api/realtime"
)

type Recorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *Recorder) Broadcast(name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, realtime.Event{Name: name, Payload: payload})
}

func (r *Recorder) PublishTopic(topic, name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, realtime.Event{Name: name, Topic: topic, Payload: payload})
}

func (r *Recorder) Events() []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]realtime.Event(nil), r.events...)
}

// Names lists event names in publish order
func (r *Recorder) Names() []string {
	var out []string
	for _, ev := range r.Events() {
		out = append(out, ev.Name)
	}
	return out
}

// Last returns the most recent event called name
func (r *Recorder) Last(name string) (realtime.Event, bool) {
	evs := r.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Name == name {
			return evs[i], true
		}
	}
	return realtime.Event{}, false
}
