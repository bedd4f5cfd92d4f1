package api

import (
	"sync"

	"stoprouter/internal/session"
)

// EventBroker fans session events out to subscribers. It satisfies
// session.Publisher.
type EventBroker interface {
	Subscribe(sessionID string) chan session.Event
	Unsubscribe(sessionID string, ch chan session.Event)
	Publish(sessionID string, evt session.Event)
}

// Broker is the in-process EventBroker. Slow subscribers miss events rather
// than block publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan session.Event]struct{} // sessionId -> set of channels
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan session.Event]struct{}{}}
}

func (b *Broker) Subscribe(sessionID string) chan session.Event {
	ch := make(chan session.Event, 8)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = map[chan session.Event]struct{}{}
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(sessionID string, ch chan session.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[sessionID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, sessionID)
	}
	close(ch)
}

func (b *Broker) Publish(sessionID string, evt session.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[sessionID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
