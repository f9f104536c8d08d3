// Package notify carries book-change notifications from write paths to
// subscribed views (the SSE stream).
package notify

import "sync"

// Event kinds.
const (
	KindCreated = "created"
	KindCover   = "cover"
	KindChapter = "chapter"
	KindDeleted = "deleted"
)

type Event struct {
	BookID string `json:"bookId"`
	UserID string `json:"userId"`
	Kind   string `json:"kind"`
}

// Notifier is the injectable publish side.
type Notifier interface {
	BookChanged(ev Event)
}

// Broker is an in-process fan-out of events to per-user subscribers.
// Slow subscribers drop events rather than block publishers.
type Broker struct {
	mu   sync.Mutex
	subs map[chan Event]string
}

var _ Notifier = (*Broker)(nil)

func NewBroker() *Broker {
	return &Broker{subs: make(map[chan Event]string)}
}

// Subscribe registers a channel receiving events for the given user.
func (b *Broker) Subscribe(userID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = userID
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

func (b *Broker) BookChanged(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch, userID := range b.subs {
		if userID != ev.UserID {
			continue
		}
		select {
		case ch <- ev:
		default:
		}
	}
}
