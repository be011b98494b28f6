package bus

import (
	"sync"
	"time"
)

// Topics published by the session and the cache endpoints.
const (
	TopicBundleLoaded        = "bundle.loaded"
	TopicAnalysisStarted     = "analysis.started"
	TopicAnalysisCompleted   = "analysis.completed"
	TopicAnalysisFailed      = "analysis.failed"
	TopicConversationMessage = "conversation.message"
	TopicCacheCleared        = "cache.cleared"
	TopicSessionState        = "session.state"
)

const subscriberBuffer = 64

// Event is a single broadcast message.
type Event struct {
	Topic string    `json:"topic"`
	Data  any       `json:"data"`
	Time  time.Time `json:"time"`
}

// Bus is an in-process publish/subscribe broadcaster. Publish never blocks;
// a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	subs   map[int64]chan Event
}

func New() *Bus {
	return &Bus{subs: make(map[int64]chan Event)}
}

// Subscribe registers a subscriber and returns its id and receive channel.
func (b *Bus) Subscribe() (int64, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	ch := make(chan Event, subscriberBuffer)
	b.subs[b.nextID] = ch
	return b.nextID, ch
}

// Unsubscribe removes the subscriber and closes its channel. Unknown ids
// are ignored.
func (b *Bus) Unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(topic string, data any) {
	ev := Event{Topic: topic, Data: data, Time: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
