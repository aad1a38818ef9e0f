package services

import (
	"sync"
)

// subscriptionHub is the per-instance registry of live subscriptions. A
// subscription is an explicit handle: a channel of change events plus a
// release function the holder must call on every exit path (contact switch,
// connection teardown, error). Events carry no state the subscriber cannot
// re-fetch, so a full buffer just drops the extra wake-up; the pending event
// already forces a snapshot refresh.
type subscriptionHub struct {
	mu     sync.RWMutex
	topics map[string]map[int64]chan ChatEvent
	nextID int64
}

const subscriberBuffer = 16

var defaultHub = newSubscriptionHub()

func newSubscriptionHub() *subscriptionHub {
	return &subscriptionHub{topics: make(map[string]map[int64]chan ChatEvent)}
}

func (h *subscriptionHub) subscribe(topic string) (<-chan ChatEvent, func()) {
	ch := make(chan ChatEvent, subscriberBuffer)

	h.mu.Lock()
	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[int64]chan ChatEvent)
	}
	h.nextID++
	id := h.nextID
	h.topics[topic][id] = ch
	h.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			h.mu.Lock()
			if subs, ok := h.topics[topic]; ok {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.topics, topic)
				}
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, release
}

func (h *subscriptionHub) publish(topic string, evt ChatEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.topics[topic] {
		select {
		case ch <- evt:
		default:
			// Subscriber already has a wake-up pending; dropping is safe.
		}
	}
}

// SubscribeThread returns a live handle on a thread's change events. The
// returned release func must be called when the viewer switches contacts or
// tears down; it is safe to call more than once.
func SubscribeThread(threadID string) (<-chan ChatEvent, func()) {
	return defaultHub.subscribe(threadChannel(threadID))
}

// SubscribeInbox returns a live handle on a user's thread-list change events.
func SubscribeInbox(uid string) (<-chan ChatEvent, func()) {
	return defaultHub.subscribe(inboxChannel(uid))
}
