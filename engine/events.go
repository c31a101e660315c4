package engine

import "sync"

// Event types surfaced to UI sessions.
const (
	EventCandidatePresented = "candidate_presented"
	EventDecisionMade       = "decision_made"
	EventMatchFound         = "match_found"
	EventQueueExhausted     = "queue_exhausted"
)

// Event is one engine-to-UI notification. Fields are populated per type:
// candidate_presented carries Candidate, decision_made carries CandidateID
// and Liked, match_found carries OtherUserID, queue_exhausted carries nothing.
type Event struct {
	Type        string   `json:"type"`
	Candidate   *Profile `json:"candidate,omitempty"`
	CandidateID int      `json:"candidate_id,omitempty"`
	Liked       *bool    `json:"liked,omitempty"`
	OtherUserID int      `json:"other_user_id,omitempty"`
}

// EventBus fans engine events out to per-user subscribers. Channels are
// buffered and Publish drops when a subscriber's buffer is full, so a slow
// consumer can never stall a swipe.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[int]map[chan Event]bool
}

func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[int]map[chan Event]bool)}
}

// Subscribe registers for a user's events. The returned cleanup must be
// called when the consumer goes away; it closes the channel.
func (b *EventBus) Subscribe(userID int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 16)
	if b.subscribers[userID] == nil {
		b.subscribers[userID] = make(map[chan Event]bool)
	}
	b.subscribers[userID][ch] = true

	cleanup := func() {
		b.unsubscribe(userID, ch)
	}
	return ch, cleanup
}

func (b *EventBus) unsubscribe(userID int, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[userID]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subscribers, userID)
		}
	}
	close(ch)
}

// Publish delivers evt to every subscriber of userID.
func (b *EventBus) Publish(userID int, evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers[userID] {
		select {
		case ch <- evt:
		default:
			// Subscriber buffer full, drop rather than block the swipe path.
		}
	}
}
