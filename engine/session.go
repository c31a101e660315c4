package engine

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// State of the swipe decision machine for one presented card.
type State int

const (
	// StatePresented: the candidate is shown, no gesture in progress.
	StatePresented State = iota
	// StateDeciding: a drag is in progress; feedback only, no writes.
	StateDeciding
	// StateResolved: a terminal like/pass was chosen; the ledger append is
	// in flight. Transient — observers normally see Presented or Dismissed.
	StateResolved
	// StateDismissed: the decision persisted and the card is gone.
	StateDismissed
)

func (s State) String() string {
	switch s {
	case StatePresented:
		return "presented"
	case StateDeciding:
		return "deciding"
	case StateResolved:
		return "resolved"
	case StateDismissed:
		return "dismissed"
	}
	return "unknown"
}

// Decision is the outcome of a gesture release.
type Decision int

const (
	DecisionNone Decision = iota
	DecisionLiked
	DecisionPassed
)

// Gesture geometry, matching the card UI contract.
const (
	// DragThreshold is the horizontal offset magnitude at which releasing
	// a drag commits a decision; below it the card snaps back.
	DragThreshold = 100.0
	// dragRange is the offset at which the card reaches full rotation and
	// fades out completely.
	dragRange = 200.0
	// maxRotationDeg is the card tilt at dragRange.
	maxRotationDeg = 25.0
	// opacityFadeStart is where opacity begins dropping toward dragRange.
	opacityFadeStart = 150.0
)

// CardTransform is provisional visual feedback for an in-flight drag:
// tilt and fade proportional to horizontal offset. Pure math, no side effects.
type CardTransform struct {
	Rotation float64 `json:"rotation"`
	Opacity  float64 `json:"opacity"`
}

func transformFor(offset float64) CardTransform {
	clamped := offset
	if clamped > dragRange {
		clamped = dragRange
	} else if clamped < -dragRange {
		clamped = -dragRange
	}

	t := CardTransform{
		Rotation: clamped / dragRange * maxRotationDeg,
		Opacity:  1,
	}
	abs := clamped
	if abs < 0 {
		abs = -abs
	}
	if abs > opacityFadeStart {
		t.Opacity = 1 - (abs-opacityFadeStart)/(dragRange-opacityFadeStart)
	}
	return t
}

// Session drives one user's browsing flow: it holds the current candidate
// batch, the cursor into it, and one Card — the decision state machine
// instance for the candidate on top. A session is confined to a single
// goroutine; the only cross-session synchronization lives in the stores and
// the match detector.
type Session struct {
	ID     uuid.UUID
	userID int
	limit  int

	queue  *CandidateQueue
	ledger *Ledger
	bus    *EventBus

	batch  []Profile
	cursor int
	card   *Card
}

func NewSession(userID, limit int, queue *CandidateQueue, ledger *Ledger, bus *EventBus) *Session {
	return &Session{
		ID:     uuid.New(),
		userID: userID,
		limit:  limit,
		queue:  queue,
		ledger: ledger,
		bus:    bus,
	}
}

// Start fetches the initial batch and presents its first candidate.
func (s *Session) Start(ctx context.Context) error {
	return s.fetchBatch(ctx)
}

// Refresh re-fetches the batch. It exists for the explicit user action after
// queue_exhausted; the session never retries an exhausted pool on its own.
// Undecided candidates from the discarded batch may reappear — judged ones
// cannot, because the queue re-evaluates exclusions against the ledger.
func (s *Session) Refresh(ctx context.Context) error {
	return s.fetchBatch(ctx)
}

func (s *Session) fetchBatch(ctx context.Context) error {
	batch, err := s.queue.NextBatch(ctx, s.userID, s.limit)
	if err != nil {
		return err
	}
	s.batch = batch
	s.cursor = 0
	s.present()
	return nil
}

// Current returns the card on top, or nil when the queue is drained.
func (s *Session) Current() *Card {
	return s.card
}

// present puts a fresh Card on top, or announces exhaustion.
func (s *Session) present() {
	if s.cursor < len(s.batch) {
		s.card = &Card{session: s, profile: s.batch[s.cursor], state: StatePresented}
		if s.bus != nil {
			s.bus.Publish(s.userID, Event{Type: EventCandidatePresented, Candidate: &s.card.profile})
		}
		return
	}
	s.card = nil
	if s.bus != nil {
		s.bus.Publish(s.userID, Event{Type: EventQueueExhausted})
	}
}

// advance moves past the dismissed card. The caller has already waited for
// its ledger append to settle, so the next candidate is never presented with
// the exclusion set out of sync with presentation order.
func (s *Session) advance() {
	s.cursor++
	s.present()
}

// End abandons the session. A drag in progress is discarded with no ledger
// write; only fully resolved decisions persist.
func (s *Session) End() {
	s.batch = nil
	s.cursor = 0
	s.card = nil
}

// Card is the decision state machine instance for one presented candidate.
// Exactly one terminal like/pass decision can pass through it; once it is
// dismissed, every further resolution attempt is rejected, so repeated
// gesture-end events or double-taps cannot write twice or spill onto the
// next candidate.
type Card struct {
	session *Session
	profile Profile
	state   State
	offset  float64
}

// Profile returns the candidate shown on this card.
func (c *Card) Profile() Profile {
	return c.profile
}

// State reports the decision machine's current state.
func (c *Card) State() State {
	return c.state
}

// Drag feeds a gesture sample. It moves the machine into Deciding and
// returns the provisional transform; nothing is written.
func (c *Card) Drag(offset float64) (CardTransform, error) {
	if c.state != StatePresented && c.state != StateDeciding {
		return CardTransform{}, ErrAlreadyDecided
	}
	c.state = StateDeciding
	c.offset = offset
	return transformFor(offset), nil
}

// Release ends a drag. At or beyond the threshold it commits a like
// (rightward) or a pass (leftward); short of it the card reverts to
// Presented with no decision recorded. Releasing without a drag is a no-op.
func (c *Card) Release(ctx context.Context) (Decision, error) {
	if c.state == StatePresented {
		return DecisionNone, nil
	}
	if c.state != StateDeciding {
		return DecisionNone, ErrAlreadyDecided
	}

	offset := c.offset
	c.offset = 0
	switch {
	case offset >= DragThreshold:
		if err := c.resolve(ctx, true); err != nil {
			return DecisionNone, err
		}
		return DecisionLiked, nil
	case offset <= -DragThreshold:
		if err := c.resolve(ctx, false); err != nil {
			return DecisionNone, err
		}
		return DecisionPassed, nil
	default:
		c.state = StatePresented
		return DecisionNone, nil
	}
}

// Like resolves the card immediately, bypassing the drag threshold.
func (c *Card) Like(ctx context.Context) error {
	return c.resolve(ctx, true)
}

// Pass resolves the card immediately, bypassing the drag threshold.
func (c *Card) Pass(ctx context.Context) error {
	return c.resolve(ctx, false)
}

// resolve performs the single Resolved -> Dismissed side effect: exactly one
// ledger append, then the session's cursor advances. Failure classes:
//
//   - duplicate pair: the decision already exists somewhere; treat the card
//     as dismissed and advance, no user-visible error.
//   - profile vanished (stale batch): skip the candidate and advance.
//   - I/O failure: revert to Presented so the decision is not lost; the
//     caller retries this one write, not the batch.
func (c *Card) resolve(ctx context.Context, liked bool) error {
	if c.state != StatePresented && c.state != StateDeciding {
		return ErrAlreadyDecided
	}
	c.state = StateResolved

	s := c.session
	_, err := s.ledger.Record(ctx, s.userID, c.profile.ID, liked)
	switch {
	case err == nil:
		if s.bus != nil {
			l := liked
			s.bus.Publish(s.userID, Event{
				Type:        EventDecisionMade,
				CandidateID: c.profile.ID,
				Liked:       &l,
			})
		}
	case errors.Is(err, ErrDuplicateSwipe), errors.Is(err, ErrNotFound):
		// Recovered locally; fall through to dismissal without an event.
	default:
		c.state = StatePresented
		return err
	}

	c.state = StateDismissed
	s.advance()
	return nil
}
