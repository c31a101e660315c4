package engine

import (
	"context"
	"fmt"
)

// MatchDetector decides, after every new like, whether a mutual match now
// exists and materializes it at most once per pair.
//
// Atomicity: the existence check and the create are NOT atomic with each
// other here; instead the store's CreateMatch is an insert-or-ignore
// compare-and-create, so when likes A->B and B->A land near-simultaneously
// and both invocations observe the other's like, only one of them creates the
// row. That invocation alone emits the match_found events.
type MatchDetector struct {
	swipes  SwipeStore
	matches MatchStore
	bus     *EventBus
}

func NewMatchDetector(swipes SwipeStore, matches MatchStore, bus *EventBus) *MatchDetector {
	return &MatchDetector{swipes: swipes, matches: matches, bus: bus}
}

// OnLikeRecorded is invoked by the ledger after a liked=true record
// swiperID -> candidateID commits. It reports whether a mutual match exists
// after this like, regardless of which invocation created the row.
func (d *MatchDetector) OnLikeRecorded(ctx context.Context, swiperID, candidateID int) (bool, error) {
	mutual, err := d.swipes.HasLike(ctx, candidateID, swiperID)
	if err != nil {
		return false, fmt.Errorf("checking reverse like: %w", err)
	}
	if !mutual {
		return false, nil
	}

	created, err := d.matches.CreateMatch(ctx, CanonicalPair(swiperID, candidateID))
	if err != nil {
		return false, fmt.Errorf("creating match: %w", err)
	}
	if created && d.bus != nil {
		// One-time notification to both participants' sessions.
		d.bus.Publish(swiperID, Event{Type: EventMatchFound, OtherUserID: candidateID})
		d.bus.Publish(candidateID, Event{Type: EventMatchFound, OtherUserID: swiperID})
	}
	return true, nil
}
