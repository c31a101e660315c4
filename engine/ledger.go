package engine

import (
	"context"
	"time"
)

// Ledger is the single write path for swipe decisions. Every decision goes
// through Record exactly once; on a successful like it synchronously invokes
// the match detector, so a caller knows by return time whether the swipe
// completed the pair.
type Ledger struct {
	store    SwipeStore
	detector *MatchDetector
}

func NewLedger(store SwipeStore, detector *MatchDetector) *Ledger {
	return &Ledger{store: store, detector: detector}
}

// Record appends one (swiper, candidate, liked) decision and reports whether
// a mutual match exists as a result. A repeat decision on the same pair
// returns ErrDuplicateSwipe and writes nothing; history is never rewritten —
// if "undo" ever becomes a requirement it has to be a new event type, not a
// mutation.
func (l *Ledger) Record(ctx context.Context, swiperID, candidateID int, liked bool) (bool, error) {
	if swiperID == candidateID {
		return false, ErrSelfSwipe
	}

	rec := &SwipeRecord{
		SwiperID:    swiperID,
		CandidateID: candidateID,
		Liked:       liked,
		CreatedAt:   time.Now().UTC(),
	}
	if err := l.store.InsertSwipe(ctx, rec); err != nil {
		return false, err
	}

	// Only likes can complete a pair; passes just feed the queue's exclusion set.
	if !liked {
		return false, nil
	}
	return l.detector.OnLikeRecorded(ctx, swiperID, candidateID)
}
