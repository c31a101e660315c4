package engine

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across the engine. Handlers translate these to HTTP
// statuses; the session recovers from the first three locally.
var (
	// ErrNotFound is returned when a referenced user has no profile.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSwipe is returned when a (swiper, candidate) pair already
	// has a recorded decision. Decisions are immutable once recorded.
	ErrDuplicateSwipe = errors.New("swipe already recorded")
	// ErrAlreadyDecided is returned when a dismissed card is resolved again.
	ErrAlreadyDecided = errors.New("candidate already decided")
	// ErrSelfSwipe is returned when a user tries to swipe on themselves.
	ErrSelfSwipe = errors.New("cannot swipe on self")
	// ErrNoCandidate is returned for gesture input when no card is presented.
	ErrNoCandidate = errors.New("no candidate presented")
)

// Profile is a user's dating profile as the engine sees it: read-only display
// attributes plus the tag sets the candidate queue scores on. The profile
// store owns the record; the engine never mutates one.
type Profile struct {
	ID               int      `json:"id"`
	FullName         string   `json:"full_name"`
	Age              int      `json:"age"`
	Bio              string   `json:"bio"`
	Location         string   `json:"location"`
	AvatarURL        string   `json:"avatar_url"`
	FavoriteCuisines []string `json:"favorite_cuisines"`
	DiningStyles     []string `json:"dining_styles"`
	DietaryTags      []string `json:"dietary_tags"`
}

// SwipeRecord is one like/pass decision. At most one exists per ordered
// (SwiperID, CandidateID) pair; records are never mutated or deleted.
type SwipeRecord struct {
	SwiperID    int       `json:"swiper_id"`
	CandidateID int       `json:"candidate_id"`
	Liked       bool      `json:"liked"`
	CreatedAt   time.Time `json:"created_at"`
}

// Match is a mutual like, materialized exactly once per unordered pair.
type Match struct {
	UserAID   int       `json:"user_a_id"`
	UserBID   int       `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the peer id for the given participant.
func (m Match) Other(userID int) int {
	if m.UserAID == userID {
		return m.UserBID
	}
	return m.UserAID
}

// Pair is a canonicalized unordered pair of user ids, A < B, so the same two
// users always key the same match row regardless of who liked whom first.
type Pair struct {
	A int
	B int
}

// CanonicalPair orders two user ids into a Pair.
func CanonicalPair(x, y int) Pair {
	if x < y {
		return Pair{A: x, B: y}
	}
	return Pair{A: y, B: x}
}

// ProfileStore is the external profile collaborator.
type ProfileStore interface {
	// GetProfile returns ErrNotFound when no profile exists for id.
	GetProfile(ctx context.Context, id int) (*Profile, error)
	UpsertProfile(ctx context.Context, p *Profile) error
}

// SwipeStore persists the append-only swipe ledger.
type SwipeStore interface {
	// InsertSwipe appends one decision. Returns ErrDuplicateSwipe when the
	// ordered pair already has a row, ErrNotFound when either side has no
	// profile. Never overwrites.
	InsertSwipe(ctx context.Context, rec *SwipeRecord) error
	// HasLike reports whether a liked=true record swiper->candidate exists.
	HasLike(ctx context.Context, swiperID, candidateID int) (bool, error)
	// Candidates returns up to limit profiles the user has not judged yet,
	// excluding the user themselves, in stable id order.
	Candidates(ctx context.Context, userID, limit int) ([]Profile, error)
}

// MatchStore persists materialized matches. CreateMatch is the engine's
// compare-and-create primitive: implementations must make the existence check
// and the insert atomic per pair (unique constraint with insert-or-ignore, or
// equivalent), so two concurrent detections never produce two rows.
type MatchStore interface {
	// CreateMatch inserts the pair's match row if absent and reports whether
	// this call created it.
	CreateMatch(ctx context.Context, pair Pair) (bool, error)
	MatchesFor(ctx context.Context, userID int) ([]Match, error)
}

// Store bundles the three persistence surfaces the engine needs.
type Store interface {
	ProfileStore
	SwipeStore
	MatchStore
}
