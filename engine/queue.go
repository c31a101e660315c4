package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// CandidateQueue produces batches of not-yet-judged candidates for a user.
// A batch is a snapshot: a fresh NextBatch call re-evaluates exclusions
// against the current ledger, so an undecided candidate from a discarded
// batch may legitimately reappear, but a judged one never does.
type CandidateQueue struct {
	profiles ProfileStore
	swipes   SwipeStore
}

func NewCandidateQueue(profiles ProfileStore, swipes SwipeStore) *CandidateQueue {
	return &CandidateQueue{profiles: profiles, swipes: swipes}
}

// NextBatch returns up to limit eligible candidates for userID, best
// affinity first. Returns ErrNotFound when the requester has no profile and
// an empty batch (not an error) when the pool is exhausted — the caller
// decides when to re-fetch, never the queue.
func (q *CandidateQueue) NextBatch(ctx context.Context, userID, limit int) ([]Profile, error) {
	self, err := q.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch, err := q.swipes.Candidates(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}

	sort.SliceStable(batch, func(i, j int) bool {
		si, sj := affinityScore(self, &batch[i]), affinityScore(self, &batch[j])
		if si != sj {
			return si > sj
		}
		return batch[i].ID < batch[j].ID
	})
	return batch, nil
}

// affinityScore is a deliberately small compatibility heuristic: shared
// cuisines weigh most, shared dining styles next, shared dietary tags least.
// It only orders a batch; eligibility is decided entirely by the ledger.
func affinityScore(user, candidate *Profile) int {
	score := 3 * tagOverlap(user.FavoriteCuisines, candidate.FavoriteCuisines)
	score += 2 * tagOverlap(user.DiningStyles, candidate.DiningStyles)
	score += tagOverlap(user.DietaryTags, candidate.DietaryTags)
	return score
}

// tagOverlap counts case-insensitive set intersection.
func tagOverlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, tag := range a {
		set[strings.ToLower(tag)] = true
	}
	shared := 0
	seen := make(map[string]bool, len(b))
	for _, tag := range b {
		key := strings.ToLower(tag)
		if set[key] && !seen[key] {
			shared++
			seen[key] = true
		}
	}
	return shared
}
