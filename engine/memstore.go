package engine

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store. One mutex guards everything, which makes
// InsertSwipe and CreateMatch naturally compare-and-create: the existence
// check and the write happen under the same lock.
type MemStore struct {
	mu       sync.Mutex
	profiles map[int]Profile
	swipes   map[[2]int]SwipeRecord // ordered (swiper, candidate)
	matches  map[Pair]Match
}

func NewMemStore() *MemStore {
	return &MemStore{
		profiles: make(map[int]Profile),
		swipes:   make(map[[2]int]SwipeRecord),
		matches:  make(map[Pair]Match),
	}
}

func (m *MemStore) GetProfile(ctx context.Context, id int) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) UpsertProfile(ctx context.Context, p *Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.ID] = *p
	return nil
}

// DeleteProfile exists for staleness tests: a candidate can vanish between
// batch fetch and decision.
func (m *MemStore) DeleteProfile(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.profiles, id)
}

func (m *MemStore) InsertSwipe(ctx context.Context, rec *SwipeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.profiles[rec.SwiperID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.profiles[rec.CandidateID]; !ok {
		return ErrNotFound
	}
	key := [2]int{rec.SwiperID, rec.CandidateID}
	if _, ok := m.swipes[key]; ok {
		return ErrDuplicateSwipe
	}
	m.swipes[key] = *rec
	return nil
}

func (m *MemStore) HasLike(ctx context.Context, swiperID, candidateID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.swipes[[2]int{swiperID, candidateID}]
	return ok && rec.Liked, nil
}

func (m *MemStore) Candidates(ctx context.Context, userID, limit int) ([]Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Profile
	for id, p := range m.profiles {
		if id == userID {
			continue
		}
		if _, judged := m.swipes[[2]int{userID, id}]; judged {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CreateMatch(ctx context.Context, pair Pair) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.matches[pair]; ok {
		return false, nil
	}
	m.matches[pair] = Match{UserAID: pair.A, UserBID: pair.B, CreatedAt: time.Now().UTC()}
	return true, nil
}

func (m *MemStore) MatchesFor(ctx context.Context, userID int) ([]Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Match
	for pair, match := range m.matches {
		if pair.A == userID || pair.B == userID {
			out = append(out, match)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserAID != out[j].UserAID {
			return out[i].UserAID < out[j].UserAID
		}
		return out[i].UserBID < out[j].UserBID
	})
	return out, nil
}

// SwipeCount reports ledger size; used by tests asserting "no new row".
func (m *MemStore) SwipeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.swipes)
}

// MatchCount reports match table size.
func (m *MemStore) MatchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.matches)
}
