package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodmatch-app/backend/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// handlerHarness wires the HTTP surface over the in-memory store.
type handlerHarness struct {
	store  *engine.MemStore
	bus    *engine.EventBus
	ledger *engine.Ledger
	queue  *engine.CandidateQueue
}

func newHandlerHarness() *handlerHarness {
	store := engine.NewMemStore()
	bus := engine.NewEventBus()
	detector := engine.NewMatchDetector(store, store, bus)
	return &handlerHarness{
		store:  store,
		bus:    bus,
		ledger: engine.NewLedger(store, detector),
		queue:  engine.NewCandidateQueue(store, store),
	}
}

func (h *handlerHarness) seedProfile(t *testing.T, id int) {
	t.Helper()
	err := h.store.UpsertProfile(context.Background(), &engine.Profile{
		ID:               id,
		FullName:         "User",
		Age:              30,
		Location:         "Helsinki",
		FavoriteCuisines: []string{"Italian"},
		DiningStyles:     []string{"Street Food"},
	})
	require.NoError(t, err)
}

// authedRequest builds a request carrying a real token for userID.
func authedRequest(t *testing.T, userID int, method, target string, body interface{}) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	token, err := issueToken(userID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestQueueHandler(t *testing.T) {
	h := newHandlerHarness()
	h.seedProfile(t, 1)
	h.seedProfile(t, 2)
	h.seedProfile(t, 3)

	handler := queueHandler(h.queue)

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["candidates"], 2)
	assert.Equal(t, false, body["exhausted"])

	// Limit caps the batch.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/queue?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Len(t, body["candidates"], 1)

	// Garbage limit.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/queue?limit=zero", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_limit", decodeBody(t, rec)["error"])

	// Caller without a profile.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 99, http.MethodGet, "/queue", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "profile_not_found", decodeBody(t, rec)["error"])

	// Wrong method.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodPost, "/queue", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQueueHandlerExhausted(t *testing.T) {
	h := newHandlerHarness()
	h.seedProfile(t, 1)
	h.seedProfile(t, 2)
	_, err := h.ledger.Record(context.Background(), 1, 2, false)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	queueHandler(h.queue)(rec, authedRequest(t, 1, http.MethodGet, "/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["candidates"], 0)
	assert.Equal(t, true, body["exhausted"])
}

func TestSwipeHandler(t *testing.T) {
	h := newHandlerHarness()
	h.seedProfile(t, 1)
	h.seedProfile(t, 2)

	handler := swipeHandler(h.ledger)

	// First like: recorded, no match yet.
	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 2, "liked": true}))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["recorded"])
	assert.Equal(t, false, body["matched"])

	// Repeat of the same pair: not an error, nothing recorded.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 2, "liked": false}))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["recorded"])
	assert.Equal(t, true, body["duplicate"])
	assert.Equal(t, 1, h.store.SwipeCount())

	// Reciprocal like completes the match.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 2, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 1, "liked": true}))
	require.Equal(t, http.StatusCreated, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["matched"])
	assert.Equal(t, 1, h.store.MatchCount())

	// Self swipe.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 1, "liked": true}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_target", decodeBody(t, rec)["error"])

	// Unknown candidate.
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 99, "liked": true}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Broken body.
	req := authedRequest(t, 1, http.MethodPost, "/swipes", nil)
	req.Body = http.NoBody
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMatchesHandler(t *testing.T) {
	h := newHandlerHarness()
	h.seedProfile(t, 1)
	h.seedProfile(t, 2)
	h.seedProfile(t, 3)

	ctx := context.Background()
	for _, other := range []int{2, 3} {
		_, err := h.ledger.Record(ctx, 1, other, true)
		require.NoError(t, err)
		_, err = h.ledger.Record(ctx, other, 1, true)
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	matchesHandler(h.store)(rec, authedRequest(t, 1, http.MethodGet, "/matches", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Matches []struct {
			OtherUserID int    `json:"other_user_id"`
			CreatedAt   string `json:"created_at"`
		} `json:"matches"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Matches, 2)
	for _, m := range body.Matches {
		assert.Contains(t, []int{2, 3}, m.OtherUserID)
		assert.NotEmpty(t, m.CreatedAt)
	}

	// The other side sees the same matches with the peer flipped.
	rec = httptest.NewRecorder()
	matchesHandler(h.store)(rec, authedRequest(t, 2, http.MethodGet, "/matches", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Len(t, body.Matches, 1)
	assert.Equal(t, 1, body.Matches[0].OtherUserID)
}

func TestCompleteProfileHandler(t *testing.T) {
	h := newHandlerHarness()
	handler := completeProfileHandler(h.store)

	form := engine.WizardForm{
		FullName:         "Alice",
		Age:              29,
		Location:         "Helsinki",
		Bio:              "Always hungry.",
		FavoriteCuisines: []string{"Italian", "Thai"},
		DiningStyles:     []string{"Wine Bars"},
		DietaryTags:      []string{"Vegetarian"},
	}

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, 7, http.MethodPost, "/me/profile/complete", form))
	require.Equal(t, http.StatusOK, rec.Code)

	saved, err := h.store.GetProfile(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.FullName)
	assert.Equal(t, []string{"Italian", "Thai"}, saved.FavoriteCuisines)

	// Missing dining styles fails the wizard gate.
	incomplete := form
	incomplete.DiningStyles = nil
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 8, http.MethodPost, "/me/profile/complete", incomplete))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "incomplete_profile", decodeBody(t, rec)["error"])

	// Tags outside the catalogs are refused.
	unknown := form
	unknown.DietaryTags = []string{"Carnivore"}
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 8, http.MethodPost, "/me/profile/complete", unknown))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_option", decodeBody(t, rec)["error"])

	// Rejected submissions leave no profile behind.
	_, err = h.store.GetProfile(context.Background(), 8)
	assert.ErrorIs(t, err, engine.ErrNotFound)
}

func TestUserHandler(t *testing.T) {
	h := newHandlerHarness()
	h.seedProfile(t, 2)

	handler := usersDispatcher(h.store)

	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/users/2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var profile engine.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&profile))
	assert.Equal(t, 2, profile.ID)

	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/users/99", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/users/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeHandler(t *testing.T) {
	h := newHandlerHarness()
	handler := meHandler(h.store)

	// Registered but not onboarded.
	rec := httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["profile_complete"])

	h.seedProfile(t, 1)
	rec = httptest.NewRecorder()
	handler(rec, authedRequest(t, 1, http.MethodGet, "/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, true, body["profile_complete"])
	assert.Equal(t, "User", body["full_name"])
}

// Full flow over the HTTP surface: onboard two users, browse, swipe right on
// each other, end with a visible match on both sides.
func TestMutualMatchFlow(t *testing.T) {
	h := newHandlerHarness()

	complete := completeProfileHandler(h.store)
	for userID, name := range map[int]string{1: "Alice", 2: "Bob"} {
		form := engine.WizardForm{
			FullName:         name,
			Age:              30,
			Location:         "Helsinki",
			FavoriteCuisines: []string{"Thai"},
			DiningStyles:     []string{"Street Food"},
		}
		rec := httptest.NewRecorder()
		complete(rec, authedRequest(t, userID, http.MethodPost, "/me/profile/complete", form))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Alice browses and sees Bob.
	rec := httptest.NewRecorder()
	queueHandler(h.queue)(rec, authedRequest(t, 1, http.MethodGet, "/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var queueResp struct {
		Candidates []engine.Profile `json:"candidates"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&queueResp))
	require.Len(t, queueResp.Candidates, 1)
	require.Equal(t, 2, queueResp.Candidates[0].ID)

	swipe := swipeHandler(h.ledger)

	rec = httptest.NewRecorder()
	swipe(rec, authedRequest(t, 1, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 2, "liked": true}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["matched"])

	// Bob's queue no longer includes judged pairs going the other way, so he
	// still sees Alice and likes back.
	rec = httptest.NewRecorder()
	swipe(rec, authedRequest(t, 2, http.MethodPost, "/swipes",
		map[string]interface{}{"candidate_id": 1, "liked": true}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["matched"])

	// Both sides list the match.
	for userID, other := range map[int]int{1: 2, 2: 1} {
		rec := httptest.NewRecorder()
		matchesHandler(h.store)(rec, authedRequest(t, userID, http.MethodGet, "/matches", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body struct {
			Matches []struct {
				OtherUserID int `json:"other_user_id"`
			} `json:"matches"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Matches, 1)
		assert.Equal(t, other, body.Matches[0].OtherUserID)
	}

	// Judged both ways: both queues are exhausted.
	for _, userID := range []int{1, 2} {
		rec := httptest.NewRecorder()
		queueHandler(h.queue)(rec, authedRequest(t, userID, http.MethodGet, "/queue", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, decodeBody(t, rec)["exhausted"])
	}
}
