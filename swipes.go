package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/foodmatch-app/backend/engine"
)

// POST /swipes {"candidate_id": 7, "liked": true}
// The button-driven decision path: records the swipe through the ledger and
// reports whether it completed a mutual match.
//
// A repeat swipe on the same pair is not an error to the user — the decision
// already exists, so the response just says nothing new was recorded.
func swipeHandler(ledger *engine.Ledger) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		type SwipeRequest struct {
			CandidateID int  `json:"candidate_id"`
			Liked       bool `json:"liked"`
		}
		var req SwipeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		matched, err := ledger.Record(r.Context(), userID, req.CandidateID, req.Liked)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, map[string]interface{}{
				"recorded": true,
				"matched":  matched,
			})
		case errors.Is(err, engine.ErrDuplicateSwipe):
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"recorded":  false,
				"duplicate": true,
				"matched":   false,
			})
		case errors.Is(err, engine.ErrSelfSwipe):
			writeError(w, http.StatusBadRequest, "invalid_target")
		case errors.Is(err, engine.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found")
		default:
			writeError(w, http.StatusInternalServerError, "swipe_error")
			log.Println("Error recording swipe:", err)
		}
	})
}

// GET /matches
// Lists the caller's matches, newest first, with the peer id surfaced.
func matchesHandler(store engine.MatchStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		matches, err := store.MatchesFor(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("Error fetching matches:", err)
			return
		}

		type matchView struct {
			OtherUserID int    `json:"other_user_id"`
			CreatedAt   string `json:"created_at"`
		}
		views := make([]matchView, 0, len(matches))
		for _, m := range matches {
			views = append(views, matchView{
				OtherUserID: m.Other(userID),
				CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": views})
	})
}
