package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/foodmatch-app/backend/engine"
)

const defaultBatchLimit = 10

// GET /queue?limit=N
// Returns the next batch of candidates for the caller. An empty batch is the
// terminal "no more candidates" answer, flagged with exhausted=true — the
// client re-fetches only on explicit user action.
func queueHandler(queue *engine.CandidateQueue) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		limit := defaultBatchLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid_limit")
				return
			}
			limit = n
		}

		batch, err := queue.NextBatch(r.Context(), userID, limit)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "queue_error")
			log.Println("Error fetching candidate batch:", err)
			return
		}

		if batch == nil {
			batch = []engine.Profile{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"candidates": batch,
			"exhausted":  len(batch) == 0,
		})
	})
}
