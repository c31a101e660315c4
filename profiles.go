package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/foodmatch-app/backend/engine"
)

// Dispatcher for /users/* — peer profile lookups.
func usersDispatcher(store engine.ProfileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "users" {
			http.NotFound(w, r)
			return
		}
		userHandler(store).ServeHTTP(w, r)
	}
}

// GET /users/{id}
func userHandler(store engine.ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		targetID, err := strconv.Atoi(parts[1])
		if err != nil {
			http.NotFound(w, r)
			return
		}

		profile, err := store.GetProfile(r.Context(), targetID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("Error fetching profile:", err)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	})
}

// GET /me — id plus display basics, for the header bar.
func meHandler(store engine.ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value(userIDKey).(int)
		profile, err := store.GetProfile(r.Context(), userID)
		if errors.Is(err, engine.ErrNotFound) {
			// Registered but not onboarded yet.
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": userID, "profile_complete": false})
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id":               userID,
			"full_name":        profile.FullName,
			"avatar_url":       profile.AvatarURL,
			"profile_complete": true,
		})
	})
}

// GET /me/profile — the full self profile.
func meProfileHandler(store engine.ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		userID := r.Context().Value(userIDKey).(int)
		profile, err := store.GetProfile(r.Context(), userID)
		if errors.Is(err, engine.ErrNotFound) {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	})
}

// POST /me/profile/complete
// Accepts the onboarding wizard's accumulated form and upserts the profile.
// Validation runs through the wizard's step gates, so a client can't submit
// a form the wizard itself would refuse to advance past.
func completeProfileHandler(store engine.ProfileStore) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPatch {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		var form engine.WizardForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		userID := r.Context().Value(userIDKey).(int)

		if err := engine.ValidateForm(form); err != nil {
			switch {
			case errors.Is(err, engine.ErrStepIncomplete):
				writeError(w, http.StatusBadRequest, "incomplete_profile")
			case errors.Is(err, engine.ErrUnknownOption):
				writeError(w, http.StatusBadRequest, "unknown_option")
			default:
				writeError(w, http.StatusBadRequest, "invalid_profile")
			}
			return
		}

		profile := &engine.Profile{
			ID:               userID,
			FullName:         form.FullName,
			Age:              form.Age,
			Bio:              form.Bio,
			Location:         form.Location,
			AvatarURL:        form.AvatarURL,
			FavoriteCuisines: form.FavoriteCuisines,
			DiningStyles:     form.DiningStyles,
			DietaryTags:      form.DietaryTags,
		}
		if err := store.UpsertProfile(r.Context(), profile); err != nil {
			writeError(w, http.StatusInternalServerError, "profile_save_error")
			log.Println("Error saving profile:", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
