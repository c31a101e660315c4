package main

import (
	"log"
	"net/http"
	"os"

	"github.com/foodmatch-app/backend/engine"
	"github.com/joho/godotenv"
)

// JWT secret from environment variable or fallback
func getJWTSecret() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("your_secret_key_please_change_in_production")
}

var jwtSecret = getJWTSecret()

func main() {
	// .env is optional; deployments set the environment directly.
	_ = godotenv.Load()
	jwtSecret = getJWTSecret()

	db := initDB()
	store := newPostgresStore(db)

	bus := engine.NewEventBus()
	detector := engine.NewMatchDetector(store, store, bus)
	ledger := engine.NewLedger(store, detector)
	queue := engine.NewCandidateQueue(store, store)

	mux := http.NewServeMux()

	// Core auth & profile endpoints
	mux.Handle("/register", registerHandler(db))
	mux.Handle("/login", loginHandler(db))
	mux.Handle("/me", meHandler(store))
	mux.Handle("/me/profile", meProfileHandler(store))
	mux.Handle("/me/profile/complete", completeProfileHandler(store))

	// Peer profiles
	mux.Handle("/users/", usersDispatcher(store))

	// Matching engine surface
	mux.Handle("/queue", queueHandler(queue))     // GET /queue?limit=10
	mux.Handle("/swipes", swipeHandler(ledger))   // POST /swipes
	mux.Handle("/matches", matchesHandler(store)) // GET /matches

	// WebSocket gesture session: drag/release/like/pass in, engine events out
	mux.Handle("/ws/swipe", wsSwipeHandler(queue, ledger, bus))

	// Health check endpoint for Docker
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("Starting FoodMatch backend on %s...", addr)
	if err := http.ListenAndServe(addr, withCORS(mux)); err != nil {
		log.Fatal("Server stopped:", err)
	}
}
