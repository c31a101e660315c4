package main

import (
	"errors"
	"log"
	"net/http"

	"github.com/foodmatch-app/backend/engine"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// For development: allow the Vite dev origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GestureMessage is one client-to-server frame on /ws/swipe. CandidateID
// pins decision frames to the card they were aimed at, so a frame that
// arrives after the card was dismissed cannot spill onto the next candidate.
type GestureMessage struct {
	Type        string  `json:"type"` // "drag" | "release" | "like" | "pass" | "refresh"
	Offset      float64 `json:"offset,omitempty"`
	CandidateID int     `json:"candidate_id,omitempty"`
}

// feedbackFrame is session-local feedback (drag transforms, decisions,
// errors) that doesn't go through the event bus.
type feedbackFrame struct {
	Type      string                `json:"type"` // "card_transform" | "decision" | "error"
	Transform *engine.CardTransform `json:"transform,omitempty"`
	Decision  string                `json:"decision,omitempty"`
	Error     string                `json:"error,omitempty"`
}

// GET /ws/swipe?token=...
// Runs a gesture-driven swipe session over one websocket connection. The
// client streams drag/release/like/pass frames; the server drives the
// decision state machine and streams engine events (candidate_presented,
// decision_made, match_found, queue_exhausted) plus drag feedback back.
//
// All session methods are called from the read loop — the session is
// single-goroutine by construction. The write side is a separate goroutine
// fed by channels, because gorilla/websocket allows only one writer.
func wsSwipeHandler(queue *engine.CandidateQueue, ledger *engine.Ledger, bus *engine.EventBus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := getUserIDFromRequest(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WS upgrade error for user %d: %v", userID, err)
			return
		}
		defer conn.Close()

		events, unsubscribe := bus.Subscribe(userID)
		defer unsubscribe()

		feedback := make(chan feedbackFrame, 16)
		done := make(chan struct{})
		go sessionWriter(conn, events, feedback, done)
		defer close(done)

		sess := engine.NewSession(userID, defaultBatchLimit, queue, ledger, bus)
		defer sess.End()

		if err := sess.Start(r.Context()); err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
			return
		}
		log.Printf("Swipe session %s started for user %d", sess.ID, userID)

		for {
			var msg GestureMessage
			if err := conn.ReadJSON(&msg); err != nil {
				// Disconnect: a drag in progress is discarded, nothing written.
				return
			}
			handleGesture(r, sess, msg, feedback)
		}
	}
}

func handleGesture(r *http.Request, sess *engine.Session, msg GestureMessage, feedback chan feedbackFrame) {
	ctx := r.Context()

	if msg.Type == "refresh" {
		// Explicit user action after queue_exhausted.
		if err := sess.Refresh(ctx); err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
		}
		return
	}

	card := sess.Current()
	if card == nil {
		sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(engine.ErrNoCandidate)})
		return
	}
	if msg.CandidateID != 0 && msg.CandidateID != card.Profile().ID {
		// Late frame for an already-dismissed card.
		sendFeedback(feedback, feedbackFrame{Type: "error", Error: "already_decided"})
		return
	}

	switch msg.Type {
	case "drag":
		transform, err := card.Drag(msg.Offset)
		if err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
			return
		}
		sendFeedback(feedback, feedbackFrame{Type: "card_transform", Transform: &transform})
	case "release":
		decision, err := card.Release(ctx)
		if err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
			return
		}
		sendFeedback(feedback, feedbackFrame{Type: "decision", Decision: decisionLabel(decision)})
	case "like":
		if err := card.Like(ctx); err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
		}
	case "pass":
		if err := card.Pass(ctx); err != nil {
			sendFeedback(feedback, feedbackFrame{Type: "error", Error: wsErrorCode(err)})
		}
	default:
		sendFeedback(feedback, feedbackFrame{Type: "error", Error: "unknown_gesture"})
	}
}

// sessionWriter is the sole writer on the connection: it serializes engine
// events and session feedback onto the socket until either source closes.
func sessionWriter(conn *websocket.Conn, events <-chan engine.Event, feedback <-chan feedbackFrame, done <-chan struct{}) {
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case fb := <-feedback:
			if err := conn.WriteJSON(fb); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func sendFeedback(feedback chan feedbackFrame, fb feedbackFrame) {
	select {
	case feedback <- fb:
	default:
		// Feedback is best-effort visual state; drop when the writer lags.
	}
}

func decisionLabel(d engine.Decision) string {
	switch d {
	case engine.DecisionLiked:
		return "liked"
	case engine.DecisionPassed:
		return "passed"
	}
	return "none"
}

func wsErrorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return "not_found"
	case errors.Is(err, engine.ErrNoCandidate):
		return "no_candidate"
	case errors.Is(err, engine.ErrAlreadyDecided):
		return "already_decided"
	default:
		return "transient_failure"
	}
}
