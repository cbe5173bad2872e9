package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Event types carried by SessionEvent.Type.
const (
	EventState = "state"
	EventFrame = "frame"
)

// SessionEvent is one SSE message. Each carries a full snapshot, so a
// client that drops events still renders the latest state correctly.
type SessionEvent struct {
	SessionID string    `json:"sessionId"`
	Type      string    `json:"type"`
	Snapshot  Snapshot  `json:"snapshot"`
	Timestamp time.Time `json:"timestamp"`
}

// EventBroadcaster fans session events out to SSE clients.
type EventBroadcaster struct {
	mu        sync.Mutex
	clients   map[string]map[chan SessionEvent]bool // sessionID -> client channels
	lastEvent map[string]SessionEvent               // sessionID -> last event for new clients
}

func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{
		clients:   make(map[string]map[chan SessionEvent]bool),
		lastEvent: make(map[string]SessionEvent),
	}
}

// Subscribe adds a client for a session and primes it with the last event.
func (eb *EventBroadcaster) Subscribe(sessionID string) chan SessionEvent {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan SessionEvent, 16)
	if eb.clients[sessionID] == nil {
		eb.clients[sessionID] = make(map[chan SessionEvent]bool)
	}
	eb.clients[sessionID][ch] = true

	if last, ok := eb.lastEvent[sessionID]; ok {
		select {
		case ch <- last:
		default:
		}
	}

	slog.Debug("SSE client subscribed", "session_id", sessionID, "total_clients", len(eb.clients[sessionID]))
	return ch
}

// Unsubscribe removes a client. It is a no-op when the session's clients
// were already cleaned up.
func (eb *EventBroadcaster) Unsubscribe(sessionID string, ch chan SessionEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	clients, ok := eb.clients[sessionID]
	if !ok || !clients[ch] {
		return
	}
	delete(clients, ch)
	close(ch)
	if len(clients) == 0 {
		delete(eb.clients, sessionID)
	}
	slog.Debug("SSE client unsubscribed", "session_id", sessionID)
}

// Broadcast sends event to every client of its session without blocking.
func (eb *EventBroadcaster) Broadcast(event SessionEvent) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.lastEvent[event.SessionID] = event

	for ch := range eb.clients[event.SessionID] {
		select {
		case ch <- event:
		default:
			slog.Warn("SSE channel full, skipping event", "session_id", event.SessionID)
		}
	}
}

// CleanupSession closes all clients and forgets the cached event.
func (eb *EventBroadcaster) CleanupSession(sessionID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for ch := range eb.clients[sessionID] {
		close(ch)
	}
	delete(eb.clients, sessionID)
	delete(eb.lastEvent, sessionID)
	slog.Debug("Cleaned up SSE resources", "session_id", sessionID)
}

// handleSessionStream handles GET /api/v1/sessions/:id/stream.
func (s *Server) handleSessionStream(w http.ResponseWriter, r *http.Request, sess *Session) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.sessions.broadcaster.Subscribe(sess.ID)
	defer s.sessions.broadcaster.Unsubscribe(sess.ID, events)

	initial := SessionEvent{
		SessionID: sess.ID,
		Type:      EventState,
		Snapshot:  sess.Snapshot(),
		Timestamp: time.Now(),
	}
	if err := writeSSEEvent(w, initial); err != nil {
		slog.Error("Failed to write initial SSE event", "error", err)
		return
	}
	flusher.Flush()

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			slog.Debug("SSE client disconnected", "session_id", sess.ID)
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				slog.Error("Failed to write SSE event", "error", err)
				return
			}
			flusher.Flush()
		case <-pingTicker.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes "data: {json}\n\n".
func writeSSEEvent(w http.ResponseWriter, event SessionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
