package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/mlvis/internal/anim"
)

// Server serves the session API, the SSE stream and a small index page.
type Server struct {
	sessions      *SessionManager
	addr          string
	server        *http.Server
	frameInterval time.Duration

	// ctx bounds every session frame loop; cancel stops them all.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a server listening on addr once started.
func NewServer(addr string) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		sessions:      NewSessionManager(),
		addr:          addr,
		frameInterval: DefaultFrameInterval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Handler returns the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/v1/sessions", s.handleSessions)
	mux.HandleFunc("/api/v1/sessions/", s.handleSessionsWithID)
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown stops every session loop and gracefully stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	for _, sess := range s.sessions.ListSessions() {
		s.sessions.DeleteSession(sess.ID)
	}
	s.cancel()
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleSessions handles /api/v1/sessions
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		s.handleListSessions(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSessionsWithID handles /api/v1/sessions/:id/*
func (s *Server) handleSessionsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Session ID required", http.StatusBadRequest)
		return
	}

	sess, exists := s.sessions.GetSession(parts[0])
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	action := ""
	if len(parts) > 1 {
		action = parts[1]
	}

	if action == "" {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, sess.Snapshot())
		case http.MethodDelete:
			s.handleDeleteSession(w, r, sess)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch action {
	case "stream":
		s.handleSessionStream(w, r, sess)
		return
	case "surface":
		s.handleSurface(w, r, sess)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "play":
		sess.Play(time.Now())
	case "pause":
		sess.Pause()
	case "step":
		s.handleStep(w, r, sess)
		return
	case "reset":
		s.handleReset(w, r, sess)
		return
	case "objective":
		s.handleObjective(w, r, sess)
		return
	case "learning-rate":
		s.handleLearningRate(w, r, sess)
		return
	case "speed":
		s.handleSpeed(w, r, sess)
		return
	case "hit":
		s.handleHit(w, r, sess)
		return
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	s.respondState(w, sess)
}

// respondState publishes the session's new state and echoes it.
func (s *Server) respondState(w http.ResponseWriter, sess *Session) {
	s.sessions.Publish(sess, EventState)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// handleCreateSession handles POST /api/v1/sessions
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var cfg SessionConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, err)
		return
	}
	if cfg.Kind == "" {
		cfg.Kind = KindConv1D
	}

	sess, err := s.sessions.CreateSession(cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	startSession(s.ctx, s.sessions, sess, s.frameInterval)

	slog.Info("Session created", "session_id", sess.ID, "kind", sess.Kind)
	writeJSON(w, http.StatusCreated, sess.Snapshot())
}

// handleListSessions handles GET /api/v1/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.ListSessions()
	snaps := make([]Snapshot, len(sessions))
	for i, sess := range sessions {
		snaps[i] = sess.Snapshot()
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleDeleteSession handles DELETE /api/v1/sessions/:id
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, sess *Session) {
	if err := s.sessions.DeleteSession(sess.ID); err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	slog.Info("Session deleted", "session_id", sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

type stepRequest struct {
	Step *int `json:"step"`
}

// handleStep handles POST /api/v1/sessions/:id/step
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req stepRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.Step(req.Step); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, sess)
}

type resetRequest struct {
	Randomize bool `json:"randomize"`
}

// handleReset handles POST /api/v1/sessions/:id/reset
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req resetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sess.Reset(req.Randomize)
	s.respondState(w, sess)
}

type objectiveRequest struct {
	Name string `json:"name"`
}

// handleObjective handles POST /api/v1/sessions/:id/objective
func (s *Server) handleObjective(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req objectiveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SelectObjective(req.Name); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, sess)
}

type learningRateRequest struct {
	Value float64 `json:"value"`
}

// handleLearningRate handles POST /api/v1/sessions/:id/learning-rate
func (s *Server) handleLearningRate(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req learningRateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := sess.SetLearningRate(req.Value); err != nil {
		writeError(w, err)
		return
	}
	s.respondState(w, sess)
}

type speedRequest struct {
	Speed     int `json:"speed"`
	CadenceMs int `json:"cadenceMs"`
}

// handleSpeed handles POST /api/v1/sessions/:id/speed
func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req speedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case req.CadenceMs > 0:
		sess.SetCadence(time.Duration(req.CadenceMs) * time.Millisecond)
	case req.Speed > 0:
		sess.SetCadence(anim.CadenceForSpeed(req.Speed))
	default:
		http.Error(w, "speed or cadenceMs is required", http.StatusBadRequest)
		return
	}
	s.respondState(w, sess)
}

type hitRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// handleHit handles POST /api/v1/sessions/:id/hit
func (s *Server) handleHit(w http.ResponseWriter, r *http.Request, sess *Session) {
	var req hitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Width <= 0 || req.Height <= 0 {
		http.Error(w, "width and height must be positive", http.StatusBadRequest)
		return
	}

	step, ok, err := sess.Hit(req.X, req.Y, req.Width, req.Height)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.sessions.Publish(sess, EventState)
	writeJSON(w, http.StatusOK, map[string]int{"step": step})
}

// handleSurface handles GET /api/v1/sessions/:id/surface
func (s *Server) handleSurface(w http.ResponseWriter, r *http.Request, sess *Session) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	surface, err := sess.Surface(0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, surface)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
