package server

import (
	"context"
	"log/slog"
	"time"
)

// DefaultFrameInterval is the frame loop period, about 60 frames per second.
const DefaultFrameInterval = time.Second / 60

// startSession launches the session's frame loop under ctx and records how
// to stop it.
func startSession(ctx context.Context, sm *SessionManager, s *Session, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.mu.Lock()
	s.stop = func() {
		cancel()
		<-done
	}
	s.mu.Unlock()

	go func() {
		defer close(done)
		runSession(ctx, sm, s, interval)
	}()
}

// runSession is the rendering loop of one session: each tick is a frame
// opportunity for the driver, and every step it takes is published.
func runSession(ctx context.Context, sm *SessionManager, s *Session, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Session started", "session_id", s.ID, "kind", s.Kind)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Session stopped", "session_id", s.ID)
			return
		case now := <-ticker.C:
			if !s.Frame(now) {
				continue
			}
			snap := s.Snapshot()
			sm.broadcaster.Broadcast(SessionEvent{
				SessionID: s.ID,
				Type:      EventFrame,
				Snapshot:  snap,
				Timestamp: now,
			})
			if !snap.Running {
				slog.Debug("Animation paused at end", "session_id", s.ID)
			}
		}
	}
}
