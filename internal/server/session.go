package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/mlvis/internal/anim"
	"github.com/cwbudde/mlvis/internal/conv"
	"github.com/cwbudde/mlvis/internal/descent"
)

// Kind selects which demo a session runs.
type Kind string

const (
	KindConv1D  Kind = "conv1d"
	KindConv2D  Kind = "conv2d"
	KindDescent Kind = "descent"
)

var (
	// ErrUnknownKind is returned for a session kind outside the three demos.
	ErrUnknownKind = errors.New("server: unknown session kind")

	// ErrWrongKind is returned when an operation does not apply to a
	// session's demo, such as picking an objective for a convolution.
	ErrWrongKind = errors.New("server: operation not supported by session kind")
)

// SessionConfig is the body of POST /api/v1/sessions.
type SessionConfig struct {
	Kind         Kind    `json:"kind"`
	Objective    string  `json:"objective,omitempty"`
	LearningRate float64 `json:"learningRate,omitempty"`
	Seed         int64   `json:"seed,omitempty"`
	CadenceMs    int     `json:"cadenceMs,omitempty"`
}

// ConvState is the convolution part of a snapshot. Input, Kernel and
// Output are flat slices for 1D sessions and nested rows for 2D ones.
type ConvState struct {
	Step       int            `json:"step"`
	TotalSteps int            `json:"totalSteps"`
	Row        int            `json:"row"`
	Col        int            `json:"col"`
	Input      any            `json:"input"`
	Kernel     any            `json:"kernel"`
	Output     any            `json:"output"`
	Breakdown  conv.Breakdown `json:"breakdown"`
}

// DescentState is the descent part of a snapshot. Trajectory and Losses are
// whole-array replacements, never diffs.
type DescentState struct {
	Objective    string          `json:"objective"`
	LearningRate float64         `json:"learningRate"`
	Iteration    int             `json:"iteration"`
	Position     descent.Point   `json:"position"`
	Trajectory   []descent.Point `json:"trajectory"`
	Losses       []float64       `json:"losses"`
	ModelLineX   [2]float64      `json:"modelLineX"`
	ModelLineY   [2]float64      `json:"modelLineY"`
	Randomized   bool            `json:"randomized"`
}

// Snapshot is the read-only view of a session handed to clients.
type Snapshot struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Running   bool          `json:"running"`
	CadenceMs int64         `json:"cadenceMs"`
	CreatedAt time.Time     `json:"createdAt"`
	Conv      *ConvState    `json:"conv,omitempty"`
	Descent   *DescentState `json:"descent,omitempty"`
}

// Session owns one demo instance: its engine and animation driver. Every
// access goes through mu, so the engines only ever see sequential calls.
type Session struct {
	ID        string
	Kind      Kind
	CreatedAt time.Time

	mu         sync.Mutex
	conv1d     *conv.Engine1D
	conv2d     *conv.Engine2D
	descent    *descent.Engine
	driver     *anim.Driver
	randomized bool
	stop       func()
}

// newSession builds the engine for cfg.Kind and a stopped driver bound to it.
func newSession(cfg SessionConfig) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		Kind:      cfg.Kind,
		CreatedAt: time.Now(),
	}

	cadence := anim.DefaultCadence
	if cfg.CadenceMs > 0 {
		cadence = time.Duration(cfg.CadenceMs) * time.Millisecond
	}

	var advancer anim.Advancer
	switch cfg.Kind {
	case KindConv1D:
		e, err := conv.New1D(conv.Preset1D())
		if err != nil {
			return nil, err
		}
		s.conv1d, advancer = e, e
	case KindConv2D:
		e, err := conv.New2DFromRows(conv.Preset2D())
		if err != nil {
			return nil, err
		}
		s.conv2d, advancer = e, e
	case KindDescent:
		e, err := descent.New(descent.Config{
			Objective:    cfg.Objective,
			LearningRate: cfg.LearningRate,
			Seed:         cfg.Seed,
		})
		if err != nil {
			return nil, err
		}
		s.descent, advancer = e, e
		// Descent steps on every frame unless a cadence was requested.
		if cfg.CadenceMs <= 0 {
			cadence = time.Nanosecond
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}

	s.driver = anim.New(cadence, advancer)
	return s, nil
}

// Frame gives the driver one rendering opportunity.
func (s *Session) Frame(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.driver.OnFrame(now)
}

// Play starts the animation. A descent engine is marked runnable first.
func (s *Session) Play(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.descent != nil {
		s.descent.Start()
	}
	s.driver.Start(now)
}

// Pause stops the animation.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pauseLocked()
}

func (s *Session) pauseLocked() {
	s.driver.Stop()
	if s.descent != nil {
		s.descent.Stop()
	}
}

// Step moves one step by hand. For convolution sessions a non-nil target
// jumps straight to that (clamped) step. Descent sessions must be running.
func (s *Session) Step(target *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.conv1d != nil:
		if target != nil {
			s.conv1d.SetStep(*target)
		} else {
			s.conv1d.Advance()
		}
	case s.conv2d != nil:
		if target != nil {
			s.conv2d.SetStep(*target)
		} else {
			s.conv2d.Advance()
		}
	case s.descent != nil:
		if _, err := s.descent.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset pauses and rewinds. Convolutions return to step 0; descent draws a
// new start point.
func (s *Session) Reset(randomize bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pauseLocked()
	switch {
	case s.conv1d != nil:
		s.conv1d.SetStep(0)
	case s.conv2d != nil:
		s.conv2d.SetStep(0)
	case s.descent != nil:
		s.randomized = s.descent.Reset(randomize).Randomized
	}
}

// SelectObjective switches the descent objective and resets onto it.
func (s *Session) SelectObjective(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.descent == nil {
		return ErrWrongKind
	}
	if err := s.descent.SelectObjective(name); err != nil {
		return err
	}
	s.driver.Stop()
	s.randomized = s.descent.Reset(false).Randomized
	return nil
}

func (s *Session) SetLearningRate(v float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.descent == nil {
		return ErrWrongKind
	}
	return s.descent.SetLearningRate(v)
}

func (s *Session) SetCadence(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.driver.SetCadence(d)
}

// Hit maps a pointer position on a width x height canvas to a step, moves
// there and pauses playback.
func (s *Session) Hit(x, y, width, height float64) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		step int
		ok   bool
	)
	switch {
	case s.conv1d != nil:
		step, ok = s.conv1d.MapCoordinateToStep(s.conv1d.DefaultLayout1D(width, height), x, y)
		if ok {
			s.conv1d.SetStep(step)
		}
	case s.conv2d != nil:
		step, ok = s.conv2d.MapCoordinateToStep(s.conv2d.DefaultLayout2D(width, height), x, y)
		if ok {
			s.conv2d.SetStep(step)
		}
	default:
		return 0, false, ErrWrongKind
	}

	if ok {
		s.driver.Stop()
	}
	return step, ok, nil
}

// Surface samples the active descent objective.
func (s *Session) Surface(resolution int) (descent.Surface, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.descent == nil {
		return descent.Surface{}, ErrWrongKind
	}
	return descent.SampleSurface(s.descent.Objective(), resolution), nil
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:        s.ID,
		Kind:      s.Kind,
		Running:   s.driver.Running(),
		CadenceMs: s.driver.Cadence().Milliseconds(),
		CreatedAt: s.CreatedAt,
	}

	switch {
	case s.conv1d != nil:
		e := s.conv1d
		snap.Conv = &ConvState{
			Step:       e.Step(),
			TotalSteps: e.TotalSteps(),
			Col:        e.Step(),
			Input:      e.Input(),
			Kernel:     e.Kernel(),
			Output:     e.Compute(),
			Breakdown:  e.StepOperands(e.Step()),
		}
	case s.conv2d != nil:
		e := s.conv2d
		row, col := e.Position(e.Step())
		snap.Conv = &ConvState{
			Step:       e.Step(),
			TotalSteps: e.TotalSteps(),
			Row:        row,
			Col:        col,
			Input:      e.InputRows(),
			Kernel:     e.KernelRows(),
			Output:     e.OutputRows(),
			Breakdown:  e.StepOperands(e.Step()),
		}
	case s.descent != nil:
		e := s.descent
		p := e.Position()
		xs, ys := descent.ModelLine(p)
		snap.Descent = &DescentState{
			Objective:    e.Objective().Name(),
			LearningRate: e.LearningRate(),
			Iteration:    e.Iteration(),
			Position:     p,
			Trajectory:   e.Trajectory(),
			Losses:       e.Losses(),
			ModelLineX:   xs,
			ModelLineY:   ys,
			Randomized:   s.randomized,
		}
	}
	return snap
}

// SessionManager tracks live sessions.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *EventBroadcaster
}

func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateSession builds and registers a session.
func (sm *SessionManager) CreateSession(cfg SessionConfig) (*Session, error) {
	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = s
	return s, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	s, exists := sm.sessions[id]
	return s, exists
}

// ListSessions returns all sessions, oldest first.
func (sm *SessionManager) ListSessions() []*Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sortSessions(sessions)
	return sessions
}

// DeleteSession stops the session's frame loop and disconnects its stream
// clients.
func (sm *SessionManager) DeleteSession(id string) error {
	sm.mu.Lock()
	s, exists := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()

	if !exists {
		return fmt.Errorf("session not found: %s", id)
	}

	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	sm.broadcaster.CleanupSession(id)
	return nil
}

// Publish broadcasts the session's current snapshot.
func (sm *SessionManager) Publish(s *Session, eventType string) {
	sm.broadcaster.Broadcast(SessionEvent{
		SessionID: s.ID,
		Type:      eventType,
		Snapshot:  s.Snapshot(),
		Timestamp: time.Now(),
	})
}
