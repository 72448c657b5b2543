// Package session implements the research session: its status and the
// ordered, append-only history of completed turns.
package session

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"neonresearch/internal/logging"
	"neonresearch/internal/types"
)

// ErrEmptyQuery is returned when a turn is completed with a blank query.
var ErrEmptyQuery = errors.New("query must not be empty")

// State owns the session status and history. It is safe for concurrent
// readers; turn operations are expected from a single driver.
type State struct {
	mu      sync.RWMutex
	id      string
	status  types.Status
	history []types.Turn
	clock   clockwork.Clock
}

// Option configures a State.
type Option func(*State)

// WithClock injects the clock used to timestamp turns.
func WithClock(c clockwork.Clock) Option {
	return func(s *State) { s.clock = c }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *State) { s.id = id }
}

// New creates a Ready session with empty history.
func New(opts ...Option) *State {
	s := &State{status: types.StatusReady}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	return s
}

// ID returns the session identifier.
func (s *State) ID() string { return s.id }

// Status returns the current status.
func (s *State) Status() types.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// BeginTurn moves Ready to Researching.
func (s *State) BeginTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != types.StatusReady {
		return &types.InvalidStateError{Op: "BeginTurn", Status: s.status}
	}
	s.status = types.StatusResearching
	logging.SessionDebug("session %s: turn %d started", s.id, len(s.history)+1)
	return nil
}

// CompleteTurn appends the turn and moves back to Ready. The stored result
// is a private copy; the returned turn is another. A blank query ends the
// turn unrecorded with ErrEmptyQuery.
func (s *State) CompleteTurn(query string, result types.ResearchResult) (types.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != types.StatusResearching {
		return types.Turn{}, &types.InvalidStateError{Op: "CompleteTurn", Status: s.status}
	}
	query = strings.TrimSpace(query)
	if query == "" {
		s.status = types.StatusReady
		logging.SessionDebug("session %s: turn dropped, blank query", s.id)
		return types.Turn{}, ErrEmptyQuery
	}

	turn := types.Turn{Query: query, Result: result.Clone(), At: s.clock.Now()}
	s.history = append(s.history, turn)
	s.status = types.StatusReady

	logging.Session("session %s: turn %d recorded (%q)", s.id, len(s.history), query)
	return turn.Clone(), nil
}

// AbortTurn moves Researching back to Ready without recording anything.
func (s *State) AbortTurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != types.StatusResearching {
		return &types.InvalidStateError{Op: "AbortTurn", Status: s.status}
	}
	s.status = types.StatusReady
	logging.SessionDebug("session %s: turn aborted", s.id)
	return nil
}

// Len returns the number of recorded turns.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// History returns a copy of the recorded turns in submission order.
func (s *State) History() []types.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Turn, len(s.history))
	for i, turn := range s.history {
		out[i] = turn.Clone()
	}
	return out
}
