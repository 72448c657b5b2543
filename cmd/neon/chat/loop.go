// Package chat implements the interactive research REPL: read a query, run the
// status animation while the synthesizer works, render the result, wait for
// acknowledgment, repeat.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/jonboulle/clockwork"

	"neonresearch/cmd/neon/ui"
	"neonresearch/internal/animation"
	"neonresearch/internal/config"
	"neonresearch/internal/logging"
	"neonresearch/internal/session"
	"neonresearch/internal/terminal"
	"neonresearch/internal/types"
)

// ErrLoopFinished is returned by Run on a loop that already exited.
var ErrLoopFinished = errors.New("session loop already finished")

// =============================================================================
// STATES
// =============================================================================

// State is a position in the REPL state machine.
type State int

const (
	StateAwaitingInput State = iota
	StateResearching
	StateDisplayingResult
	StateAwaitingContinuation
	StateExiting
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "AwaitingInput"
	case StateResearching:
		return "Researching"
	case StateDisplayingResult:
		return "DisplayingResult"
	case StateAwaitingContinuation:
		return "AwaitingContinuation"
	case StateExiting:
		return "Exiting"
	default:
		return "Unknown"
	}
}

// Animation policies accepted by Config.Policy.
const (
	PolicyAuto      = config.PolicyAuto
	PolicyTimeBoxed = config.PolicyTimeBoxed
	PolicyTaskBound = config.PolicyTaskBound
)

// TurnRecorder persists completed turns.
type TurnRecorder interface {
	RecordTurn(ctx context.Context, sessionID string, number int, turn types.Turn) error
}

// Config wires a Loop. Surface, Input, Synth, Session and Engine are required.
type Config struct {
	Surface *terminal.Surface
	Input   LineReader
	Ack     Acknowledger // defaults to LineAck over Input
	Synth   types.Synthesizer
	Session *session.State
	Engine  *animation.Engine

	Spec     animation.Spec // defaults to animation.DefaultSpec()
	Policy   string         // auto, timeboxed, taskbound
	MinDelay time.Duration
	MaxDelay time.Duration

	Store           TurnRecorder // optional
	Styles          ui.Styles    // zero value builds dark styles for Surface
	Markdown        *glamour.TermRenderer
	TypewriterDelay time.Duration
	ContinuePrompt  string
	Clock           clockwork.Clock // defaults to the engine clock

	// OnTransition is called after every state change.
	OnTransition func(from, to State)
}

// Loop is the REPL state machine.
type Loop struct {
	cfg  Config
	view *view

	mu       sync.Mutex
	state    State
	finished bool

	query  string
	result types.ResearchResult
	audit  *logging.AuditLogger
}

// NewLoop validates cfg and fills defaults.
func NewLoop(cfg Config) (*Loop, error) {
	switch {
	case cfg.Surface == nil:
		return nil, fmt.Errorf("chat loop requires a render surface")
	case cfg.Input == nil:
		return nil, fmt.Errorf("chat loop requires an input reader")
	case cfg.Synth == nil:
		return nil, fmt.Errorf("chat loop requires a synthesizer")
	case cfg.Session == nil:
		return nil, fmt.Errorf("chat loop requires a session")
	case cfg.Engine == nil:
		return nil, fmt.Errorf("chat loop requires an animation engine")
	}

	if cfg.Ack == nil {
		cfg.Ack = LineAck{Input: cfg.Input}
	}
	if len(cfg.Spec.Frames) == 0 {
		cfg.Spec = animation.DefaultSpec()
	}
	if err := cfg.Spec.Validate(); err != nil {
		return nil, err
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAuto
	}
	switch cfg.Policy {
	case PolicyAuto, PolicyTimeBoxed, PolicyTaskBound:
	default:
		return nil, fmt.Errorf("invalid animation policy: %s", cfg.Policy)
	}
	if cfg.MinDelay < 0 || cfg.MaxDelay < cfg.MinDelay {
		return nil, fmt.Errorf("invalid animation delays: min=%v max=%v", cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.Styles.Width == 0 {
		cfg.Styles = ui.NewStyles(cfg.Surface.Renderer(), ui.DarkTheme(), 0)
	}
	if cfg.ContinuePrompt == "" {
		cfg.ContinuePrompt = "Press Enter to continue..."
	}
	if cfg.Clock == nil {
		cfg.Clock = cfg.Engine.Clock()
	}

	return &Loop{
		cfg: cfg,
		view: &view{
			surface:  cfg.Surface,
			styles:   cfg.Styles,
			markdown: cfg.Markdown,
			clock:    cfg.Clock,
			typeRate: cfg.TypewriterDelay,
			prompt:   cfg.ContinuePrompt,
		},
		state: StateAwaitingInput,
	}, nil
}

// NewMarkdown returns a glamour renderer for result summaries. Plain profiles
// get the notty style so no escape codes are emitted.
func NewMarkdown(theme ui.Theme, plain bool, width int) (*glamour.TermRenderer, error) {
	style := "dark"
	switch {
	case plain:
		style = "notty"
	case !theme.IsDark:
		style = "light"
	}
	if width <= 8 {
		width = 60
	}
	return glamour.NewTermRenderer(
		glamour.WithStylePath(style),
		glamour.WithWordWrap(width-8),
	)
}

// State returns the current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) transition(to State) {
	l.mu.Lock()
	from := l.state
	l.state = to
	l.mu.Unlock()

	logging.SessionDebug("loop: %s -> %s", from, to)
	if l.cfg.OnTransition != nil {
		l.cfg.OnTransition(from, to)
	}
}

// =============================================================================
// RUN
// =============================================================================

// Run drives the REPL until the user exits, input ends, or ctx is done.
// A loop runs once; later calls return ErrLoopFinished.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.finished {
		l.mu.Unlock()
		return ErrLoopFinished
	}
	l.finished = true
	l.mu.Unlock()

	started := l.cfg.Clock.Now()
	l.audit = logging.AuditWithSession(l.cfg.Session.ID())
	l.audit.SessionStart(synthName(l.cfg.Synth), l.cfg.Policy)
	defer func() { l.audit.SessionEnd(l.cfg.Session.Len(), l.cfg.Clock.Since(started)) }()

	logging.Session("session %s: loop started (synth latency=%s policy=%s)",
		l.cfg.Session.ID(), types.LatencyOf(l.cfg.Synth), l.cfg.Policy)
	l.view.banner()

	for {
		switch l.State() {
		case StateAwaitingInput:
			if err := l.awaitInput(ctx); err != nil {
				return err
			}

		case StateResearching:
			result, err := l.research(ctx, l.query)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				var genErr *types.GenerationError
				if !errors.As(err, &genErr) {
					return err
				}
				logging.Get(logging.CategorySession).With("session", l.cfg.Session.ID(), "kind", string(genErr.Kind)).
					Warn("research failed: %v", genErr)
				l.view.generationError(genErr)
				l.transition(StateAwaitingInput)
				continue
			}
			l.result = result
			l.transition(StateDisplayingResult)

		case StateDisplayingResult:
			if err := l.view.result(ctx, l.result); err != nil {
				return err
			}
			l.transition(StateAwaitingContinuation)

		case StateAwaitingContinuation:
			l.view.continuePrompt()
			if err := l.cfg.Ack.Wait(ctx); err != nil {
				return err
			}
			l.cfg.Surface.Clear()
			l.view.banner()
			l.transition(StateAwaitingInput)

		case StateExiting:
			l.view.goodbye()
			logging.Session("session %s: loop finished after %d turns", l.cfg.Session.ID(), l.cfg.Session.Len())
			return nil
		}
	}
}

func (l *Loop) awaitInput(ctx context.Context) error {
	l.view.inputPrompt()
	line, err := l.cfg.Input.ReadLine(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			l.cfg.Surface.Println("")
			l.transition(StateExiting)
			return nil
		}
		return err
	}

	cmd := ParseCommand(line)
	switch cmd.Kind {
	case CommandExit:
		l.transition(StateExiting)
	case CommandQuery:
		l.query = cmd.Query
		l.transition(StateResearching)
	}
	return nil
}

// =============================================================================
// RESEARCH
// =============================================================================

// research runs one turn. The session is back to Ready on every return path.
func (l *Loop) research(ctx context.Context, query string) (types.ResearchResult, error) {
	if err := l.cfg.Session.BeginTurn(); err != nil {
		return types.ResearchResult{}, err
	}
	number := l.cfg.Session.Len() + 1
	started := l.cfg.Clock.Now()
	l.audit.TurnStart(number, query)
	l.view.researching(query)

	result, err := l.generate(ctx, query)
	if err != nil {
		_ = l.cfg.Session.AbortTurn()
		l.audit.TurnError(number, string(types.AsGenerationError(query, err).Kind), err)
		return types.ResearchResult{}, err
	}

	turn, err := l.cfg.Session.CompleteTurn(query, result)
	if err != nil {
		return types.ResearchResult{}, fmt.Errorf("failed to complete turn: %w", err)
	}
	l.audit.TurnEnd(number, l.cfg.Clock.Since(started))
	l.record(ctx, turn)
	return turn.Result, nil
}

func (l *Loop) taskBound() bool {
	switch l.cfg.Policy {
	case PolicyTaskBound:
		return true
	case PolicyTimeBoxed:
		return false
	default:
		return types.LatencyOf(l.cfg.Synth) == types.LatencyVariable
	}
}

func (l *Loop) generate(ctx context.Context, query string) (types.ResearchResult, error) {
	timer := logging.StartTimer(logging.CategorySynth, "research")
	defer timer.StopWithThreshold(5 * time.Second)

	if !l.taskBound() {
		if _, err := l.cfg.Engine.TimeBox(ctx, l.cfg.Spec, l.cfg.MinDelay, l.cfg.MaxDelay); err != nil {
			return types.ResearchResult{}, err
		}
		result, err := l.cfg.Synth.Generate(ctx, query)
		if err != nil {
			return types.ResearchResult{}, types.AsGenerationError(query, err)
		}
		return result.Normalize(), nil
	}

	var result types.ResearchResult
	_, err := l.cfg.Engine.Track(ctx, l.cfg.Spec, func(gctx context.Context) error {
		r, err := l.cfg.Synth.Generate(gctx, query)
		if err != nil {
			return types.AsGenerationError(query, err)
		}
		result = r.Normalize()
		return nil
	})
	if err != nil {
		return types.ResearchResult{}, err
	}
	return result, nil
}

func (l *Loop) record(ctx context.Context, turn types.Turn) {
	if l.cfg.Store == nil {
		return
	}
	number := l.cfg.Session.Len()
	err := l.cfg.Store.RecordTurn(ctx, l.cfg.Session.ID(), number, turn)
	l.audit.HistoryWrite(number, err)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("failed to record turn %d: %v", number, err)
		l.view.warning("Warning: could not save this turn to history.")
	}
}

func synthName(s types.Synthesizer) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
