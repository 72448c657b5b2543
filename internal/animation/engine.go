package animation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime/debug"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"neonresearch/internal/logging"
	"neonresearch/internal/terminal"
)

// Surface is the part of the render surface the engine needs.
type Surface interface {
	Claim() (*terminal.Lease, error)
}

// PanicError is returned by Track when the tracked function panics.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n%s", e.Value, e.Stack)
}

// Stats summarizes a finished run.
type Stats struct {
	Frames  int
	Elapsed time.Duration
	Budget  time.Duration // sampled TimeBoxed duration, 0 for TaskBound
}

// Engine renders status lines on a surface.
type Engine struct {
	surface Surface
	clock   clockwork.Clock

	rngMu sync.Mutex
	rng   *rand.Rand
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects the clock used for frame timing.
func WithClock(c clockwork.Clock) EngineOption {
	return func(e *Engine) { e.clock = c }
}

// WithRand injects the random source used to sample TimeBoxed durations.
func WithRand(r *rand.Rand) EngineOption {
	return func(e *Engine) { e.rng = r }
}

// WithSeed seeds the random source; equal seeds sample equal durations.
func WithSeed(seed uint64) EngineOption {
	return func(e *Engine) { e.rng = NewRand(seed) }
}

// NewRand returns the engine's deterministic random source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewEngine creates an engine drawing on surface.
func NewEngine(surface Surface, opts ...EngineOption) *Engine {
	e := &Engine{surface: surface}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = clockwork.NewRealClock()
	}
	if e.rng == nil {
		e.rng = NewRand(uint64(time.Now().UnixNano()))
	}
	return e
}

// Clock returns the engine's clock.
func (e *Engine) Clock() clockwork.Clock { return e.clock }

// sample draws a duration uniformly from [lo, hi). An empty range yields lo.
func (e *Engine) sample(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	return lo + time.Duration(e.rng.Int64N(int64(hi-lo)))
}

// =============================================================================
// CURSOR
// =============================================================================

// cursor tracks the frame, message and tick counters of one run.
// Message and color indices move in lockstep.
type cursor struct {
	frame   int
	message int
	ticks   int
}

func (c *cursor) current(spec Spec) (string, lipgloss.Color) {
	text := spec.Frames[c.frame%len(spec.Frames)] + " " + spec.Messages[c.message%len(spec.Messages)]
	return text, spec.Colors[c.message%len(spec.Colors)]
}

func (c *cursor) advance(ticksPerChange int) {
	c.frame++
	c.ticks++
	if c.ticks >= ticksPerChange {
		c.message++
		c.ticks = 0
	}
}

// =============================================================================
// RUN
// =============================================================================

// Run animates the status line until stop fires or ctx is done. The line is
// cleared and the cursor restored on every return path. At least one frame
// is rendered and the stop condition is checked at least once.
func (e *Engine) Run(ctx context.Context, spec Spec, stop StopPolicy) (Stats, error) {
	if err := spec.Validate(); err != nil {
		return Stats{}, err
	}
	if err := stop.Validate(); err != nil {
		return Stats{}, err
	}

	lease, err := e.surface.Claim()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to claim render surface: %w", err)
	}
	defer lease.Release()
	lease.HideCursor()

	var stats Stats
	budget := time.Duration(-1)
	if !stop.IsTaskBound() {
		budget = e.sample(stop.lo, stop.hi)
		stats.Budget = budget
	}

	log := logging.Get(logging.CategoryAnimation)
	log.Debug("animation started: policy=%s budget=%v", stop, budget)

	start := e.clock.Now()
	var cur cursor
	for {
		text, color := cur.current(spec)
		lease.UpdateLine(text, lease.NewStyle().Bold(true).Foreground(color))
		stats.Frames++
		cur.advance(spec.TicksPerMessageChange)

		wait := spec.FrameInterval
		if budget >= 0 {
			remaining := budget - e.clock.Since(start)
			if remaining <= 0 {
				break
			}
			wait = min(wait, remaining)
		}

		finished, err := e.wait(ctx, stop.done, wait)
		if err != nil {
			stats.Elapsed = e.clock.Since(start)
			log.Debug("animation interrupted after %d frames: %v", stats.Frames, err)
			return stats, err
		}
		if finished {
			break
		}
		if budget >= 0 && e.clock.Since(start) >= budget {
			break
		}
	}

	stats.Elapsed = e.clock.Since(start)
	log.Debug("animation stopped: frames=%d elapsed=%v", stats.Frames, stats.Elapsed)
	return stats, nil
}

// wait sleeps for d. It reports true when done closes first.
// Only one timer is outstanding at a time.
func (e *Engine) wait(ctx context.Context, done <-chan struct{}, d time.Duration) (bool, error) {
	timer := e.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-done:
		return true, nil
	case <-timer.Chan():
		return false, nil
	}
}

// TimeBox animates for a duration sampled from [lo, hi).
func (e *Engine) TimeBox(ctx context.Context, spec Spec, lo, hi time.Duration) (Stats, error) {
	return e.Run(ctx, spec, TimeBoxed(lo, hi))
}

// Track runs fn while animating, stopping the moment fn returns.
// fn's error wins over the cancellation it causes in the animation.
// A panic in fn stops the animation and comes back as a *PanicError.
func (e *Engine) Track(ctx context.Context, spec Spec, fn func(context.Context) error) (Stats, error) {
	if err := spec.Validate(); err != nil {
		return Stats{}, err
	}

	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	var stats Stats
	g.Go(func() (err error) {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logging.Get(logging.CategoryAnimation).Error("tracked task panicked: %v", r)
				err = &PanicError{Value: r, Stack: debug.Stack()}
			}
		}()
		return fn(gctx)
	})
	g.Go(func() error {
		var err error
		stats, err = e.Run(gctx, spec, TaskBound(done))
		return err
	})

	err := g.Wait()
	return stats, err
}
