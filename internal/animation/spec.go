// Package animation provides the status line engine: a single in-place line
// cycling spinner frames, status messages and colors until a stop policy fires.
// This file holds the animation description and its stop policies.
package animation

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// ErrInvalidSpec is wrapped by every Spec and StopPolicy validation failure.
var ErrInvalidSpec = errors.New("invalid animation spec")

// Spec describes what the status line shows.
type Spec struct {
	Frames                []string
	Messages              []string
	Colors                []lipgloss.Color
	FrameInterval         time.Duration
	TicksPerMessageChange int
}

// Neon palette shared by the status line and the splash sequence.
var NeonColors = []lipgloss.Color{
	"#FF00FF", // magenta
	"#FF3366", // hot pink
	"#FF0066", // neon pink
	"#FF3300", // neon orange
	"#FF6600", // bright orange
	"#FF0000", // red
}

// ResearchMessages rotate while a research answer is being prepared.
var ResearchMessages = []string{
	"Searching knowledge base...",
	"Analyzing information...",
	"Consulting sources...",
	"Processing data...",
	"Synthesizing findings...",
	"Formulating response...",
	"Verifying facts...",
	"Organizing content...",
	"Finalizing research...",
}

// ThinkingMessages are shown while a remote model is working.
var ThinkingMessages = []string{
	"Gemini is thinking...",
}

// DefaultSpec returns the research status line.
func DefaultSpec() Spec {
	return Spec{
		Frames:                append([]string(nil), spinner.MiniDot.Frames...),
		Messages:              append([]string(nil), ResearchMessages...),
		Colors:                append([]lipgloss.Color(nil), NeonColors...),
		FrameInterval:         100 * time.Millisecond,
		TicksPerMessageChange: 15,
	}
}

// ThinkingSpec returns the indeterminate spinner used around remote calls.
func ThinkingSpec() Spec {
	spec := DefaultSpec()
	spec.Messages = append([]string(nil), ThinkingMessages...)
	spec.Colors = []lipgloss.Color{"#00FFFF"}
	return spec
}

// Validate rejects specs the engine cannot cycle through.
func (s Spec) Validate() error {
	switch {
	case len(s.Frames) == 0:
		return fmt.Errorf("%w: no frames", ErrInvalidSpec)
	case len(s.Messages) == 0:
		return fmt.Errorf("%w: no messages", ErrInvalidSpec)
	case len(s.Colors) == 0:
		return fmt.Errorf("%w: no colors", ErrInvalidSpec)
	case s.FrameInterval <= 0:
		return fmt.Errorf("%w: frame interval must be positive, got %v", ErrInvalidSpec, s.FrameInterval)
	case s.TicksPerMessageChange <= 0:
		return fmt.Errorf("%w: ticks per message change must be positive, got %d", ErrInvalidSpec, s.TicksPerMessageChange)
	}
	return nil
}

// =============================================================================
// STOP POLICIES
// =============================================================================

type policyKind int

const (
	policyTimeBoxed policyKind = iota + 1
	policyTaskBound
)

// StopPolicy decides when a run ends. Construct with TimeBoxed or TaskBound.
type StopPolicy struct {
	kind   policyKind
	lo, hi time.Duration
	done   <-chan struct{}
}

// TimeBoxed stops after a duration sampled uniformly from [lo, hi).
// Use it when there is no real work to track.
func TimeBoxed(lo, hi time.Duration) StopPolicy {
	return StopPolicy{kind: policyTimeBoxed, lo: lo, hi: hi}
}

// TaskBound stops as soon as done is closed. No ceiling is imposed.
func TaskBound(done <-chan struct{}) StopPolicy {
	return StopPolicy{kind: policyTaskBound, done: done}
}

// IsTaskBound reports whether the policy tracks an external task.
func (p StopPolicy) IsTaskBound() bool { return p.kind == policyTaskBound }

func (p StopPolicy) String() string {
	switch p.kind {
	case policyTimeBoxed:
		return fmt.Sprintf("TimeBoxed(%v, %v)", p.lo, p.hi)
	case policyTaskBound:
		return "TaskBound"
	default:
		return "Unset"
	}
}

// Validate rejects zero-value and inconsistent policies.
func (p StopPolicy) Validate() error {
	switch p.kind {
	case policyTimeBoxed:
		if p.lo < 0 || p.hi < p.lo {
			return fmt.Errorf("%w: bad time box [%v, %v)", ErrInvalidSpec, p.lo, p.hi)
		}
	case policyTaskBound:
		if p.done == nil {
			return fmt.Errorf("%w: task-bound policy needs a completion channel", ErrInvalidSpec)
		}
	default:
		return fmt.Errorf("%w: stop policy not set", ErrInvalidSpec)
	}
	return nil
}
