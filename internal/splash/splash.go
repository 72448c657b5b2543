// Package splash provides the fixed intro sequence shown at startup: a pulsing
// logo drawn with full-screen clears, a typed-out tagline and a determinate
// loading bar. Every phase has a fixed duration; nothing is randomized.
package splash

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"neonresearch/internal/logging"
	"neonresearch/internal/terminal"
)

// Logo is the banner drawn during the pulse phase.
const Logo = `
   _____       _            _   _ _      _
  / ____|     (_)          | \ | (_)    | |
 | (___  _ __  _  ___ _   _|  \| |_  ___| | __
  \___ \| '_ \| |/ __| | | | . ` + "`" + ` | |/ __| |/ /
  ____) | |_) | | (__| |_| | |\  | | (__|   <
 |_____/| .__/|_|\___|\__, |_| \_|_|\___|_|\_\
        | |            __/ |
        |_|           |___/
`

const taglineIndent = "          "

// Config holds the fixed timings and content of the sequence.
type Config struct {
	Logo        string
	Tagline     string
	StatusText  string
	LoadingText string

	Colors      []lipgloss.Color // one per redraw, wrapping
	StaticColor lipgloss.Color
	AccentColor lipgloss.Color

	Redraws          int
	RedrawDelay      time.Duration
	TypeDelay        time.Duration
	ProgressStep     float64
	ProgressTarget   float64
	ProgressInterval time.Duration
	FinalPause       time.Duration
	BarWidth         int
}

// DefaultConfig returns the stock sequence: three pulses through nine colors.
func DefaultConfig() Config {
	colors := []lipgloss.Color{
		"#FF00FF", "#FF3366", "#FF0066", "#FF3300", "#FF6600",
		"#FF0000", "#FF3300", "#FF6600", "#FF00FF",
	}
	return Config{
		Logo:             Logo,
		Tagline:          ">> PREMIUM RESEARCH EXPERIENCE <<",
		StatusText:       "Initializing SpicyNick Research System...",
		LoadingText:      "Loading components...",
		Colors:           colors,
		StaticColor:      "#FF00FF",
		AccentColor:      "#FF8C00",
		Redraws:          3 * len(colors),
		RedrawDelay:      100 * time.Millisecond,
		TypeDelay:        50 * time.Millisecond,
		ProgressStep:     1.5,
		ProgressTarget:   100,
		ProgressInterval: 20 * time.Millisecond,
		FinalPause:       500 * time.Millisecond,
		BarWidth:         40,
	}
}

// Validate rejects configurations that cannot run.
func (c Config) Validate() error {
	switch {
	case len(c.Colors) == 0:
		return errors.New("splash: no colors")
	case c.Redraws < 0:
		return fmt.Errorf("splash: negative redraw count %d", c.Redraws)
	case c.ProgressStep <= 0:
		return fmt.Errorf("splash: progress step must be positive, got %v", c.ProgressStep)
	case c.ProgressTarget <= 0:
		return fmt.Errorf("splash: progress target must be positive, got %v", c.ProgressTarget)
	case c.RedrawDelay < 0 || c.TypeDelay < 0 || c.ProgressInterval < 0 || c.FinalPause < 0:
		return errors.New("splash: delays must not be negative")
	}
	return nil
}

// Duration is the total run time: the sum of every fixed phase.
func (c Config) Duration() time.Duration {
	ticks := NewProgress(c.ProgressStep, c.ProgressTarget).Ticks()
	return time.Duration(c.Redraws)*c.RedrawDelay +
		time.Duration(len([]rune(c.Tagline)))*c.TypeDelay +
		time.Duration(ticks)*c.ProgressInterval +
		c.FinalPause
}

// Stats reports what a run did.
type Stats struct {
	Redraws       int
	TypedRunes    int
	ProgressTicks int
	FinalProgress float64
	Elapsed       time.Duration
}

// Surface is the part of the render surface the sequence needs.
type Surface interface {
	Claim() (*terminal.Lease, error)
}

// Sequence plays the intro on a surface.
type Sequence struct {
	surface Surface
	clock   clockwork.Clock
	cfg     Config
}

// New creates a sequence. A nil clock uses the real clock.
func New(surface Surface, cfg Config, clock clockwork.Clock) (*Sequence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Sequence{surface: surface, clock: clock, cfg: cfg}, nil
}

// Run plays every phase and leaves a cleared screen. Cancellation stops the
// sequence at the next pause and still releases the surface.
func (s *Sequence) Run(ctx context.Context) (Stats, error) {
	lease, err := s.surface.Claim()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to claim render surface: %w", err)
	}
	defer lease.Release()
	lease.HideCursor()

	log := logging.Get(logging.CategorySplash)
	start := s.clock.Now()
	var stats Stats
	finish := func(err error) (Stats, error) {
		stats.Elapsed = s.clock.Since(start)
		if err != nil {
			log.Debug("splash interrupted after %v: %v", stats.Elapsed, err)
		} else {
			log.Debug("splash finished in %v", stats.Elapsed)
		}
		return stats, err
	}

	if err := s.pulse(ctx, lease, &stats); err != nil {
		return finish(err)
	}
	if err := s.typeTagline(ctx, lease, &stats); err != nil {
		return finish(err)
	}
	if err := s.load(ctx, lease, &stats); err != nil {
		return finish(err)
	}
	if err := s.pause(ctx, s.cfg.FinalPause); err != nil {
		return finish(err)
	}
	lease.Clear()
	return finish(nil)
}

// pulse redraws the whole screen once per color step.
func (s *Sequence) pulse(ctx context.Context, lease *terminal.Lease, stats *Stats) error {
	for i := 0; i < s.cfg.Redraws; i++ {
		style := lease.NewStyle().Bold(true).Foreground(s.cfg.Colors[i%len(s.cfg.Colors)])
		lease.Clear()
		lease.Print(style.Render(s.cfg.Logo) + "\n")
		lease.Print(style.Render(taglineIndent+s.cfg.Tagline) + "\n")
		stats.Redraws++
		if err := s.pause(ctx, s.cfg.RedrawDelay); err != nil {
			return err
		}
	}
	return nil
}

// typeTagline draws the static logo and reveals the tagline rune by rune.
func (s *Sequence) typeTagline(ctx context.Context, lease *terminal.Lease, stats *Stats) error {
	style := lease.NewStyle().Bold(true).Foreground(s.cfg.StaticColor)
	lease.Clear()
	lease.Print(style.Render(s.cfg.Logo) + "\n")

	var typed strings.Builder
	for _, r := range s.cfg.Tagline {
		typed.WriteRune(r)
		lease.UpdateLine(taglineIndent+typed.String(), style)
		stats.TypedRunes++
		if err := s.pause(ctx, s.cfg.TypeDelay); err != nil {
			return err
		}
	}
	lease.Print("\n\n")
	return nil
}

// load drives the progress bar to its target.
func (s *Sequence) load(ctx context.Context, lease *terminal.Lease, stats *Stats) error {
	accent := lease.NewStyle().Bold(true).Foreground(s.cfg.AccentColor)
	lease.Print("\n" + accent.Render(s.cfg.StatusText) + "\n")

	bar := progress.New(
		progress.WithGradient(string(s.cfg.StaticColor), string(s.cfg.AccentColor)),
		progress.WithWidth(s.cfg.BarWidth),
		progress.WithoutPercentage(),
	)
	frames := spinner.MiniDot.Frames

	p := NewProgress(s.cfg.ProgressStep, s.cfg.ProgressTarget)
	for !p.Done() {
		p.Advance()
		line := frames[stats.ProgressTicks%len(frames)] + " " + accent.Render(s.cfg.LoadingText) + " " + bar.ViewAs(p.Percent())
		lease.UpdateLine(line, lease.NewStyle())
		stats.ProgressTicks++
		if err := s.pause(ctx, s.cfg.ProgressInterval); err != nil {
			stats.FinalProgress = p.Value()
			return err
		}
	}
	stats.FinalProgress = p.Value()
	lease.Print("\n")
	return nil
}

func (s *Sequence) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := s.clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
