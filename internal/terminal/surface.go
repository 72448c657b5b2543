// Package terminal provides the render surface shared by every component that
// writes to the user's terminal. A Surface is constructed once and injected;
// components that animate take an exclusive Lease for the duration of the
// animation, and anything printed by other writers meanwhile is queued and
// flushed when the lease is released.
package terminal

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ErrSurfaceBusy is returned by Claim while another lease is active.
var ErrSurfaceBusy = errors.New("render surface is already claimed")

const (
	defaultWidth   = 80
	clearScreenSeq = termenv.CSI + "2J" + termenv.CSI + "1;1H"
)

// Surface is a single-writer terminal output sink.
type Surface struct {
	mu       sync.Mutex
	out      *termenv.Output
	renderer *lipgloss.Renderer
	profile  termenv.Profile
	width    int

	line      string // plain text of the current in-place line
	lineWidth int    // printed cells of the current in-place line

	claimed bool
	pending bytes.Buffer
}

type options struct {
	profile    termenv.Profile
	hasProfile bool
	width      int
}

// Option configures a Surface.
type Option func(*options)

// WithProfile forces a color profile. termenv.Ascii disables all styling.
func WithProfile(p termenv.Profile) Option {
	return func(o *options) {
		o.profile = p
		o.hasProfile = true
	}
}

// WithWidth overrides terminal width detection.
func WithWidth(width int) Option {
	return func(o *options) { o.width = width }
}

// New creates a surface writing to w.
func New(w io.Writer, opts ...Option) *Surface {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	tty := isTerminal(w)
	if !o.hasProfile {
		o.profile = termenv.Ascii
		if tty {
			o.profile = termenv.EnvColorProfile()
		}
	}
	if o.width <= 0 {
		o.width = detectWidth(w, tty)
	}

	renderer := lipgloss.NewRenderer(w, termenv.WithProfile(o.profile))
	renderer.SetColorProfile(o.profile)

	return &Surface{
		out:      termenv.NewOutput(w, termenv.WithProfile(o.profile)),
		renderer: renderer,
		profile:  o.profile,
		width:    o.width,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func detectWidth(w io.Writer, tty bool) int {
	if !tty {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(w.(*os.File).Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}

// Renderer returns the lipgloss renderer bound to this surface's profile.
func (s *Surface) Renderer() *lipgloss.Renderer { return s.renderer }

// NewStyle returns a style that renders for this surface.
func (s *Surface) NewStyle() lipgloss.Style { return s.renderer.NewStyle() }

// Profile returns the active color profile.
func (s *Surface) Profile() termenv.Profile { return s.profile }

// Width returns the terminal width in cells.
func (s *Surface) Width() int { return s.width }

// Line returns the plain text currently shown on the in-place line.
func (s *Surface) Line() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.line
}

// Claimed reports whether a lease is active.
func (s *Surface) Claimed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimed
}

// Print writes text, queueing it while the surface is claimed.
func (s *Surface) Print(a ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(strings.Join(a, ""))
}

// Println writes text followed by a newline.
func (s *Surface) Println(a ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(strings.Join(a, "") + "\n")
}

// Clear clears the screen, or queues the clear while claimed.
func (s *Surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		s.pending.WriteString(clearScreenSeq)
		return
	}
	s.out.ClearScreen()
	s.line, s.lineWidth = "", 0
}

// Write implements io.Writer so a surface can back other writers.
func (s *Surface) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeLocked(string(p))
	return len(p), nil
}

func (s *Surface) writeLocked(text string) {
	if s.claimed {
		s.pending.WriteString(text)
		return
	}
	_, _ = io.WriteString(s.out, text)
}

// Claim takes exclusive ownership of the surface. The returned lease must be
// released on every exit path; releasing flushes queued output.
func (s *Surface) Claim() (*Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed {
		return nil, ErrSurfaceBusy
	}
	s.claimed = true
	return &Lease{s: s}, nil
}

// =============================================================================
// LEASE
// =============================================================================

// Lease is exclusive write access to a Surface.
type Lease struct {
	s        *Surface
	released bool
	hidden   bool
}

// UpdateLine overwrites the current line in place with styled text.
func (l *Lease) UpdateLine(text string, style lipgloss.Style) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released {
		return
	}

	rendered := style.Render(text)
	w := lipgloss.Width(rendered)
	pad := ""
	if w < l.s.lineWidth {
		pad = strings.Repeat(" ", l.s.lineWidth-w)
	}
	_, _ = io.WriteString(l.s.out, "\r"+rendered+pad)
	l.s.line = text
	l.s.lineWidth = max(w, l.s.lineWidth)
}

// ClearLine blanks the in-place line and returns the cursor to column 0.
func (l *Lease) ClearLine() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released {
		return
	}
	l.s.clearLineLocked()
}

func (s *Surface) clearLineLocked() {
	if s.lineWidth > 0 {
		_, _ = io.WriteString(s.out, "\r"+strings.Repeat(" ", s.lineWidth)+"\r")
	}
	s.line, s.lineWidth = "", 0
}

// Clear clears the whole screen.
func (l *Lease) Clear() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released {
		return
	}
	l.s.out.ClearScreen()
	l.s.line, l.s.lineWidth = "", 0
}

// Print writes text directly, bypassing the queue.
func (l *Lease) Print(text string) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released {
		return
	}
	_, _ = io.WriteString(l.s.out, text)
	if strings.Contains(text, "\n") {
		l.s.line, l.s.lineWidth = "", 0
	}
}

// HideCursor hides the cursor until ShowCursor or Release.
func (l *Lease) HideCursor() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released || l.hidden {
		return
	}
	l.s.out.HideCursor()
	l.hidden = true
}

// ShowCursor restores the cursor.
func (l *Lease) ShowCursor() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released || !l.hidden {
		return
	}
	l.s.out.ShowCursor()
	l.hidden = false
}

// Width returns the surface width.
func (l *Lease) Width() int { return l.s.width }

// NewStyle returns a style that renders for the leased surface.
func (l *Lease) NewStyle() lipgloss.Style { return l.s.renderer.NewStyle() }

// Release clears any in-place line, restores the cursor and flushes output
// queued while the lease was held. Safe to call more than once.
func (l *Lease) Release() {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	if l.released {
		return
	}
	l.released = true

	l.s.clearLineLocked()
	if l.hidden {
		l.s.out.ShowCursor()
		l.hidden = false
	}
	l.s.claimed = false
	if l.s.pending.Len() > 0 {
		_, _ = l.s.out.Write(l.s.pending.Bytes())
		l.s.pending.Reset()
	}
}
