// Package ui provides the visual styling for the neon research CLI.
// Uses the neon palette on dark terminals and a muted variant on light ones.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Neon palette
var (
	Magenta    = lipgloss.Color("#FF00FF")
	HotPink    = lipgloss.Color("#FF3366")
	NeonOrange = lipgloss.Color("#FF6600")
	OrangeRed  = lipgloss.Color("#FF4500")
	Amber      = lipgloss.Color("#FF8C00")
	Cyan       = lipgloss.Color("#00FFFF")
	Green      = lipgloss.Color("#00FF00")
	Yellow     = lipgloss.Color("#FFFF00")
	Red        = lipgloss.Color("#FF0000")

	// Light Mode Colors
	LightMagenta = lipgloss.Color("#A0009F")
	LightPink    = lipgloss.Color("#C2185B")
	LightOrange  = lipgloss.Color("#C43E00")
	LightCyan    = lipgloss.Color("#00838F")
	LightGreen   = lipgloss.Color("#2E7D32")
)

// Theme holds the current color scheme
type Theme struct {
	Border    lipgloss.Color
	Title     lipgloss.Color
	Hint      lipgloss.Color
	Topic     lipgloss.Color
	Findings  lipgloss.Color
	Sources   lipgloss.Color
	FollowUps lipgloss.Color
	Prompt    lipgloss.Color
	Answer    lipgloss.Color
	IsDark    bool
}

// DarkTheme returns the full neon theme
func DarkTheme() Theme {
	return Theme{
		Border:    Magenta,
		Title:     OrangeRed,
		Hint:      Amber,
		Topic:     HotPink,
		Findings:  NeonOrange,
		Sources:   Cyan,
		FollowUps: Green,
		Prompt:    Green,
		Answer:    Cyan,
		IsDark:    true,
	}
}

// LightTheme returns darker shades that stay readable on light backgrounds
func LightTheme() Theme {
	return Theme{
		Border:    LightMagenta,
		Title:     LightOrange,
		Hint:      LightOrange,
		Topic:     LightPink,
		Findings:  LightOrange,
		Sources:   LightCyan,
		FollowUps: LightGreen,
		Prompt:    LightGreen,
		Answer:    LightCyan,
		IsDark:    false,
	}
}

// ThemeByName resolves "dark", "light" or "auto".
func ThemeByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "dark":
		return DarkTheme()
	case "light":
		return LightTheme()
	default:
		return DetectTheme()
	}
}

// DetectTheme picks a theme from the environment. Neon is dark by default.
func DetectTheme() Theme {
	if v := os.Getenv("NEON_THEME"); v == "light" {
		return LightTheme()
	} else if v == "dark" {
		return DarkTheme()
	}

	// Format is usually "foreground;background"
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) >= 2 {
		if bgIdx, err := strconv.Atoi(parts[len(parts)-1]); err == nil {
			// 7 and 9-15 are light backgrounds
			if bgIdx == 7 || (bgIdx >= 9 && bgIdx <= 15) {
				return LightTheme()
			}
		}
	}
	return DarkTheme()
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme
	Width int

	// Banner
	Border lipgloss.Style
	Title  lipgloss.Style
	Hint   lipgloss.Style

	// Interactive
	Prompt      lipgloss.Style
	Researching lipgloss.Style
	Answer      lipgloss.Style

	// Results
	Heading   lipgloss.Style
	TopicBox  lipgloss.Style
	TopicName lipgloss.Style
	Findings  lipgloss.Style
	Sources   lipgloss.Style
	FollowUps lipgloss.Style

	// Status
	Error   lipgloss.Style
	Warning lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles creates styles rendered by r. width is the banner width.
func NewStyles(r *lipgloss.Renderer, theme Theme, width int) Styles {
	if width <= 0 {
		width = 60
	}
	bold := func(c lipgloss.Color) lipgloss.Style {
		return r.NewStyle().Bold(true).Foreground(c)
	}

	return Styles{
		Theme: theme,
		Width: width,

		Border: bold(theme.Border),
		Title:  bold(theme.Title),
		Hint:   bold(theme.Hint),

		Prompt:      bold(theme.Prompt),
		Researching: bold(theme.Sources),
		Answer:      bold(theme.Answer),

		Heading: bold(theme.Border),
		TopicBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(1, 2).
			Width(width - 2),
		TopicName: bold(theme.Topic),
		Findings:  bold(theme.Findings),
		Sources:   bold(theme.Sources),
		FollowUps: bold(theme.FollowUps),

		Error:   bold(Red),
		Warning: bold(Yellow),
		Muted:   r.NewStyle().Faint(true),
	}
}

// Rule returns a horizontal rule of width cells drawn with ch.
func Rule(style lipgloss.Style, ch string, width int) string {
	return style.Render(strings.Repeat(ch, width))
}
