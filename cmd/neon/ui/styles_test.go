package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")
	t.Setenv("NEON_THEME", "light")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme when NEON_THEME=light")
	}

	t.Setenv("NEON_THEME", "")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme by default")
	}

	t.Setenv("COLORFGBG", "0;15")
	if DetectTheme().IsDark {
		t.Fatalf("expected light theme for light COLORFGBG background")
	}

	t.Setenv("COLORFGBG", "15;0")
	if !DetectTheme().IsDark {
		t.Fatalf("expected dark theme for dark COLORFGBG background")
	}
}

func TestThemeByName(t *testing.T) {
	if ThemeByName("LIGHT").IsDark {
		t.Fatalf("expected light theme")
	}
	if !ThemeByName("dark").IsDark {
		t.Fatalf("expected dark theme")
	}
}

func TestRuleIsPlainUnderAscii(t *testing.T) {
	r := lipgloss.NewRenderer(&bytes.Buffer{}, termenv.WithProfile(termenv.Ascii))
	r.SetColorProfile(termenv.Ascii)
	s := NewStyles(r, DarkTheme(), 0)

	if s.Width != 60 {
		t.Fatalf("expected default width 60, got %d", s.Width)
	}
	if got := Rule(s.Border, "═", 3); got != "═══" {
		t.Fatalf("unexpected rule: %q", got)
	}
}
