package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"

	"neonresearch/cmd/neon/ui"
	"neonresearch/internal/logging"
	"neonresearch/internal/terminal"
	"neonresearch/internal/types"
)

const (
	bannerTitle   = "SpicyNick Research System"
	bannerHint    = "Type your research query below or 'exit' to quit"
	sectionWidth  = 40
	goodbyeText   = "Goodbye!"
	promptText    = "Enter your research query:"
	promptMarker  = "> "
	resultsHeader = "Research Results"
)

// view renders loop output onto the shared surface. It never claims the
// surface, so anything printed while an animation runs is queued.
type view struct {
	surface  *terminal.Surface
	styles   ui.Styles
	markdown *glamour.TermRenderer
	clock    clockwork.Clock
	typeRate time.Duration
	prompt   string
}

// =============================================================================
// BANNER AND PROMPTS
// =============================================================================

func (v *view) banner() {
	s := v.styles
	rule := ui.Rule(s.Border, "═", s.Width)

	inner := " " + bannerTitle
	pad := s.Width - 2 - lipgloss.Width(inner)
	if pad < 0 {
		pad = 0
	}
	title := s.Border.Render("║") + s.Title.Render(inner) + strings.Repeat(" ", pad) + s.Border.Render("║")

	v.surface.Println(rule, title, rule, s.Hint.Render(bannerHint), "")
}

func (v *view) inputPrompt() {
	v.surface.Println(v.styles.Prompt.Render(promptText))
	v.surface.Print(v.styles.Prompt.Render(promptMarker))
}

func (v *view) researching(query string) {
	v.surface.Println("", v.styles.Researching.Render("Researching: "+query))
}

func (v *view) continuePrompt() {
	v.surface.Println("", v.styles.Hint.Render(v.prompt))
}

func (v *view) goodbye() {
	v.surface.Println("", v.styles.Title.Render(goodbyeText))
}

func (v *view) generationError(err *types.GenerationError) {
	msg := fmt.Sprintf("Research failed (%s)", err.Kind)
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	v.surface.Println("", v.styles.Error.Render(msg))
	if err.Kind == types.GenerationAuth {
		v.surface.Println(v.styles.Muted.Render("Check GEMINI_API_KEY and try again."))
	}
	v.surface.Println("")
}

func (v *view) warning(msg string) {
	v.surface.Println(v.styles.Warning.Render(msg))
}

// =============================================================================
// RESULTS
// =============================================================================

// result renders the topic panel followed by the numbered sections.
func (v *view) result(ctx context.Context, r types.ResearchResult) error {
	s := v.styles
	rule := ui.Rule(s.Border, "═", s.Width)
	v.surface.Println("", rule, s.Heading.Render(resultsHeader), rule, "")

	if v.typeRate > 0 {
		v.surface.Println(s.TopicName.Render("Topic: " + r.Topic))
		if err := v.typewrite(ctx, r.Summary); err != nil {
			return err
		}
		v.surface.Println("", "")
	} else {
		v.surface.Println(v.panel(r))
	}

	v.section("Key Findings", s.Findings, r.KeyPoints)
	v.section("References & Sources", s.Sources, r.Sources)
	v.section("Suggested Follow-up Research", s.FollowUps, r.FollowUpQuestions)

	v.surface.Println(rule)
	return nil
}

func (v *view) panel(r types.ResearchResult) string {
	body := r.Summary
	if v.markdown != nil && body != "" {
		if rendered, err := v.markdown.Render(body); err == nil {
			body = strings.Trim(rendered, "\n")
		} else {
			logging.Get(logging.CategoryUI).Warn("markdown render failed: %v", err)
		}
	}
	title := v.styles.TopicName.Render("Topic: " + r.Topic)
	return v.styles.TopicBox.Render(title + "\n\n" + body)
}

func (v *view) section(heading string, style lipgloss.Style, items []string) {
	if len(items) == 0 {
		return
	}
	lines := []string{
		ui.Rule(style, "─", sectionWidth),
		style.Render(heading),
		ui.Rule(style, "─", sectionWidth),
	}
	for i, item := range items {
		num := v.styles.TopicName.Render(fmt.Sprintf("%d.", i+1))
		lines = append(lines, "  "+num+" "+item)
	}
	lines = append(lines, "")
	v.surface.Println(lines...)
}

// typewrite reveals text one rune at a time.
func (v *view) typewrite(ctx context.Context, text string) error {
	for _, r := range text {
		v.surface.Print(v.styles.Answer.Render(string(r)))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.clock.After(v.typeRate):
		}
	}
	return nil
}
