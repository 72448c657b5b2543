package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"neonresearch/cmd/neon/chat"
	"neonresearch/cmd/neon/ui"
	"neonresearch/internal/animation"
	"neonresearch/internal/config"
	"neonresearch/internal/logging"
	"neonresearch/internal/session"
	"neonresearch/internal/splash"
	"neonresearch/internal/store"
	"neonresearch/internal/synth"
	"neonresearch/internal/terminal"
	"neonresearch/internal/types"
)

// =============================================================================
// INTERACTIVE SESSION
// =============================================================================

// runInteractive wires every component and runs the REPL until exit.
func runInteractive(ctx context.Context, stdin *os.File, stdout io.Writer) error {
	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}
	if err := initLogging(cfg); err != nil {
		return err
	}
	timer := logging.StartTimer(logging.CategoryBoot, "startup")

	surface := terminal.New(stdout)
	theme := ui.ThemeByName(cfg.UI.Theme)
	styles := ui.NewStyles(surface.Renderer(), theme, cfg.UI.Width)

	synthesizer, spec, err := newSynthesizer(ctx, cfg)
	if err != nil {
		return err
	}
	spec.FrameInterval = cfg.GetFrameInterval()
	spec.TicksPerMessageChange = cfg.GetTicksPerMessageChange()

	var engineOpts []animation.EngineOption
	if cfg.Animation.Seed != 0 {
		engineOpts = append(engineOpts, animation.WithSeed(uint64(cfg.Animation.Seed)))
	}
	engine := animation.NewEngine(surface, engineOpts...)

	sess := session.New()
	loopCfg := chat.Config{
		Surface:         surface,
		Synth:           synthesizer,
		Session:         sess,
		Engine:          engine,
		Spec:            spec,
		Policy:          cfg.Animation.Policy,
		MinDelay:        cfg.GetMinDelay(),
		MaxDelay:        cfg.GetMaxDelay(),
		Styles:          styles,
		TypewriterDelay: cfg.GetTypewriterDelay(),
	}

	if md, err := chat.NewMarkdown(theme, surface.Profile() == termenv.Ascii, cfg.UI.Width); err == nil {
		loopCfg.Markdown = md
	} else {
		logging.Get(logging.CategoryUI).Warn("markdown renderer unavailable: %v", err)
	}

	if cfg.IsHistoryEnabled() {
		hs, err := store.NewHistoryStore(cfg.History.DatabasePath)
		if err != nil {
			logging.Get(logging.CategoryStore).Error("history disabled: %v", err)
			surface.Println(styles.Warning.Render("Warning: history disabled: " + err.Error()))
		} else {
			defer hs.Close()
			logging.Store("recording turns to %s", hs.Path())
			loopCfg.Store = hs
		}
	}

	input := chat.NewReader(stdin)
	defer input.Close()
	loopCfg.Input = input
	if term.IsTerminal(int(stdin.Fd())) {
		loopCfg.Ack = chat.KeyAck{In: stdin, Out: io.Discard}
		loopCfg.ContinuePrompt = "Press any key to continue..."
	}

	loop, err := chat.NewLoop(loopCfg)
	if err != nil {
		return err
	}

	logging.Boot("session %s ready: provider=%s policy=%s latency=%s",
		sess.ID(), cfg.LLM.Provider, cfg.Animation.Policy, types.LatencyOf(synthesizer))
	timer.Stop()

	if cfg.UI.Splash {
		seq, err := splash.New(surface, splash.DefaultConfig(), engine.Clock())
		if err != nil {
			return err
		}
		if _, err := seq.Run(ctx); err != nil {
			return err
		}
	}

	return loop.Run(ctx)
}

// newSynthesizer builds the configured backend and the animation it pairs with.
func newSynthesizer(ctx context.Context, cfg *config.Config) (types.Synthesizer, animation.Spec, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		g, err := synth.NewGemini(ctx, synth.GeminiConfig{
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
			Timeout: cfg.GetLLMTimeout(),
		})
		if err != nil {
			return nil, animation.Spec{}, fmt.Errorf("failed to create synthesizer: %w", err)
		}
		logging.Synth("using %s", g.Name())
		return g, animation.ThinkingSpec(), nil
	default:
		logging.Synth("using canned templates")
		return synth.NewCanned(synth.DefaultTemplates()), animation.DefaultSpec(), nil
	}
}
