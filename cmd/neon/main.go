// Package main implements the neon research CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"neonresearch/cmd/neon/chat"
	"neonresearch/internal/config"
	"neonresearch/internal/logging"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// version is set at build time with -ldflags "-X main.version=..."
	version = "dev"
)

// rootCmd starts the interactive research session.
var rootCmd = &cobra.Command{
	Use:   "neon",
	Short: "SpicyNick Research System - a neon terminal research assistant",
	Long: `neon is an interactive research assistant for the terminal.

Type a research query and neon answers with a topic summary, key findings,
sources and follow-up questions while a neon status animation runs.
Answers come from a built-in template synthesizer or, with provider "gemini"
and GEMINI_API_KEY set, from a Gemini model.

Run without arguments to start the interactive session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context(), os.Stdin, os.Stdout)
	},
}

// versionCmd prints the build version.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the neon version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "neon %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default .neon/config.yaml or ~/.neonresearch/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging to the state directory")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of turns to show")

	rootCmd.AddCommand(historyCmd, versionCmd)
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the root command and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	return executeCommand(rootCmd, args, stdout, stderr)
}

// executeCommand runs cmd under a signal-aware context. Interrupts exit 0;
// any other failure or panic prints diagnostics and exits 1.
func executeCommand(cmd *cobra.Command, args []string, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stderr, "An error occurred: %v\n%s", r, debug.Stack())
			code = 1
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	defer logging.Sync()

	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled), errors.Is(err, chat.ErrInterrupted):
		logging.Boot("session interrupted: %v", err)
		fmt.Fprintln(stdout, "\nApplication terminated by user")
		return 0
	default:
		logging.Get(logging.CategoryBoot).Error("fatal: %v", err)
		fmt.Fprintf(stderr, "An error occurred: %v\n", err)
		return 1
	}
}

// loadConfig reads the configuration selected by --config.
func loadConfig(validate bool) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Logging.DebugMode = true
		cfg.Logging.Level = "debug"
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	opts := logging.Options{
		DebugMode:  cfg.Logging.DebugMode,
		Level:      cfg.Logging.Level,
		JSONFormat: cfg.Logging.Format == "json",
		Categories: cfg.Logging.Categories,
	}
	if err := logging.Initialize(config.StateDir(), opts); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}
