package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Sternrassler/feedloader/internal/tui"
	"github.com/Sternrassler/feedloader/pkg/loader"
	"github.com/Sternrassler/feedloader/pkg/logging"
)

// errNotTerminal is returned when browse is run without a terminal.
var errNotTerminal = errors.New("browse needs an interactive terminal; use serve instead")

func newBrowseCmd(opts *options) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the list in the terminal",
		Long:  "Scroll through the list. Pages load as you near the end, r refreshes from the top.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
				return errNotTerminal
			}
			return runBrowse(cmd.Context(), opts, logFile)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (logs are discarded otherwise)")
	return cmd
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func runBrowse(ctx context.Context, opts *options, logFile string) error {
	var output io.Writer = io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		output = f
	}
	logging.Setup(logging.Config{
		Level:  logging.LogLevel(opts.LogLevel),
		Output: output,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fetcher, cleanup, err := opts.buildFetcher(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	l := loader.New(fetcher, opts.loaderConfig())
	p := tea.NewProgram(tui.New(ctx, l, opts.RefreshTimeout), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run interactive TUI: %w", err)
	}
	return nil
}
