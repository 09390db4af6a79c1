package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/nao1215/wikiscope/internal/pipeline"
	"github.com/nao1215/wikiscope/internal/report"
	"github.com/nao1215/wikiscope/internal/suggest"
	"github.com/spf13/cobra"
)

// ErrPickOutOfRange is returned when --pick does not name a listed suggestion.
var ErrPickOutOfRange = errors.New("pick is out of range")

// NewSuggestCmd creates the suggest command.
func NewSuggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest [prefix...]",
		Short: "List article titles matching a prefix",
		Long: `Suggest lists up to eight Wikipedia article titles starting with the
given prefix. Several arguments are joined with spaces.

With --pick N the N-th suggestion (counting from 1) is looked up right away,
exactly as if it had been passed to 'wikiscope search'.

Examples:
  # List completions
  wikiscope suggest albert ein

  # Look up the first completion
  wikiscope suggest --pick 1 albert ein`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSuggestCmd,
	}

	addClientFlags(cmd)
	cmd.Flags().IntP("pick", "p", 0,
		"Look up the N-th suggestion (1-based)")

	return cmd
}

// runSuggestCmd executes the suggest command.
func runSuggestCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	pick, err := cmd.Flags().GetInt("pick")
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	client, err := newClient(cfg, logger, nil)
	if err != nil {
		return err
	}

	p := newPipeline(client, cfg, searchOptions{}, logger, nil)
	return runSuggest(ctx, cmd.OutOrStdout(), strings.Join(args, " "), pick, client, p, logger)
}

// runSuggest prints the suggestions for prefix and, if pick > 0, looks up
// the chosen one with panels printed live.
func runSuggest(ctx context.Context, out io.Writer, prefix string, pick int, source suggest.Source, p *pipeline.Pipeline, logger *slog.Logger) error {
	stream := report.NewStreamRenderer(out)
	runner := pipeline.NewRunner(p, stream, pipeline.WithRunnerLogger(logger))

	provider := suggest.NewProvider(source, runner.Run, suggest.WithLogger(logger))
	items := provider.Refresh(ctx, prefix)

	if len(items) == 0 {
		fmt.Fprintf(out, "No suggestions for %q.\n", provider.Query())
		if pick > 0 {
			return ErrPickOutOfRange
		}
		return nil
	}

	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}

	if pick <= 0 {
		return nil
	}
	if pick > len(items) {
		return fmt.Errorf("%w: %d (have %d suggestions)", ErrPickOutOfRange, pick, len(items))
	}

	fmt.Fprintf(out, "\nLooking up %q...\n\n", items[pick-1])
	lookup, err := provider.Select(ctx, items[pick-1])
	if werr := stream.Err(); werr != nil {
		return fmt.Errorf("failed to write output: %w", werr)
	}
	if err != nil {
		return err
	}
	if lookup != nil {
		fmt.Fprintf(out, "Lookup completed in %s\n", lookup.Elapsed.Round(time.Millisecond))
	}
	return nil
}
