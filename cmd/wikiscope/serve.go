package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/wikiscope/internal/config"
	"github.com/nao1215/wikiscope/internal/database"
	"github.com/nao1215/wikiscope/internal/log"
	"github.com/nao1215/wikiscope/internal/metrics"
	"github.com/nao1215/wikiscope/internal/server"
	"github.com/spf13/cobra"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve suggestions and lookups over HTTP",
		Long: `Serve starts an HTTP API exposing the suggestion and lookup flows:

  GET /api/suggest?q=<prefix>        title completions
  GET /api/lookup?q=<query>          finished lookup as JSON
  GET /api/lookup/stream?q=<query>   panel updates as server-sent events
  GET /api/lookups/<id>              a stored lookup
  GET /api/history?title=<title>     stored lookups of an article
  GET /metrics                       Prometheus metrics
  GET /healthz                       liveness probe

Examples:
  # Listen on the default address (127.0.0.1:8080)
  wikiscope serve

  # Listen on all interfaces, port 9000, with concurrent enrichment
  wikiscope serve --listen :9000 --concurrent`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addClientFlags(cmd)
	cmd.Flags().String("listen", "",
		"Listen address (default: 127.0.0.1:8080)")
	cmd.Flags().Bool("concurrent", false,
		"Run the enrichment stages concurrently once the article is known")
	cmd.Flags().Bool("no-history", false,
		"Do not save lookups to the history database and disable the history routes")

	return cmd
}

// runServeCmd executes the serve command.
func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrent") {
		if cfg.ConcurrentEnrichment, err = flags.GetBool("concurrent"); err != nil {
			return err
		}
	}
	noHistory, err := flags.GetBool("no-history")
	if err != nil {
		return err
	}
	cfg.SaveToDB = !noHistory

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newServeLogger(os.Stderr, cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	collector := metrics.NewCollector(metrics.WithProcessMetrics())

	client, err := newClient(cfg, logger, collector)
	if err != nil {
		return err
	}
	p := newPipeline(client, cfg, searchOptions{}, logger, collector)

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithMetricsHandler(collector.Handler()),
	}
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
		opts = append(opts, server.WithStore(db))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Serving wikiscope API on http://%s\n", cfg.ListenAddress)
	return server.New(client, p, opts...).Start(ctx, cfg.ListenAddress)
}

// newServeLogger creates the logger of the HTTP API. Records are JSON lines.
func newServeLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return newLogger(w, cfg, log.WithJSON(true))
}
