package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/wikiscope/internal/config"
	"github.com/nao1215/wikiscope/internal/log"
	"github.com/nao1215/wikiscope/internal/wiki"
	"github.com/spf13/cobra"
)

// addClientFlags registers the flags of commands that call the Wikimedia APIs.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("lang", config.DefaultLanguage,
		"Wikipedia language edition, also used for Wikidata labels (e.g. en, de, ja)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each API request")
	cmd.Flags().Duration("stage-timeout", 0,
		"Timeout for each lookup stage (0 means no limit beyond --timeout)")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent to the APIs")
	cmd.Flags().String("proxy", "",
		"Route requests through a SOCKS5 proxy (e.g. 127.0.0.1:9050)")
	cmd.Flags().String("wikipedia-api", "",
		"Wikipedia action API endpoint (default: derived from --lang)")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file flag from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// loadConfig builds a Config from defaults, the configuration file and the
// flags the user set explicitly, in that order.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = getConfigFlag(cmd)

	// An explicitly given file must exist; the default locations are optional.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		f, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplyFile(f)
		cfg.ConfigFilePath = configPath
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyClientFlags(cmd, cfg); err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.DBDir = config.XDGDataDir()
	cfg.Queries = args

	return cfg, nil
}

// applyClientFlags copies explicitly set client flags into cfg.
func applyClientFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("lang") {
		if cfg.Language, err = flags.GetString("lang"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("stage-timeout") {
		if cfg.StageTimeout, err = flags.GetDuration("stage-timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("wikipedia-api") {
		if cfg.WikipediaAPI, err = flags.GetString("wikipedia-api"); err != nil {
			return err
		}
	}
	return nil
}

// newLogger creates the redacting logger used by every command.
func newLogger(w io.Writer, cfg *config.Config, opts ...log.Option) *slog.Logger {
	return log.NewLogger(w, append([]log.Option{log.WithVerbose(cfg.Verbose)}, opts...)...)
}

// newClient creates an API client from cfg.
func newClient(cfg *config.Config, logger *slog.Logger, observer wiki.Observer) (*wiki.Client, error) {
	opts := []wiki.Option{
		wiki.WithEndpoints(wiki.Endpoints{
			Wikipedia:      cfg.WikipediaEndpoint(),
			WikidataEntity: cfg.WikidataEntityURL,
			Commons:        cfg.CommonsAPI,
		}),
		wiki.WithLanguage(cfg.Language),
		wiki.WithTimeout(cfg.Timeout),
		wiki.WithUserAgent(cfg.UserAgent),
		wiki.WithMaxBodySize(cfg.MaxBodySize),
		wiki.WithLogger(logger),
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, wiki.WithProxy(cfg.ProxyAddress))
	}
	if observer != nil {
		opts = append(opts, wiki.WithObserver(observer))
	}

	client, err := wiki.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// createOutputFile creates path and its parent directories.
// Reports are written with owner-only permissions.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
