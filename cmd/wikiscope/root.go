package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wikiscope.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wikiscope",
		Short: "Aggregate Wikipedia, Wikidata and Commons data for a topic",
		Long: `wikiscope looks up a topic on Wikipedia and aggregates everything the
Wikimedia APIs know about it: the article summary, page metadata, the linked
Wikidata item, recent edit history and matching Wikimedia Commons images.

Results are printed panel by panel as they arrive and stored in a local
history database so later lookups of the same article can be compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .wikiscope in current or home directory)")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewSuggestCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
