// Package cli wires the schedcore commands: the API server, the terminal
// board, archive exports, and seeding.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"schedcore/internal/config"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// LoadConfig resolves the effective configuration for a command.
func (o *RootOptions) LoadConfig() (config.Config, error) {
	return config.Load(o.ConfigPath)
}

// Logger builds the slog logger honoring the verbose flag.
func (o *RootOptions) Logger() *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// NewRootCommand creates the root command for the schedcore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "schedcore",
		Short:         "Work order scheduling service",
		Long:          "schedcore serves a machine-lane operation schedule over HTTP and renders it as a terminal board.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config file (default schedcore.yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewBoardCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}
