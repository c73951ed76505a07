package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"binu8-translator/internal/config"
	"binu8-translator/internal/filewalker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "binu8-tool",
		Short: "Dump and re-insert the text of .binu8 script containers",
		Long: `Extracts the string table of every script container under a folder to a
CSV file for translation, and rebuilds the containers with the translated
text while keeping every other byte unchanged.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVarP(&cfg.WorkerCount, "workers", "w", cfg.WorkerCount, "Number of files processed in parallel")
	flags.StringVar(&cfg.ScriptExt, "ext", cfg.ScriptExt, "Extension of script containers")
	flags.StringVar(&cfg.ScriptExclude, "exclude", cfg.ScriptExclude, "File name skipped during discovery")
	flags.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "PostgreSQL URL of the string store (disabled when empty)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")

	rootCmd.AddCommand(dumpCmd(cfg))
	rootCmd.AddCommand(importCmd(cfg))
	rootCmd.AddCommand(inspectCmd())

	return rootCmd
}

func dumpCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <script-folder> <output-csv>",
		Short: "Export the strings of every script container to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runDump(ctx, cfg, args[0], args[1])
		},
	}
}

func importCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import <script-folder> <input-csv> <output-folder>",
		Short: "Rebuild script containers with translations from CSV",
		Long: `Rebuilds every script container into a parallel directory tree. Entries
without a translation, files absent from the CSV, or a missing CSV file all
fall back to the original text.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()
			return runImport(ctx, cfg, args[0], args[1], args[2])
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>...",
		Short: "Print the header variant and string-table layout of containers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd.OutOrStdout(), args)
		},
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

func newWalker(cfg *config.Config) *filewalker.Walker {
	return filewalker.NewWalker(cfg.ScriptExt, cfg.ScriptExclude)
}
