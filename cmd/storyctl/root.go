package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rtg123uk/storyai/internal/config"
	"github.com/rtg123uk/storyai/internal/logger"
)

var (
	logLevel     string
	titleBackend string

	cfg *config.Config
	log *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "storyctl",
	Short: "storyctl - generate children's stories from the terminal",
	Long: `storyctl drives the story generator without the HTTP server.

Configuration comes from the environment (and .env), the same keys the
server reads. Recent titles are kept in a local SQLite file by default so
repeated runs still avoid duplicate titles.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		loaded.Logger.Level = logLevel
		loaded.Logger.Encoding = "console"
		// an explicit --titles wins; a memory backend is replaced by the flag default
		if f := cmd.Flag("titles"); (f != nil && f.Changed) || loaded.Story.TitleHistoryBackend == "memory" {
			loaded.Story.TitleHistoryBackend = titleBackend
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		l, err := logger.New(loaded.Logger)
		if err != nil {
			return err
		}
		cfg, log = loaded, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cfg != nil && cfg.PushGatewayURL != "" {
			if err := pushMetrics(cfg.PushGatewayURL, cmd.Name()); err != nil {
				log.Warn("Failed to push metrics", zap.Error(err))
			}
		}
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&titleBackend, "titles", "sqlite", "Title history backend (sqlite, memory, postgres, redis); overrides TITLE_HISTORY_BACKEND")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}
