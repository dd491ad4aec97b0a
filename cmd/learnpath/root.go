package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pseng/MyH5P-pages/internal/config"
	"github.com/pseng/MyH5P-pages/internal/logging"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "learnpath",
	Short: "learnpath authors, serves and plays learning paths",
	Long: `learnpath is a learning path graph engine: it stores path documents, validates and
linearizes them, serves the authoring and learner APIs over HTTP and MCP, and reports
learner activity to a record store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file with LEARNPATH_* overrides")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")
}

// setup loads the configuration and the logger shared by every command.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	loaded, err := config.Load(path, config.WithEnvFile(envFile))
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loaded.Log.Level = level
	}

	l, err := logging.NewWithOptions(logging.Options{
		Level:      loaded.Log.Level,
		Format:     loaded.Log.Format,
		File:       loaded.Log.File,
		MaxSizeMB:  loaded.Log.MaxSizeMB,
		MaxBackups: loaded.Log.MaxBackups,
	})
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	slog.SetDefault(l)
	return nil
}
