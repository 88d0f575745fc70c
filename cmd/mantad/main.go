package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "mantad",
	Short:   "Local Manta-compatible object storage server",
	Long: `mantad serves the Manta storage REST API from a local directory,
with directory and object metadata kept in SQLite or PostgreSQL.

It is meant for development and end-to-end tests of Manta clients.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFiles, _ := cmd.Flags().GetStringSlice("config")

		cfg, err := config.Load(configFiles, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg.Log)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSlice("config", nil, "config file path, repeatable (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("db-type", "", "database type: sqlite, postgres (default: sqlite, env: MANTAD_DATABASE_TYPE)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string (default: manta.db, env: MANTAD_DATABASE_DSN)")
	rootCmd.PersistentFlags().String("storage-path", "", "storage directory path (default: ./data, env: MANTAD_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env: MANTAD_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text, json (env: MANTAD_LOG_FORMAT)")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
