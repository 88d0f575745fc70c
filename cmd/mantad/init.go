package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/manta/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize metadata database from storage files",
	Long: `Scan the storage directory and populate the metadata database
with entries for all existing files. Files must be laid out as
<account>/stor/<path>; directories implied by their paths are created.

This is useful when:
  - Setting up mantad over existing files
  - Recovering metadata after database loss`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	svc, closeBackend, err := openService(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer closeBackend()

	slog.Info("scanning storage directory", "path", cfg.Storage.Path)

	if err := svc.Populate(ctx); err != nil {
		return fmt.Errorf("populate: %w", err)
	}

	slog.Info("initialization complete")
	return nil
}
