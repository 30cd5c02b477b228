package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create archive tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			// openArchive migrates on open.
			archive, err := openArchive(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer archive.Close()
			logger.Info().Msg("migrations applied")
			return nil
		},
	}
}
