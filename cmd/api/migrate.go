package main

import (
	"fmt"

	"logiflow/internal/database"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the schema and backfill user roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewConnection(cfg.DSN(), cfg.DBLogLevel)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("schema migrated")

		n, err := database.BackfillUserRoles(db)
		if err != nil {
			return err
		}
		log.Info().Int64("users", n).Msg("user roles backfilled from legacy role column")
		return nil
	},
}
