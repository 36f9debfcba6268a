package main

import (
	"context"
	"fmt"

	"logiflow/internal/database"
	"logiflow/internal/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed permissions, system roles and the first admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewConnection(cfg.DSN(), cfg.DBLogLevel)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		services := router.NewServices(db, nil, router.Options{
			SessionSecret:  cfg.SessionSecret,
			SessionTTL:     cfg.SessionTTL(),
			DlcWarningDays: cfg.DlcWarningDays,
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := services.Roles.SeedDefaults(ctx); err != nil {
			return err
		}
		log.Info().Msg("permissions and system roles seeded")

		created, err := services.Roles.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			log.Info().Str("username", cfg.AdminUsername).Msg("admin account created")
		} else {
			log.Info().Msg("users already exist, admin account not created")
		}
		return nil
	},
}

var purgeSessionsCmd = &cobra.Command{
	Use:   "purge-sessions",
	Short: "Delete expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := database.NewConnection(cfg.DSN(), cfg.DBLogLevel)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		services := router.NewServices(db, nil, router.Options{
			SessionSecret: cfg.SessionSecret,
			SessionTTL:    cfg.SessionTTL(),
		})

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		n, err := services.Auth.PurgeExpiredSessions(ctx)
		if err != nil {
			return err
		}
		log.Info().Int64("sessions", n).Msg("expired sessions purged")
		return nil
	},
}
