package main

import (
	"os"
	"time"

	_ "logiflow/api/swagger" // swagger docs
	"logiflow/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// @title           LogiFlow API
// @version         1.0
// @description     Multi-store logistics: orders, deliveries, BL/invoice reconciliation, DLC tracking.
// @BasePath        /
// @securityDefinitions.apikey SessionCookie
// @in cookie
// @name session
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "logiflow",
	Short: "Multi-store logistics backend",
	Long: `LogiFlow serves the logistics API (orders, deliveries, reconciliation, DLC)
and provides maintenance commands for the database.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, purgeSessionsCmd)
}

// loadConfig reads configuration and sets up the global logger
func loadConfig() (*config.Config, error) {
	zerolog.TimeFieldFormat = time.RFC3339
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}
