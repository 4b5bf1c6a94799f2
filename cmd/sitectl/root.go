package main

import (
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge"
	"github.com/spf13/cobra"

	"sitepulse/internal/config"
	"sitepulse/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "sitectl",
	Short: "sitepulse administration CLI",
	Long: `sitectl manages the sitepulse analytics store.

It migrates the schema, runs the retention sweep on demand, prints
report summaries and seeds demo traffic. Configuration is read from
the same SITEPULSE_* environment variables as the server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(migrateCmd, sweepCmd, statsCmd, seedCmd, sessionIDCmd)
}

// openStore connects to the configured database. The caller closes it.
func openStore() (*config.Config, *database.DBManager, *slog.Logger, error) {
	cfg := config.GetConfig()
	logger := cartridge.NewLogger(cfg, nil)

	dbManager := database.NewDBManager(cfg, logger)
	if err := dbManager.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return cfg, dbManager, logger, nil
}
