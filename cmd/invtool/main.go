package main

import (
	"fmt"
	"os"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	cfgFile  string
	logLevel string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "invtool",
	Short: "Maintenance commands for the inventory database",
	Long: `invtool works directly against the inventory database configured in
config.yaml. It covers schema migration, CSV import and export, rack
elevations and the scheduled task table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		level := logLevel
		if level == "" {
			level = logger.LevelForMode(cfg.Server.Mode)
		}
		logger.Init(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("CONFIG_PATH"), "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(exportCSVCmd)
	rootCmd.AddCommand(importCSVCmd)
	rootCmd.AddCommand(importWarrantyCmd)
	rootCmd.AddCommand(rackCmd)
	rootCmd.AddCommand(tasksCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openDB connects using the loaded config. Commands other than migrate
// expect the schema to exist already.
func openDB() (*gorm.DB, error) {
	if err := models.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return models.GetDB(), nil
}

// cliActor is recorded on revisions and change logs written by invtool.
func cliActor() *services.Actor {
	return &services.Actor{Username: "invtool"}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema and seed lookup rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		if err := models.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
		return nil
	},
}
