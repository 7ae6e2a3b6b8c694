package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-remedial/internal/config"
	"github.com/mind-engage/mindengage-remedial/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "gateway",
	Short:         "Assessment grading and remediation service",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (env vars override it)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(importSnippetsCmd)
}

// bootstrap loads configuration and builds the process logger.
func bootstrap(cmd *cobra.Command) (config.Config, *logger.Logger, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logger.New(cfg.LogMode, cfg.LogRedaction)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}
