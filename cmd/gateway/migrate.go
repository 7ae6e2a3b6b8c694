package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		// opening applies the schema
		h, err := openDB(ctx, cfg)
		if err != nil {
			log.Error("migration failed", "error", err)
			return err
		}
		defer h.Close()
		log.Info("schema up to date", "driver", cfg.DBDriver)
		return nil
	},
}
