package main

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic...]",
	Short: "Generate and store lessons for the given topics",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		results := a.generator.Generate(cmd.Context(), args)
		failed := 0
		for topic, ls := range results {
			if len(ls) == 0 {
				failed++
				log.Warn("no lessons generated", "topic", topic)
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any{"status": "ok", "results": results}); err != nil {
			return err
		}
		if failed == len(results) {
			return errors.New("generation failed for every topic")
		}
		return nil
	},
}
