package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mind-engage/mindengage-remedial/internal/lesson"
)

var importSnippetsCmd = &cobra.Command{
	Use:   "import-snippets <file.json>",
	Short: "Load remedial content snippets from a JSON array",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		defer log.Sync()

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var in []lesson.ContentSnippet
		if err := json.Unmarshal(raw, &in); err != nil {
			return fmt.Errorf("parse %s: %w", args[0], err)
		}

		h, err := openDB(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer h.Close()
		store := lesson.NewSQLStore(h)
		for i, s := range in {
			if s.ID == "" || len(s.Tags) == 0 {
				return fmt.Errorf("snippet %d: id and tags are required", i)
			}
			if err := store.PutSnippet(cmd.Context(), s); err != nil {
				return fmt.Errorf("snippet %s: %w", s.ID, err)
			}
		}
		log.Info("snippets imported", "count", len(in))
		return nil
	},
}
