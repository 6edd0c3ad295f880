package main

import (
	"github.com/radup/fintable/internal/tui"
	"github.com/spf13/cobra"
)

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive transaction table",
		Long: `Browse transactions with filtering, sorting, and pagination. Select rows
with space (or a for the whole page, v for all rows from the same vendor),
then categorize with c or delete with d. Undo with u, redo with r.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			store, cleanup, err := initStore()
			if err != nil {
				return err
			}
			defer cleanup()

			return tui.Run(tui.Config{
				Session:   initSession(store),
				Suggester: initSuggester(),
			})
		},
	}
}
