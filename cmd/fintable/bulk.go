package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/radup/fintable/internal/api"
	"github.com/radup/fintable/internal/model"
	"github.com/radup/fintable/internal/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func bulkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Run one-shot bulk operations",
		Long:  `Apply a bulk categorize or delete without opening the interactive table.`,
	}

	cmd.AddCommand(bulkCategorizeCmd())
	cmd.AddCommand(bulkDeleteCmd())

	return cmd
}

func bulkCategorizeCmd() *cobra.Command {
	var (
		ids         []string
		vendor      string
		category    string
		subcategory string
	)

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Categorize a set of transactions in one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, cleanup, err := initStore()
			if err != nil {
				return err
			}
			defer cleanup()

			sess := initSession(store)
			targets, err := resolveTargets(cmd, sess, ids, vendor)
			if err != nil {
				return err
			}

			result, err := sess.DispatchBulk(cmd.Context(), model.BulkCommand{
				Kind:      model.CommandCategorize,
				TargetIDs: targets,
				Payload:   model.Payload{Category: category, Subcategory: subcategory},
			})
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "explicit transaction ids")
	cmd.Flags().StringVar(&vendor, "vendor", "", "target every transaction from this vendor (current page)")
	cmd.Flags().StringVar(&category, "category", "", "category to assign (required)")
	cmd.Flags().StringVar(&subcategory, "subcategory", "", "subcategory to assign")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func bulkDeleteCmd() *cobra.Command {
	var (
		ids    []string
		vendor string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a set of transactions in one batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, cleanup, err := initStore()
			if err != nil {
				return err
			}
			defer cleanup()

			sess := initSession(store)
			targets, err := resolveTargets(cmd, sess, ids, vendor)
			if err != nil {
				return err
			}

			result, err := sess.DispatchBulk(cmd.Context(), model.BulkCommand{
				Kind:      model.CommandDelete,
				TargetIDs: targets,
			})
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "explicit transaction ids")
	cmd.Flags().StringVar(&vendor, "vendor", "", "target every transaction from this vendor (current page)")

	return cmd
}

// resolveTargets turns flags into a target set: explicit ids win; otherwise
// the vendor selection runs against the first fetched page.
func resolveTargets(cmd *cobra.Command, sess *session.Session, ids []string, vendor string) ([]string, error) {
	if len(ids) > 0 {
		return ids, nil
	}
	if vendor == "" {
		return nil, fmt.Errorf("either --ids or --vendor is required")
	}

	if err := sess.SetFilter(cmd.Context(), map[string]string{"vendor": vendor}); err != nil {
		return nil, err
	}
	sess.SelectByAttribute("vendor", vendor)
	targets := sess.SelectedIDs()
	if len(targets) == 0 {
		return nil, fmt.Errorf("no transactions match vendor %q", vendor)
	}
	return targets, nil
}

func printResult(cmd *cobra.Command, result *model.BulkResult) {
	cmd.Printf("%s (%.2fs)\n", result.Summary(), result.ProcessingTime.Seconds())
	if len(result.FailedIDs) == 0 {
		return
	}
	failed := make([]string, 0, len(result.FailedIDs))
	for id := range result.FailedIDs {
		failed = append(failed, id)
	}
	sort.Strings(failed)
	for _, id := range failed {
		cmd.Printf("  %s: %s\n", id, result.FailedIDs[id])
	}
}

func undoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Ask the remote store to reverse its last bulk operation",
		Long: `Undo outside the interactive table uses the store's own operation log, so
it requires a remote store. Inside 'browse' the client-held history is used
instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			result, err := client.Undo(cmd.Context())
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
}

func redoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redo",
		Short: "Ask the remote store to re-apply its last reversed bulk operation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := remoteClient()
			if err != nil {
				return err
			}
			result, err := client.Redo(cmd.Context())
			if err != nil {
				return err
			}
			printResult(cmd, result)
			return nil
		},
	}
}

func remoteClient() (*api.Client, error) {
	url := strings.TrimSpace(viper.GetString("store.url"))
	if url == "" {
		return nil, fmt.Errorf("undo/redo outside 'browse' requires a remote store (set store.url)")
	}
	return api.NewClient(url, viper.GetString("store.token"))
}
