package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
)

var noConfirm bool

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete [record-id...]",
	Short: "Delete records by ID or by filter",
	Long: `Delete the given records. Without IDs, every record in the table matching
--filter, --preset or --formula is deleted. Honors safety.dry_run and
safety.confirm_delete.`,
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "local filter expression")
	deleteCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	deleteCmd.Flags().StringVar(&formula, "formula", "", "filterByFormula sent to Airtable")
	deleteCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	ids := args
	if len(ids) == 0 {
		ids, err = matchingIDs(cmd, table)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if len(ids) == 0 {
		fmt.Fprintln(out, "No records to delete.")
		return nil
	}

	if cfg.Safety.DryRun {
		fmt.Fprintf(out, "[DRY RUN] Would delete %d record(s) from %s:\n", len(ids), table)
		for _, id := range ids {
			fmt.Fprintf(out, "  • %s\n", id)
		}
		return nil
	}

	if cfg.Safety.ConfirmDelete && !noConfirm {
		if !confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete %d record(s) from %s?", len(ids), table)) {
			logger.Info().Msg("Deletion cancelled")
			return nil
		}
	}

	deleted, err := client.DeleteRecords(cmd.Context(), table, ids)
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}

	logger.Info().Str("table", table).Int("count", len(deleted)).Msg("Deleted records")
	fmt.Fprintf(out, "✓ Deleted %d record(s)\n", len(deleted))
	return nil
}

// matchingIDs lists the table and keeps the records selected by the filters
func matchingIDs(cmd *cobra.Command, table string) ([]string, error) {
	selected, err := selectFilter()
	if err != nil {
		return nil, err
	}
	if selected == nil && formula == "" {
		return nil, fmt.Errorf("refusing to delete every record: pass record IDs, --filter, --preset or --formula")
	}

	ctx := cmd.Context()
	records, err := client.ListAll(ctx, table, airtable.ListParams{FilterByFormula: formula})
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	if selected != nil {
		records, err = selected.apply(ctx, records)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids, nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", prompt)
	response, _ := bufio.NewReader(in).ReadString('\n')
	return strings.ToLower(strings.TrimSpace(response)) == "y"
}
