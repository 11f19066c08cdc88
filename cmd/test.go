package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test the connection to Airtable",
	Long:  `Fetch one record from the table to verify the base ID, API key and table name.`,
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing connection to %s (base %s, table %s)...\n", cfg.Airtable.URL, cfg.Airtable.BaseID, table)

	if err := client.TestConnection(cmd.Context(), table); err != nil {
		switch {
		case airtable.IsUnauthorized(err):
			return fmt.Errorf("authentication failed, check airtable.api_key: %w", err)
		case airtable.IsNotFound(err):
			return fmt.Errorf("base or table not found: %w", err)
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	fmt.Fprintln(out, "✓ Connection successful!")

	if len(cfg.Filter.Presets) > 0 {
		fmt.Fprintf(out, "\nFilter presets:\n")
		for _, name := range filters.ListFilters() {
			fmt.Fprintf(out, "  • %s: %s\n", name, cfg.Filter.Presets[name].Description)
		}
	}
	return nil
}
