package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <record-id>",
	Short: "Fetch a single record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func init() {
	getCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the record as JSON")
}

func runGet(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	record, err := client.Get(cmd.Context(), table, args[0])
	if err != nil {
		if airtable.IsNotFound(err) {
			return fmt.Errorf("record %s not found in %s", args[0], table)
		}
		return fmt.Errorf("failed to get record: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), []airtable.Record{record})
	}
	printRecord(cmd.OutOrStdout(), record, true)
	return nil
}
