package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
)

var (
	dataFlag    string
	fileFlag    string
	replaceFlag bool
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create records from a JSON document",
	Long: `Create records from a JSON document given with --data or --file (- for
stdin). An object creates one record, an array creates many. Each element is
either {"fields": {...}} or a bare field map.`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update records from a JSON document",
	Long: `Update records from a JSON document given with --data or --file (- for
stdin). Every element needs an "id". Fields not present are kept unless
--replace is given, in which case they are cleared.`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	for _, c := range []*cobra.Command{createCmd, updateCmd} {
		c.Flags().StringVar(&dataFlag, "data", "", "inline JSON document")
		c.Flags().StringVar(&fileFlag, "file", "", "read the JSON document from a file (- for stdin)")
		c.Flags().BoolVar(&jsonOutput, "json", false, "print the resulting records as JSON")
		c.MarkFlagsMutuallyExclusive("data", "file")
	}
	updateCmd.Flags().BoolVar(&replaceFlag, "replace", false, "replace all fields (PUT) instead of merging (PATCH)")
}

func runCreate(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	records, batch, err := readRecords(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if cfg.Safety.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "[DRY RUN] Would create %d record(s) in %s\n", len(records), table)
		return nil
	}

	ctx := cmd.Context()
	var created []airtable.Record
	if batch {
		created, err = client.CreateRecords(ctx, table, records)
	} else {
		var record airtable.Record
		record, err = client.Create(ctx, table, records[0])
		created = []airtable.Record{record}
	}
	if err != nil {
		return fmt.Errorf("failed to create records: %w", err)
	}

	logger.Info().Str("table", table).Int("count", len(created)).Msg("Created records")
	return printResult(cmd.OutOrStdout(), created)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	records, batch, err := readRecords(cmd.InOrStdin())
	if err != nil {
		return err
	}
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record %d has no id", i)
		}
	}

	mode := airtable.Merge
	if replaceFlag {
		mode = airtable.Replace
	}

	if cfg.Safety.DryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "[DRY RUN] Would update %d record(s) in %s with %s\n", len(records), table, mode.Method())
		return nil
	}

	ctx := cmd.Context()
	var updated []airtable.Record
	if batch {
		updated, err = client.UpdateRecords(ctx, table, records, mode)
	} else {
		var record airtable.Record
		record, err = client.Update(ctx, table, records[0], mode)
		updated = []airtable.Record{record}
	}
	if err != nil {
		return fmt.Errorf("failed to update records: %w", err)
	}

	logger.Info().Str("table", table).Int("count", len(updated)).Msg("Updated records")
	return printResult(cmd.OutOrStdout(), updated)
}

func printResult(w io.Writer, records []airtable.Record) error {
	if jsonOutput {
		return printJSON(w, records)
	}
	printRecords(w, records, cfg.Safety.ShowDetails)
	return nil
}

// readRecords reads the --data or --file document. batch is true when the
// document is an array.
func readRecords(stdin io.Reader) ([]airtable.Record, bool, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case dataFlag != "":
		data = []byte(dataFlag)
	case fileFlag == "-":
		data, err = io.ReadAll(stdin)
	case fileFlag != "":
		data, err = os.ReadFile(fileFlag)
	default:
		return nil, false, errors.New("no input: use --data or --file")
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read input: %w", err)
	}

	return parseRecords(data)
}

// recordInput accepts {"id": ..., "fields": {...}}; without "fields" the
// whole object is the field map
type recordInput struct {
	ID     string                    `json:"id"`
	Fields map[string]airtable.Value `json:"fields"`
}

func parseRecords(data []byte) ([]airtable.Record, bool, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, false, errors.New("empty input document")
	}

	var raw []json.RawMessage
	batch := data[0] == '['
	if batch {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, false, fmt.Errorf("invalid JSON array: %w", err)
		}
		if len(raw) == 0 {
			return nil, false, errors.New("input array is empty")
		}
	} else {
		raw = []json.RawMessage{data}
	}

	records := make([]airtable.Record, 0, len(raw))
	for i, item := range raw {
		record, err := parseRecord(item)
		if err != nil {
			return nil, false, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, batch, nil
}

func parseRecord(data json.RawMessage) (airtable.Record, error) {
	var input recordInput
	if err := json.Unmarshal(data, &input); err != nil {
		return airtable.Record{}, fmt.Errorf("invalid record: %w", err)
	}
	if input.Fields != nil {
		return airtable.NewRecord(input.ID, input.Fields), nil
	}

	var fields map[string]airtable.Value
	if err := json.Unmarshal(data, &fields); err != nil {
		return airtable.Record{}, fmt.Errorf("invalid record: %w", err)
	}
	delete(fields, "id")
	return airtable.NewRecord(input.ID, fields), nil
}
