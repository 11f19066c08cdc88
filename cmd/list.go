package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/airtabler/airtable"
	"github.com/s0up4200/airtabler/filter"
)

var (
	filterExpr string
	preset     string
	listAll    bool
	listFields []string
	listView   string
	formula    string
	pageSize   int
	maxRecords int
	sortSpecs  []string
	jsonOutput bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List records in a table",
	Long: `List records in a table. --formula is evaluated by Airtable; --filter and
--preset are expressions evaluated locally against each returned record.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listAll, "all", "a", false, "follow pagination and return every record")
	listCmd.Flags().StringSliceVar(&listFields, "fields", nil, "only return these fields")
	listCmd.Flags().StringVar(&listView, "view", "", "view name or ID")
	listCmd.Flags().StringVar(&formula, "formula", "", "filterByFormula sent to Airtable")
	listCmd.Flags().IntVar(&pageSize, "page-size", 0, "records per page (max 100)")
	listCmd.Flags().IntVar(&maxRecords, "max", 0, "maximum number of records")
	listCmd.Flags().StringArrayVar(&sortSpecs, "sort", nil, "sort by field, as field or field:desc (repeatable)")
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "local filter expression")
	listCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a preset filter from config")
	listCmd.Flags().BoolVar(&jsonOutput, "json", false, "print records as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	table, err := resolveTable()
	if err != nil {
		return err
	}

	params, err := buildListParams()
	if err != nil {
		return err
	}

	selected, err := selectFilter()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var records []airtable.Record
	if listAll {
		records, err = client.ListAll(ctx, table, params)
	} else {
		records, err = client.List(ctx, table, params)
	}
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if selected != nil {
		records, err = selected.apply(ctx, records)
		if err != nil {
			return err
		}
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), records)
	}
	printRecords(cmd.OutOrStdout(), records, cfg.Safety.ShowDetails)
	return nil
}

// buildListParams converts list flags to request parameters
func buildListParams() (airtable.ListParams, error) {
	params := airtable.ListParams{
		Fields:          listFields,
		View:            listView,
		FilterByFormula: formula,
		PageSize:        pageSize,
		MaxRecords:      maxRecords,
	}

	for _, spec := range sortSpecs {
		field, direction, _ := strings.Cut(spec, ":")
		direction = strings.ToLower(direction)
		if field == "" || (direction != "" && direction != "asc" && direction != "desc") {
			return params, fmt.Errorf("invalid sort %q: use field or field:asc|desc", spec)
		}
		params.Sort = append(params.Sort, airtable.SortField{Field: field, Direction: direction})
	}

	return params, nil
}

// localFilter is the record filter chosen on the command line. Presets are
// applied by name through the filter manager.
type localFilter struct {
	preset   string
	compiled filter.CompiledFilter
}

func (f *localFilter) apply(ctx context.Context, records []airtable.Record) ([]airtable.Record, error) {
	logger.Debug().Str("filter", f.compiled.Expression()).Str("preset", f.preset).Int("records", len(records)).Msg("Applying filter")
	if f.preset != "" {
		return filters.EvaluateFilter(ctx, f.preset, records)
	}
	return filters.Apply(ctx, f.compiled, records)
}

// selectFilter picks the local filter. Priority: --filter > --preset >
// filter.default_expression. Nil means no filtering.
func selectFilter() (*localFilter, error) {
	if filterExpr != "" {
		compiled, err := filters.Compile(filterExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		return &localFilter{compiled: compiled}, nil
	}

	if preset != "" {
		compiled, ok := filters.GetFilter(preset)
		if !ok {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
		return &localFilter{preset: preset, compiled: compiled}, nil
	}

	if cfg.Filter.DefaultExpression != "" {
		compiled, err := filters.Compile(cfg.Filter.DefaultExpression)
		if err != nil {
			return nil, fmt.Errorf("invalid filter.default_expression: %w", err)
		}
		return &localFilter{compiled: compiled}, nil
	}

	return nil, nil
}
