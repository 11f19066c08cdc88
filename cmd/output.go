package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/s0up4200/airtabler/airtable"
)

// recordView is the JSON shape printed by --json, matching the API's
type recordView struct {
	ID          string                    `json:"id"`
	CreatedTime string                    `json:"createdTime,omitempty"`
	Fields      map[string]airtable.Value `json:"fields"`
}

func printJSON(w io.Writer, records []airtable.Record) error {
	views := make([]recordView, len(records))
	for i, r := range records {
		views[i] = recordView{ID: r.ID, Fields: r.Fields}
		if !r.CreatedTime().IsZero() {
			views[i].CreatedTime = r.CreatedTime().UTC().Format("2006-01-02T15:04:05.000Z")
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

func printRecords(w io.Writer, records []airtable.Record, details bool) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records found.")
		return
	}

	fmt.Fprintf(w, "\nFound %d records:\n", len(records))
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, r := range records {
		printRecord(w, r, details)
	}
}

func printRecord(w io.Writer, r airtable.Record, details bool) {
	fmt.Fprintf(w, "• %s", r.ID)
	if !r.CreatedTime().IsZero() {
		fmt.Fprintf(w, " (created %s)", r.CreatedTime().Format("2006-01-02"))
	}
	fmt.Fprintln(w)

	if !details {
		return
	}
	for _, name := range slices.Sorted(maps.Keys(r.Fields)) {
		if atts, ok := r.Attachments[name]; ok {
			fmt.Fprintf(w, "  %s: %d attachment(s)\n", name, len(atts))
			continue
		}
		fmt.Fprintf(w, "  %s: %s\n", name, r.Fields[name])
	}
}
