package airtable

import (
	"context"
)

// API defines the record operations of a Client
type API interface {
	// TestConnection verifies the base, table and API key
	TestConnection(ctx context.Context, table string) error

	// List returns the first page of records
	List(ctx context.Context, table string, params ListParams) ([]Record, error)

	// ListAll returns every record, following pagination offsets
	ListAll(ctx context.Context, table string, params ListParams) ([]Record, error)

	// Get fetches a single record
	Get(ctx context.Context, table, recordID string) (Record, error)

	Create(ctx context.Context, table string, record Record) (Record, error)
	CreateRecords(ctx context.Context, table string, records []Record) ([]Record, error)

	Update(ctx context.Context, table string, record Record, mode UpdateMode) (Record, error)
	UpdateRecords(ctx context.Context, table string, records []Record, mode UpdateMode) ([]Record, error)

	Delete(ctx context.Context, table, recordID string) (Record, error)
	DeleteRecords(ctx context.Context, table string, recordIDs []string) ([]Record, error)
}

// PageFetcher provides page-by-page listing
type PageFetcher interface {
	// ListPage fetches a single page; pass the previous page's Offset to continue
	ListPage(ctx context.Context, table string, params ListParams, offset string) (Page, error)
}

// Compile-time interface satisfaction checks.
var (
	_ API         = (*Client)(nil)
	_ PageFetcher = (*Client)(nil)
)
