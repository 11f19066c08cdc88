package airtable

import (
	"net/url"
	"time"
)

// timestampLayout is the wire format for dates (always UTC, millisecond precision)
const timestampLayout = "2006-01-02T15:04:05.000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// parseTimestamp parses the wire format, falling back to RFC 3339
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, s)
	if err == nil {
		return t, nil
	}
	if t, rfcErr := time.Parse(time.RFC3339Nano, s); rfcErr == nil {
		return t.UTC(), nil
	}
	return time.Time{}, err
}

// Record is one row of a table.
//
// Attachment fields decoded from a response appear both in Fields (raw) and
// in Attachments. The two maps are not kept in sync; when writing, entries in
// Attachments win over a plain value stored under the same key.
type Record struct {
	// ID is empty for records that have not been created yet
	ID          string
	Fields      map[string]Value
	Attachments map[string][]Attachment

	createdTime time.Time
}

// NewRecord creates a record to be sent to the API. Use an empty id when
// creating records.
func NewRecord(id string, fields map[string]Value) Record {
	if fields == nil {
		fields = make(map[string]Value)
	}
	return Record{
		ID:          id,
		Fields:      fields,
		Attachments: make(map[string][]Attachment),
	}
}

// CreatedTime returns the creation time reported by the API. It is the zero
// time for records that were not decoded from a response.
func (r Record) CreatedTime() time.Time {
	return r.createdTime
}

// Field returns the raw value stored under name
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// String returns the string field name, or "" if absent or not a string
func (r Record) String(name string) string {
	s, _ := r.Fields[name].AsString()
	return s
}

// Int returns the integer field name, or 0
func (r Record) Int(name string) int64 {
	n, _ := r.Fields[name].AsInt()
	return n
}

// Float returns the numeric field name, or 0
func (r Record) Float(name string) float64 {
	f, _ := r.Fields[name].AsFloat()
	return f
}

// Bool returns the boolean field name. Absent checkboxes read as false.
func (r Record) Bool(name string) bool {
	b, _ := r.Fields[name].AsBool()
	return b
}

// Date returns the date field name. String values in the wire timestamp
// format are parsed, since responses carry dates as strings.
func (r Record) Date(name string) (time.Time, bool) {
	v := r.Fields[name]
	if t, ok := v.AsDate(); ok {
		return t, true
	}
	if s, ok := v.AsString(); ok {
		if t, err := parseTimestamp(s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// URL returns the URL field name. String values are parsed.
func (r Record) URL(name string) (*url.URL, bool) {
	v := r.Fields[name]
	if u, ok := v.AsURL(); ok {
		return u, true
	}
	if s, ok := v.AsString(); ok && s != "" {
		if u, err := url.Parse(s); err == nil {
			return u, true
		}
	}
	return nil, false
}

// Attachment is a file stored in an attachment field
type Attachment struct {
	// ID identifies an attachment already stored by the service. Set it (and
	// leave URL nil) to keep an existing file unchanged during an update.
	ID string
	// URL is where the service downloads the file from when writing; when
	// read, a service-hosted download URL.
	URL      *url.URL
	Filename string
	// Metadata holds any other attributes returned by the service (size,
	// type, thumbnails). Never required for writes.
	Metadata map[string]Value
}

// NewAttachment creates an attachment to be uploaded from u
func NewAttachment(u *url.URL, filename string) Attachment {
	return Attachment{URL: u, Filename: filename}
}

// KeepAttachment refers to an existing stored attachment so that an update
// preserves it
func KeepAttachment(id string) Attachment {
	return Attachment{ID: id}
}

// Equal reports whether a and other have the same content
func (a Attachment) Equal(other Attachment) bool {
	if a.ID != other.ID || a.Filename != other.Filename {
		return false
	}
	if (a.URL == nil) != (other.URL == nil) {
		return false
	}
	if a.URL != nil && a.URL.String() != other.URL.String() {
		return false
	}
	return equalValueMaps(a.Metadata, other.Metadata)
}

// UpdateMode selects the HTTP verb used by Update and UpdateRecords
type UpdateMode int

const (
	// Merge overwrites only the fields present on the record (PATCH)
	Merge UpdateMode = iota
	// Replace overwrites every field; fields missing from the record are
	// cleared (PUT)
	Replace
)

// Method returns the HTTP method for the mode
func (m UpdateMode) Method() string {
	if m == Replace {
		return "PUT"
	}
	return "PATCH"
}

// SortField orders list results
type SortField struct {
	Field     string
	Direction string // "asc" or "desc"; empty means the API default
}

// ListParams restricts and shapes list requests
type ListParams struct {
	// Fields limits the returned columns
	Fields []string
	// View returns records in the order and filtering of a named view
	View string
	// FilterByFormula is a formula evaluated by the service per record
	FilterByFormula string
	// PageSize is the number of records per page (the service caps it at 100)
	PageSize int
	// MaxRecords caps the total number of records across all pages
	MaxRecords int
	Sort       []SortField
}

// Page is one list response
type Page struct {
	Records []Record
	// Offset continues the listing; empty on the last page
	Offset string
}
