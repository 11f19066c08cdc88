// Package airtable provides a client for the Airtable REST API.
//
// The client lists, fetches, creates, updates and deletes records in the
// tables of one base. Write and delete operations over more than BatchLimit
// records are split into several requests transparently, and ListAll follows
// the pagination offsets returned by the API.
//
// # Usage
//
//	logger := zerolog.New(os.Stderr)
//	client, err := airtable.NewClient("appXXXXXXXXXXXXXX", "your-api-key", logger,
//		airtable.WithTimeout(30*time.Second),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	records, err := client.ListAll(ctx, "Tasks", airtable.ListParams{View: "Grid view"})
//
//	created, err := client.Create(ctx, "Tasks", airtable.NewRecord("", map[string]airtable.Value{
//		"Name": airtable.String("Write docs"),
//		"Due":  airtable.Date(time.Now().Add(48 * time.Hour)),
//	}))
//
// # Field values
//
// Field values are Value, a tagged union over null, string, int, float, bool,
// date, URL, attachments, list and object. Dates are written as
// 2006-01-02T15:04:05.000Z in UTC. Values read from the API keep their JSON
// shape: dates come back as strings (see Record.Date).
//
// A field read from the API whose value is a list of objects that all carry an
// id and a url is also exposed in Record.Attachments. To keep a stored file
// during an update, send KeepAttachment(id); to upload a new one, send
// NewAttachment(url, filename).
//
// # Error Handling
//
// Every operation fails with a *Error whose Code classifies the failure:
// HTTP statuses (CodeNotFound, CodeUnauthorized, CodeHTTP, ...), transport
// failures (CodeNetwork), malformed bodies (CodeInvalidResponse,
// CodeMissingRequiredFields) and invalid input (CodeInvalidParameters).
// Use errors.Is with the sentinels:
//
//	if errors.Is(err, airtable.ErrNotFound) {
//		// the record or table does not exist
//	}
//
// The client never retries; retry policy is left to the caller.
package airtable
