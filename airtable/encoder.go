package airtable

import (
	"encoding/json"
)

// encodeRecord builds the JSON object for a record. The top-level id is only
// written when includeID is set and the record has one.
func encodeRecord(record Record, includeID bool) map[string]any {
	fields := make(map[string]any, len(record.Fields)+len(record.Attachments))
	for name, value := range record.Fields {
		fields[name] = value.wire()
	}

	// attachment entries win over plain values under the same key
	for name, atts := range record.Attachments {
		encoded := make([]any, len(atts))
		for i, a := range atts {
			encoded[i] = encodeAttachment(a)
		}
		fields[name] = encoded
	}

	payload := map[string]any{
		"fields": fields,
	}
	if includeID && record.ID != "" {
		payload["id"] = record.ID
	}
	return payload
}

// encodeRecords wraps several records for batch writes
func encodeRecords(records []Record, includeID bool) map[string]any {
	encoded := make([]any, len(records))
	for i, r := range records {
		encoded[i] = encodeRecord(r, includeID)
	}
	return map[string]any{"records": encoded}
}

// encodeAttachment starts from the metadata and sets url, filename and id on
// top. url is omitted when unset so an existing file is kept.
func encodeAttachment(a Attachment) map[string]any {
	payload := make(map[string]any, len(a.Metadata)+3)
	for k, v := range a.Metadata {
		payload[k] = v.wire()
	}

	delete(payload, "url")
	if a.URL != nil {
		payload["url"] = a.URL.String()
	}

	delete(payload, "filename")
	if a.Filename != "" {
		payload["filename"] = a.Filename
	}

	if a.ID != "" {
		payload["id"] = a.ID
	}
	return payload
}

// marshalPayload serializes a payload built by the encoder
func marshalPayload(operation string, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, &Error{
			Code:       CodeInvalidParameters,
			Operation:  operation,
			Parameters: []any{payload},
			Err:        err,
		}
	}
	return data, nil
}
