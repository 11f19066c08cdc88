package airtable

import (
	"bytes"
	"encoding/json"
	"net/url"
	"time"
)

// decoder turns response bodies into records. now supplies the fallback
// creation time for records whose createdTime cannot be parsed.
type decoder struct {
	now func() time.Time
}

func newDecoder() *decoder {
	return &decoder{now: time.Now}
}

// decodeRecord decodes a single record object
func (d *decoder) decodeRecord(data []byte) (Record, error) {
	obj, err := asJSONObject(data)
	if err != nil {
		return Record{}, err
	}
	return d.recordFromJSON(obj)
}

// decodeRecords decodes {"records": [...]}; a missing list is empty
func (d *decoder) decodeRecords(data []byte) ([]Record, error) {
	page, err := d.decodeRecordsWithOffset(data)
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// decodeRecordsWithOffset decodes a list page and its optional offset
func (d *decoder) decodeRecordsWithOffset(data []byte) (Page, error) {
	obj, err := asJSONObject(data)
	if err != nil {
		return Page{}, err
	}

	items, err := objectList(obj, "records", data)
	if err != nil {
		return Page{}, err
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		record, err := d.recordFromJSON(item)
		if err != nil {
			return Page{}, err
		}
		records = append(records, record)
	}

	offset, _ := obj["offset"].(string)
	return Page{Records: records, Offset: offset}, nil
}

// decodeDeleteResponse decodes {"id": ..., "deleted": ...}
func (d *decoder) decodeDeleteResponse(data []byte) (Record, error) {
	obj, err := asJSONObject(data)
	if err != nil {
		return Record{}, err
	}
	return deletedFromJSON(obj)
}

// decodeBatchDeleteResponse decodes {"records": [{"id", "deleted"}, ...]}.
// The first failure aborts the whole batch.
func (d *decoder) decodeBatchDeleteResponse(data []byte) ([]Record, error) {
	obj, err := asJSONObject(data)
	if err != nil {
		return nil, err
	}

	items, err := objectList(obj, "records", data)
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(items))
	for _, item := range items {
		record, err := deletedFromJSON(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (d *decoder) recordFromJSON(obj map[string]any) (Record, error) {
	id, hasID := obj["id"].(string)
	createdString, hasCreated := obj["createdTime"].(string)
	rawFields, hasFields := obj["fields"].(map[string]any)

	var missing []string
	if !hasID {
		missing = append(missing, "id")
	}
	if !hasCreated {
		missing = append(missing, "createdTime")
	}
	if !hasFields {
		missing = append(missing, "fields")
	}
	if len(missing) > 0 {
		return Record{}, &Error{Code: CodeMissingRequiredFields, Fields: missing}
	}

	createdTime, err := parseTimestamp(createdString)
	if err != nil {
		createdTime = d.now().UTC()
	}

	record := Record{
		ID:          id,
		Fields:      valuesFromJSON(rawFields),
		Attachments: make(map[string][]Attachment),
		createdTime: createdTime,
	}

	for name, raw := range rawFields {
		if atts, ok := attachmentsFromJSON(raw); ok {
			record.Attachments[name] = atts
		}
	}

	return record, nil
}

// attachmentsFromJSON promotes a field only if it is a list and every
// element is attachment-shaped; an empty list qualifies
func attachmentsFromJSON(raw any) ([]Attachment, bool) {
	items, ok := raw.([]any)
	if !ok {
		return nil, false
	}

	atts := make([]Attachment, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		a, ok := attachmentFromJSON(obj)
		if !ok {
			return nil, false
		}
		atts = append(atts, a)
	}
	return atts, true
}

func attachmentFromJSON(obj map[string]any) (Attachment, bool) {
	id, ok := obj["id"].(string)
	if !ok {
		return Attachment{}, false
	}
	rawURL, ok := obj["url"].(string)
	if !ok || rawURL == "" {
		return Attachment{}, false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Attachment{}, false
	}

	filename, _ := obj["filename"].(string)

	metadata := make(map[string]Value, len(obj))
	for k, v := range obj {
		switch k {
		case "id", "url", "filename":
			continue
		}
		metadata[k] = valueFromJSON(v)
	}

	return Attachment{ID: id, URL: u, Filename: filename, Metadata: metadata}, true
}

func deletedFromJSON(obj map[string]any) (Record, error) {
	id, hasID := obj["id"].(string)
	deleted, hasDeleted := obj["deleted"].(bool)

	var missing []string
	if !hasID {
		missing = append(missing, "id")
	}
	if !hasDeleted {
		missing = append(missing, "deleted")
	}
	if len(missing) > 0 {
		return Record{}, &Error{Code: CodeMissingRequiredFields, Fields: missing}
	}

	if !deleted {
		return Record{}, &Error{Code: CodeDeleteOperationFailed, RecordID: id}
	}

	return Record{
		ID:          id,
		Fields:      map[string]Value{"deleted": Bool(true)},
		Attachments: make(map[string][]Attachment),
	}, nil
}

// asJSONObject parses data as a JSON object with numbers kept exact
func asJSONObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, &Error{Code: CodeInvalidResponse, Body: data}
	}
	return obj, nil
}

// objectList returns the objects listed under key. A missing key is an
// empty list; anything other than a list of objects is an invalid response.
func objectList(obj map[string]any, key string, data []byte) ([]map[string]any, error) {
	raw, ok := obj[key]
	if !ok {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, &Error{Code: CodeInvalidResponse, Body: data}
	}

	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &Error{Code: CodeInvalidResponse, Body: data}
		}
		out = append(out, entry)
	}
	return out, nil
}
