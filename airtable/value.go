package airtable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"time"
)

// Kind identifies which variant a Value holds
type Kind int

const (
	// KindNull is an explicit JSON null (also the zero Value)
	KindNull Kind = iota
	// KindString is a JSON string
	KindString
	// KindInt is a JSON number without a fractional part
	KindInt
	// KindFloat is any other JSON number
	KindFloat
	// KindBool is a JSON boolean
	KindBool
	// KindDate is a timestamp; it is written in the wire timestamp format
	KindDate
	// KindURL is written as its string form
	KindURL
	// KindAttachment is a single attachment, written as a one-element list
	KindAttachment
	// KindAttachments is a list of attachments
	KindAttachments
	// KindList is a list of values
	KindList
	// KindObject is a map of named values
	KindObject
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindURL:
		return "url"
	case KindAttachment:
		return "attachment"
	case KindAttachments:
		return "attachments"
	case KindList:
		return "list"
	case KindObject:
		return "object"
	default:
		return "null"
	}
}

// Value is a dynamically-typed field value. The zero Value is null.
type Value struct {
	kind        Kind
	str         string
	num         int64
	flt         float64
	boolean     bool
	date        time.Time
	link        *url.URL
	attachments []Attachment
	list        []Value
	object      map[string]Value
}

// Null returns the null value
func Null() Value { return Value{} }

// String returns a string value
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer value
func Int(n int64) Value { return Value{kind: KindInt, num: n} }

// Float returns a floating point value
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool returns a boolean value
func Bool(b bool) Value { return Value{kind: KindBool, boolean: b} }

// Date returns a timestamp value
func Date(t time.Time) Value { return Value{kind: KindDate, date: t} }

// URL returns a URL value. A nil URL yields null.
func URL(u *url.URL) Value {
	if u == nil {
		return Null()
	}
	return Value{kind: KindURL, link: u}
}

// AttachmentValue returns a single attachment value
func AttachmentValue(a Attachment) Value {
	return Value{kind: KindAttachment, attachments: []Attachment{a}}
}

// Attachments returns a list-of-attachments value
func Attachments(atts ...Attachment) Value {
	return Value{kind: KindAttachments, attachments: atts}
}

// List returns a list value
func List(values ...Value) Value { return Value{kind: KindList, list: values} }

// Object returns an object value
func Object(fields map[string]Value) Value { return Value{kind: KindObject, object: fields} }

// Kind returns the variant held by v
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsString returns the text of a String value
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the number held by an Int value
func (v Value) AsInt() (int64, bool) { return v.num, v.kind == KindInt }

// AsFloat returns the numeric value of an Int or Float
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.flt, true
	case KindInt:
		return float64(v.num), true
	}
	return 0, false
}

// AsBool returns the flag held by a Bool value
func (v Value) AsBool() (bool, bool) { return v.boolean, v.kind == KindBool }

// AsDate returns the timestamp held by a Date value
func (v Value) AsDate() (time.Time, bool) { return v.date, v.kind == KindDate }

// AsURL returns the link held by a URL value
func (v Value) AsURL() (*url.URL, bool) { return v.link, v.kind == KindURL }

// AsAttachments returns the attachments held by an Attachment or Attachments value
func (v Value) AsAttachments() ([]Attachment, bool) {
	if v.kind == KindAttachment || v.kind == KindAttachments {
		return v.attachments, true
	}
	return nil, false
}

// AsList returns the elements of a List value
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsObject returns the members of an Object value
func (v Value) AsObject() (map[string]Value, bool) { return v.object, v.kind == KindObject }

// Interface returns v as a plain Go value: nil, string, int64, float64, bool,
// time.Time, *url.URL, Attachment, []Attachment, []any or map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.boolean
	case KindDate:
		return v.date
	case KindURL:
		return v.link
	case KindAttachment:
		return v.attachments[0]
	case KindAttachments:
		return v.attachments
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.object))
		for k, item := range v.object {
			out[k] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether v and other hold the same variant and content
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.num == other.num
	case KindFloat:
		return v.flt == other.flt
	case KindBool:
		return v.boolean == other.boolean
	case KindDate:
		return v.date.Equal(other.date)
	case KindURL:
		return v.link.String() == other.link.String()
	case KindAttachment, KindAttachments:
		if len(v.attachments) != len(other.attachments) {
			return false
		}
		for i := range v.attachments {
			if !v.attachments[i].Equal(other.attachments[i]) {
				return false
			}
		}
		return true
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return equalValueMaps(v.object, other.object)
	}
	return false
}

// String implements fmt.Stringer
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.str
	case KindDate:
		return formatTimestamp(v.date)
	case KindURL:
		return v.link.String()
	}
	data, err := json.Marshal(v.wire())
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}
	return string(data)
}

// MarshalJSON writes v in its wire form
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.wire())
}

// UnmarshalJSON reads any JSON value. Objects inside lists stay objects;
// attachment detection only happens when decoding records.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = valueFromJSON(raw)
	return nil
}

// wire converts v to the structure written to request bodies
func (v Value) wire() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.num
	case KindFloat:
		return v.flt
	case KindBool:
		return v.boolean
	case KindDate:
		return formatTimestamp(v.date)
	case KindURL:
		return v.link.String()
	case KindAttachment, KindAttachments:
		out := make([]any, len(v.attachments))
		for i, a := range v.attachments {
			out[i] = encodeAttachment(a)
		}
		return out
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.wire()
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.object))
		for k, item := range v.object {
			out[k] = item.wire()
		}
		return out
	default:
		return nil
	}
}

// valueFromJSON converts the output of a UseNumber json.Decoder
func valueFromJSON(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return Int(n)
		}
		f, err := t.Float64()
		if err != nil {
			return String(t.String())
		}
		return Float(f)
	case float64:
		return Float(t)
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = valueFromJSON(item)
		}
		return List(items...)
	case map[string]any:
		return Object(valuesFromJSON(t))
	default:
		return String(fmt.Sprint(t))
	}
}

func valuesFromJSON(raw map[string]any) map[string]Value {
	out := make(map[string]Value, len(raw))
	for k, item := range raw {
		out[k] = valueFromJSON(item)
	}
	return out
}

func equalValueMaps(a, b map[string]Value) bool {
	return maps.EqualFunc(a, b, func(x, y Value) bool { return x.Equal(y) })
}
