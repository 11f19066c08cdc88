package airtable

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// ErrorCode classifies an Error
type ErrorCode int

const (
	// CodeUnknown is an unclassified failure; Err carries the cause when there is one
	CodeUnknown ErrorCode = iota
	// CodeMissingRequiredFields means a response lacked required keys
	CodeMissingRequiredFields
	// CodeInvalidParameters means the caller's input cannot be turned into a request
	CodeInvalidParameters
	// CodeBadRequest is HTTP 400
	CodeBadRequest
	// CodeUnauthorized is HTTP 401
	CodeUnauthorized
	// CodePaymentRequired is HTTP 402
	CodePaymentRequired
	// CodeForbidden is HTTP 403
	CodeForbidden
	// CodeNotFound is HTTP 404
	CodeNotFound
	// CodeRequestEntityTooLarge is HTTP 413
	CodeRequestEntityTooLarge
	// CodeUnprocessableEntity is HTTP 422
	CodeUnprocessableEntity
	// CodeHTTP is any other non-2xx status
	CodeHTTP
	// CodeInvalidResponse means the body is not the JSON object we expected
	CodeInvalidResponse
	// CodeDeleteOperationFailed means the API answered deleted=false
	CodeDeleteOperationFailed
	// CodeNetwork means no HTTP response was received at all
	CodeNetwork
)

// String returns the name of the code
func (c ErrorCode) String() string {
	switch c {
	case CodeMissingRequiredFields:
		return "missing_required_fields"
	case CodeInvalidParameters:
		return "invalid_parameters"
	case CodeBadRequest:
		return "bad_request"
	case CodeUnauthorized:
		return "unauthorized"
	case CodePaymentRequired:
		return "payment_required"
	case CodeForbidden:
		return "forbidden"
	case CodeNotFound:
		return "not_found"
	case CodeRequestEntityTooLarge:
		return "request_entity_too_large"
	case CodeUnprocessableEntity:
		return "unprocessable_entity"
	case CodeHTTP:
		return "http"
	case CodeInvalidResponse:
		return "invalid_response"
	case CodeDeleteOperationFailed:
		return "delete_operation_failed"
	case CodeNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every Client operation.
// Only the fields relevant to Code are populated.
type Error struct {
	Code ErrorCode

	// CodeMissingRequiredFields
	Fields []string

	// CodeInvalidParameters
	Operation  string
	Parameters []any

	// CodeHTTP; Body is also set for CodeInvalidResponse
	StatusCode int
	Header     http.Header
	Body       []byte

	// CodeDeleteOperationFailed
	RecordID string

	// CodeNetwork and CodeUnknown
	Err error
}

// Sentinel errors for use with errors.Is. Matching is by code only.
var (
	ErrMissingRequiredFields = &Error{Code: CodeMissingRequiredFields}
	ErrInvalidParameters     = &Error{Code: CodeInvalidParameters}
	ErrBadRequest            = &Error{Code: CodeBadRequest}
	ErrUnauthorized          = &Error{Code: CodeUnauthorized}
	ErrPaymentRequired       = &Error{Code: CodePaymentRequired}
	ErrForbidden             = &Error{Code: CodeForbidden}
	ErrNotFound              = &Error{Code: CodeNotFound}
	ErrRequestEntityTooLarge = &Error{Code: CodeRequestEntityTooLarge}
	ErrUnprocessableEntity   = &Error{Code: CodeUnprocessableEntity}
	ErrHTTP                  = &Error{Code: CodeHTTP}
	ErrInvalidResponse       = &Error{Code: CodeInvalidResponse}
	ErrDeleteOperationFailed = &Error{Code: CodeDeleteOperationFailed}
	ErrNetwork               = &Error{Code: CodeNetwork}
	ErrUnknown               = &Error{Code: CodeUnknown}
)

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Code {
	case CodeMissingRequiredFields:
		return fmt.Sprintf("airtable: missing required fields: %s", strings.Join(e.Fields, ", "))
	case CodeInvalidParameters:
		return fmt.Sprintf("airtable: invalid parameters for %s: %v", e.Operation, e.Parameters)
	case CodeBadRequest:
		return "airtable: bad request"
	case CodeUnauthorized:
		return "airtable: unauthorized: invalid API key"
	case CodePaymentRequired:
		return "airtable: payment required"
	case CodeForbidden:
		return "airtable: forbidden"
	case CodeNotFound:
		return "airtable: resource not found"
	case CodeRequestEntityTooLarge:
		return "airtable: request entity too large"
	case CodeUnprocessableEntity:
		return "airtable: unprocessable entity"
	case CodeHTTP:
		return fmt.Sprintf("airtable: request failed with status %d %s: %s",
			e.StatusCode, http.StatusText(e.StatusCode), string(e.Body))
	case CodeInvalidResponse:
		return fmt.Sprintf("airtable: response is not a valid JSON object: %s", string(e.Body))
	case CodeDeleteOperationFailed:
		return fmt.Sprintf("airtable: delete returned false for record %s", e.RecordID)
	case CodeNetwork:
		return fmt.Sprintf("airtable: network error: %v", e.Err)
	default:
		if e.Err != nil {
			return fmt.Sprintf("airtable: unknown error: %v", e.Err)
		}
		return "airtable: unknown error"
	}
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code. A target that
// carries a status code or record id must match it too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.StatusCode != 0 && t.StatusCode != e.StatusCode {
		return false
	}
	if t.RecordID != "" && t.RecordID != e.RecordID {
		return false
	}
	return true
}

// IsNotFound reports whether err classifies as CodeNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is an authentication or permission failure
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrForbidden)
}

// IsNetwork reports whether err is a transport-level failure
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// checkStatus maps an HTTP status to the taxonomy. It returns nil for 2xx.
func checkStatus(status int, header http.Header, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusBadRequest:
		return &Error{Code: CodeBadRequest}
	case status == http.StatusUnauthorized:
		return &Error{Code: CodeUnauthorized}
	case status == http.StatusPaymentRequired:
		return &Error{Code: CodePaymentRequired}
	case status == http.StatusForbidden:
		return &Error{Code: CodeForbidden}
	case status == http.StatusNotFound:
		return &Error{Code: CodeNotFound}
	case status == http.StatusRequestEntityTooLarge:
		return &Error{Code: CodeRequestEntityTooLarge}
	case status == http.StatusUnprocessableEntity:
		return &Error{Code: CodeUnprocessableEntity}
	default:
		return &Error{Code: CodeHTTP, StatusCode: status, Header: header, Body: body}
	}
}

// mapError classifies an arbitrary failure. Already-classified errors are
// returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var airtableErr *Error
	if errors.As(err, &airtableErr) {
		return airtableErr
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Code: CodeNetwork, Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &Error{Code: CodeNetwork, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &Error{Code: CodeNetwork, Err: err}
	}

	return &Error{Code: CodeUnknown, Err: err}
}
