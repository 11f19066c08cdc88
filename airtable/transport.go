package airtable

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Request is a fully built API request
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response is a raw API response, whatever its status
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes requests. It returns an error only when no HTTP
// response was received; HTTP error statuses come back as a Response.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// HTTPTransport is the default Transport backed by an http.Client
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client; a nil client uses http.DefaultClient
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{client: client}
}

// Do implements Transport
func (t *HTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}
