package airtable

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeTransport records every request and answers through handle
type fakeTransport struct {
	mu       sync.Mutex
	requests []*Request
	handle   func(req *Request) (*Response, error)
}

func (f *fakeTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.handle(req)
}

func (f *fakeTransport) calls() []*Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Request(nil), f.requests...)
}

func jsonResponse(status int, body string) *Response {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	return &Response{StatusCode: status, Header: header, Body: []byte(body)}
}

func newTestClient(t *testing.T, handle func(req *Request) (*Response, error)) (*Client, *fakeTransport) {
	t.Helper()

	transport := &fakeTransport{handle: handle}
	client, err := NewClient("app123", "key123", zerolog.Nop(), WithTransport(transport))
	require.NoError(t, err)
	return client, transport
}
