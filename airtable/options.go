package airtable

import (
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Airtable REST API root
	DefaultBaseURL   = "https://api.airtable.com/v0"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "airtabler/0.1"
)

// Option configures a Client.
type Option func(*clientOptions)

// clientOptions holds configuration options for the Client.
type clientOptions struct {
	baseURL     string
	timeout     time.Duration
	httpClient  *http.Client
	transport   Transport
	userAgent   string
	concurrency int
}

func defaultOptions() clientOptions {
	return clientOptions{
		baseURL:     DefaultBaseURL,
		timeout:     defaultTimeout,
		userAgent:   defaultUserAgent,
		concurrency: DefaultConcurrency,
	}
}

// WithBaseURL points the client at another API root (a proxy or a test server).
func WithBaseURL(baseURL string) Option {
	return func(o *clientOptions) {
		if baseURL != "" {
			o.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout sets the HTTP client timeout. Ignored with WithHTTPClient or WithTransport.
func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = timeout
	}
}

// WithHTTPClient uses a custom http.Client for the default transport.
func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTransport replaces the HTTP transport entirely.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithUserAgent sets a custom user agent string.
func WithUserAgent(userAgent string) Option {
	return func(o *clientOptions) {
		o.userAgent = userAgent
	}
}

// WithConcurrency sets how many batch requests may run at once.
// Values below 1 are ignored.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) {
		if n >= 1 {
			o.concurrency = n
		}
	}
}
