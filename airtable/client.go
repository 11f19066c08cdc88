package airtable

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidConfig indicates invalid client configuration
var ErrInvalidConfig = errors.New("invalid airtable configuration")

// maxPageSize is the largest page the list endpoint accepts
const maxPageSize = 100

// Client represents an Airtable API client bound to one base.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	baseURL     string
	baseID      string
	apiKey      string
	userAgent   string
	concurrency int
	transport   Transport
	decoder     *decoder
	logger      zerolog.Logger
}

// NewClient creates a new Airtable client for the base baseID
func NewClient(baseID, apiKey string, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseID) == "" {
		return nil, fmt.Errorf("%w: base ID is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	transport := options.transport
	if transport == nil {
		httpClient := options.httpClient
		if httpClient == nil {
			httpClient = &http.Client{Timeout: options.timeout}
		}
		transport = NewHTTPTransport(httpClient)
	}

	return &Client{
		baseURL:     options.baseURL,
		baseID:      baseID,
		apiKey:      apiKey,
		userAgent:   options.userAgent,
		concurrency: options.concurrency,
		transport:   transport,
		decoder:     newDecoder(),
		logger:      logger.With().Str("base", baseID).Logger(),
	}, nil
}

// BaseID returns the base the client works on
func (c *Client) BaseID() string {
	return c.baseID
}

// TestConnection fetches at most one record from table to verify the base
// and API key
func (c *Client) TestConnection(ctx context.Context, table string) error {
	_, err := c.ListPage(ctx, table, ListParams{PageSize: 1}, "")
	return err
}

// List returns the first page of records in table
func (c *Client) List(ctx context.Context, table string, params ListParams) ([]Record, error) {
	page, err := c.ListPage(ctx, table, params, "")
	if err != nil {
		return nil, err
	}
	return page.Records, nil
}

// ListPage returns one page of records starting at offset (empty for the
// first page)
func (c *Client) ListPage(ctx context.Context, table string, params ListParams, offset string) (Page, error) {
	query, err := params.query()
	if err != nil {
		return Page{}, err
	}
	if offset != "" {
		query.Set("offset", offset)
	}

	req, err := c.buildRequest("ListPage", http.MethodGet, table, "", query, nil)
	if err != nil {
		return Page{}, err
	}
	return perform(ctx, c, req, c.decoder.decodeRecordsWithOffset)
}

// ListAll follows the offset returned by each page until the last one and
// returns every record in retrieval order. Any failure discards the pages
// already fetched.
func (c *Client) ListAll(ctx context.Context, table string, params ListParams) ([]Record, error) {
	var (
		all    []Record
		offset string
		page   int
	)

	for {
		page++
		result, err := c.ListPage(ctx, table, params, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Records...)

		c.logger.Debug().
			Str("table", table).
			Int("page", page).
			Int("count", len(result.Records)).
			Int("total", len(all)).
			Msg("Retrieved records page")

		if result.Offset == "" {
			break
		}
		offset = result.Offset
	}

	if all == nil {
		all = []Record{}
	}
	return all, nil
}

// Get fetches a single record
func (c *Client) Get(ctx context.Context, table, recordID string) (Record, error) {
	if recordID == "" {
		return Record{}, invalidParameters("Get", table, recordID)
	}
	req, err := c.buildRequest("Get", http.MethodGet, table, recordID, nil, nil)
	if err != nil {
		return Record{}, err
	}
	return perform(ctx, c, req, c.decoder.decodeRecord)
}

// Create creates one record. Any ID on the record is ignored.
func (c *Client) Create(ctx context.Context, table string, record Record) (Record, error) {
	req, err := c.buildRequest("Create", http.MethodPost, table, "", nil, encodeRecord(record, false))
	if err != nil {
		return Record{}, err
	}
	return perform(ctx, c, req, c.decoder.decodeRecord)
}

// CreateRecords creates records in batches of BatchLimit and returns the
// created records in input order
func (c *Client) CreateRecords(ctx context.Context, table string, records []Record) ([]Record, error) {
	return runBatches(ctx, chunk(records, BatchLimit), c.concurrency,
		func(ctx context.Context, group []Record) ([]Record, error) {
			req, err := c.buildRequest("CreateRecords", http.MethodPost, table, "", nil, encodeRecords(group, false))
			if err != nil {
				return nil, err
			}
			c.logger.Debug().Str("table", table).Int("count", len(group)).Msg("Creating record batch")
			return perform(ctx, c, req, c.decoder.decodeRecords)
		})
}

// Update writes record, which must have an ID. Merge only overwrites the
// fields present on record; Replace clears every field it does not carry.
func (c *Client) Update(ctx context.Context, table string, record Record, mode UpdateMode) (Record, error) {
	if record.ID == "" {
		return Record{}, invalidParameters("Update", table, record)
	}
	req, err := c.buildRequest("Update", mode.Method(), table, record.ID, nil, encodeRecord(record, false))
	if err != nil {
		return Record{}, err
	}
	return perform(ctx, c, req, c.decoder.decodeRecord)
}

// UpdateRecords updates records in batches of BatchLimit. Every record must
// have an ID; otherwise nothing is sent.
func (c *Client) UpdateRecords(ctx context.Context, table string, records []Record, mode UpdateMode) ([]Record, error) {
	for _, r := range records {
		if r.ID == "" {
			return nil, invalidParameters("UpdateRecords", table, r)
		}
	}

	return runBatches(ctx, chunk(records, BatchLimit), c.concurrency,
		func(ctx context.Context, group []Record) ([]Record, error) {
			req, err := c.buildRequest("UpdateRecords", mode.Method(), table, "", nil, encodeRecords(group, true))
			if err != nil {
				return nil, err
			}
			c.logger.Debug().Str("table", table).Int("count", len(group)).Msg("Updating record batch")
			return perform(ctx, c, req, c.decoder.decodeRecords)
		})
}

// Delete deletes one record and returns a record whose only field is
// "deleted": true
func (c *Client) Delete(ctx context.Context, table, recordID string) (Record, error) {
	if recordID == "" {
		return Record{}, invalidParameters("Delete", table, recordID)
	}
	req, err := c.buildRequest("Delete", http.MethodDelete, table, recordID, nil, nil)
	if err != nil {
		return Record{}, err
	}
	return perform(ctx, c, req, c.decoder.decodeDeleteResponse)
}

// DeleteRecords deletes records by ID in batches of BatchLimit
func (c *Client) DeleteRecords(ctx context.Context, table string, recordIDs []string) ([]Record, error) {
	for _, id := range recordIDs {
		if id == "" {
			return nil, invalidParameters("DeleteRecords", table, recordIDs)
		}
	}

	return runBatches(ctx, chunk(recordIDs, BatchLimit), c.concurrency,
		func(ctx context.Context, group []string) ([]Record, error) {
			query := url.Values{"records[]": group}
			req, err := c.buildRequest("DeleteRecords", http.MethodDelete, table, "", query, nil)
			if err != nil {
				return nil, err
			}
			c.logger.Debug().Str("table", table).Int("count", len(group)).Msg("Deleting record batch")
			return perform(ctx, c, req, c.decoder.decodeBatchDeleteResponse)
		})
}

// buildRequest assembles method, URL, headers and body for one call
func (c *Client) buildRequest(operation, method, table, recordID string, query url.Values, payload map[string]any) (*Request, error) {
	if table == "" {
		return nil, invalidParameters(operation, table, recordID)
	}

	var sb strings.Builder
	sb.WriteString(c.baseURL)
	sb.WriteByte('/')
	sb.WriteString(url.PathEscape(c.baseID))
	sb.WriteByte('/')
	sb.WriteString(url.PathEscape(table))
	if recordID != "" {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(recordID))
	}
	if len(query) > 0 {
		sb.WriteByte('?')
		sb.WriteString(query.Encode())
	}

	target := sb.String()
	if _, err := url.Parse(target); err != nil {
		return nil, invalidParameters(operation, table, recordID)
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("Accept", "application/json")
	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}

	req := &Request{Method: method, URL: target, Header: header}
	if payload != nil {
		body, err := marshalPayload(operation, payload)
		if err != nil {
			return nil, err
		}
		req.Body = body
		header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// perform runs req through the transport, classifies failures and decodes
// the body
func perform[T any](ctx context.Context, c *Client, req *Request, decode func([]byte) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, mapError(err)
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		var airtableErr *Error
		if errors.As(err, &airtableErr) {
			return zero, airtableErr
		}
		c.logger.Debug().Err(err).Str("method", req.Method).Str("url", req.URL).Msg("Airtable request failed")
		return zero, &Error{Code: CodeNetwork, Err: err}
	}

	c.logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL).
		Int("status", resp.StatusCode).
		Msg("Airtable API request")

	if err := checkStatus(resp.StatusCode, resp.Header, resp.Body); err != nil {
		return zero, err
	}

	out, err := decode(resp.Body)
	if err != nil {
		return zero, mapError(err)
	}
	return out, nil
}

func invalidParameters(operation string, params ...any) *Error {
	return &Error{Code: CodeInvalidParameters, Operation: operation, Parameters: params}
}

// query converts params to URL query values
func (p ListParams) query() (url.Values, error) {
	if p.PageSize < 0 || p.PageSize > maxPageSize {
		return nil, invalidParameters("ListPage", p)
	}
	if p.MaxRecords < 0 {
		return nil, invalidParameters("ListPage", p)
	}

	query := url.Values{}
	for _, field := range p.Fields {
		query.Add("fields[]", field)
	}
	if p.View != "" {
		query.Set("view", p.View)
	}
	if p.FilterByFormula != "" {
		query.Set("filterByFormula", p.FilterByFormula)
	}
	if p.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.MaxRecords > 0 {
		query.Set("maxRecords", strconv.Itoa(p.MaxRecords))
	}
	for i, s := range p.Sort {
		if s.Field == "" {
			return nil, invalidParameters("ListPage", p)
		}
		query.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		switch s.Direction {
		case "":
		case "asc", "desc":
			query.Set(fmt.Sprintf("sort[%d][direction]", i), s.Direction)
		default:
			return nil, invalidParameters("ListPage", p)
		}
	}
	return query, nil
}
