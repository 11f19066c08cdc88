package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCreatedTime = "2017-10-16T11:37:26.000Z"

func recordJSON(id string, fields string) string {
	return fmt.Sprintf(`{"id": %q, "createdTime": %q, "fields": %s}`, id, testCreatedTime, fields)
}

func newServerClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient("app123", "key123", zerolog.Nop(), WithBaseURL(server.URL+"/v0/"))
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseID  string
		apiKey  string
		wantErr bool
		errMsg  string
	}{
		{name: "valid config", baseID: "app123", apiKey: "key123"},
		{name: "missing base", baseID: "", apiKey: "key123", wantErr: true, errMsg: "base ID is required"},
		{name: "missing API key", baseID: "app123", apiKey: " ", wantErr: true, errMsg: "API key is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseID, tt.apiKey, zerolog.Nop())
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.baseID, client.BaseID())
			assert.Equal(t, DefaultBaseURL, client.baseURL)
			assert.Equal(t, DefaultConcurrency, client.concurrency)
		})
	}
}

func TestClientOptions(t *testing.T) {
	client, err := NewClient("app123", "key123", zerolog.Nop(),
		WithBaseURL("https://proxy.example.com/v0/"),
		WithUserAgent("custom/1.0"),
		WithConcurrency(2),
		WithConcurrency(0),
	)
	require.NoError(t, err)
	assert.Equal(t, "https://proxy.example.com/v0", client.baseURL)
	assert.Equal(t, "custom/1.0", client.userAgent)
	assert.Equal(t, 2, client.concurrency)
}

func TestClient_Get(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v0/app123/My%20Table/rec123", r.URL.EscapedPath())
		assert.Equal(t, "Bearer key123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, singleRecordJSON)
	})

	record, err := client.Get(context.Background(), "My Table", "rec123")
	require.NoError(t, err)
	assert.Equal(t, "rec123", record.ID)
	assert.Equal(t, "John", record.String("name"))
	assert.Len(t, record.Attachments["file"], 1)
}

func TestClient_GetNotFound(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error": "NOT_FOUND"}`)
	})

	_, err := client.Get(context.Background(), "Table", "recMissing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestClient_ListAll(t *testing.T) {
	var (
		mu      sync.Mutex
		offsets []string
	)
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		offsets = append(offsets, r.URL.Query().Get("offset"))
		mu.Unlock()

		assert.Equal(t, "Grid view", r.URL.Query().Get("view"))
		assert.Equal(t, []string{"name", "age"}, r.URL.Query()["fields[]"])

		switch r.URL.Query().Get("offset") {
		case "":
			_, _ = io.WriteString(w, fmt.Sprintf(`{"records": [%s, %s], "offset": "o1"}`,
				recordJSON("rec1", `{"name": "a"}`), recordJSON("rec2", `{"name": "b"}`)))
		case "o1":
			_, _ = io.WriteString(w, fmt.Sprintf(`{"records": [%s]}`, recordJSON("rec3", `{"name": "c"}`)))
		default:
			t.Errorf("unexpected offset %q", r.URL.Query().Get("offset"))
		}
	})

	records, err := client.ListAll(context.Background(), "Table", ListParams{
		View:   "Grid view",
		Fields: []string{"name", "age"},
	})
	require.NoError(t, err)

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"rec1", "rec2", "rec3"}, ids)
	assert.Equal(t, []string{"", "o1"}, offsets)
}

func TestClient_ListAllFailsOnLaterPage(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		if strings.Contains(req.URL, "offset=") {
			return jsonResponse(http.StatusInternalServerError, `{"error": "boom"}`), nil
		}
		return jsonResponse(http.StatusOK, fmt.Sprintf(`{"records": [%s], "offset": "o1"}`, recordJSON("rec1", `{}`))), nil
	})

	records, err := client.ListAll(context.Background(), "Table", ListParams{})
	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, &Error{Code: CodeHTTP, StatusCode: http.StatusInternalServerError})
	assert.Len(t, transport.calls(), 2)
}

func TestClient_ListAllEmpty(t *testing.T) {
	client, _ := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, `{"records": []}`), nil
	})

	records, err := client.ListAll(context.Background(), "Table", ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestListParamsQuery(t *testing.T) {
	tests := []struct {
		name    string
		params  ListParams
		want    map[string]string
		wantErr bool
	}{
		{
			name:   "empty",
			params: ListParams{},
			want:   map[string]string{},
		},
		{
			name: "everything",
			params: ListParams{
				View:            "Main",
				FilterByFormula: "{age} > 3",
				PageSize:        50,
				MaxRecords:      120,
				Sort:            []SortField{{Field: "name", Direction: "desc"}, {Field: "age"}},
			},
			want: map[string]string{
				"view":               "Main",
				"filterByFormula":    "{age} > 3",
				"pageSize":           "50",
				"maxRecords":         "120",
				"sort[0][field]":     "name",
				"sort[0][direction]": "desc",
				"sort[1][field]":     "age",
			},
		},
		{name: "page size too large", params: ListParams{PageSize: 101}, wantErr: true},
		{name: "negative page size", params: ListParams{PageSize: -1}, wantErr: true},
		{name: "negative max records", params: ListParams{MaxRecords: -5}, wantErr: true},
		{name: "bad sort direction", params: ListParams{Sort: []SortField{{Field: "a", Direction: "up"}}}, wantErr: true},
		{name: "empty sort field", params: ListParams{Sort: []SortField{{Direction: "asc"}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := tt.params.query()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
				return
			}
			require.NoError(t, err)

			got := make(map[string]string, len(query))
			for k := range query {
				got[k] = query.Get(k)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_ListInvalidParamsSendsNothing(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := client.List(context.Background(), "Table", ListParams{PageSize: 101})
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.Empty(t, transport.calls())
}

func TestClient_Create(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v0/app123/People", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"fields": {"name": "John", "age": 34}}`, string(body))

		_, _ = io.WriteString(w, recordJSON("recNew", `{"name": "John", "age": 34}`))
	})

	record, err := client.Create(context.Background(), "People", NewRecord("ignored", map[string]Value{
		"name": String("John"),
		"age":  Int(34),
	}))
	require.NoError(t, err)
	assert.Equal(t, "recNew", record.ID)
	assert.Equal(t, int64(34), record.Int("age"))
}

func TestClient_CreateRecords(t *testing.T) {
	var (
		mu    sync.Mutex
		sizes []int
	)
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Records []struct {
				ID     string         `json:"id"`
				Fields map[string]int `json:"fields"`
			} `json:"records"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))

		mu.Lock()
		sizes = append(sizes, len(payload.Records))
		mu.Unlock()

		out := make([]string, len(payload.Records))
		for i, rec := range payload.Records {
			assert.Empty(t, rec.ID)
			n := rec.Fields["n"]
			out[i] = recordJSON(fmt.Sprintf("rec%02d", n), fmt.Sprintf(`{"n": %d}`, n))
		}
		_, _ = io.WriteString(w, `{"records": [`+strings.Join(out, ",")+`]}`)
	})

	input := make([]Record, 25)
	for i := range input {
		input[i] = NewRecord("", map[string]Value{"n": Int(int64(i))})
	}

	created, err := client.CreateRecords(context.Background(), "Table", input)
	require.NoError(t, err)
	require.Len(t, created, 25)
	for i, r := range created {
		assert.Equal(t, fmt.Sprintf("rec%02d", i), r.ID)
	}

	sort.Ints(sizes)
	assert.Equal(t, []int{5, 10, 10}, sizes)
}

func TestClient_CreateRecordsEmpty(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	records, err := client.CreateRecords(context.Background(), "Table", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, transport.calls())
}

func TestClient_CreateRecordsBatchFailure(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		if strings.Contains(string(req.Body), `"n":10`) {
			return jsonResponse(http.StatusUnprocessableEntity, `{"error": "INVALID"}`), nil
		}
		return jsonResponse(http.StatusOK, `{"records": []}`), nil
	})
	client.concurrency = 1

	input := make([]Record, 25)
	for i := range input {
		input[i] = NewRecord("", map[string]Value{"n": Int(int64(i))})
	}

	records, err := client.CreateRecords(context.Background(), "Table", input)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.ErrorIs(t, err, ErrUnprocessableEntity)
	assert.Len(t, transport.calls(), 2)
}

func TestClient_Update(t *testing.T) {
	tests := []struct {
		name   string
		mode   UpdateMode
		method string
	}{
		{name: "merge", mode: Merge, method: http.MethodPatch},
		{name: "replace", mode: Replace, method: http.MethodPut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, transport := newTestClient(t, func(req *Request) (*Response, error) {
				return jsonResponse(http.StatusOK, recordJSON("rec1", `{"name": "Jane"}`)), nil
			})

			record, err := client.Update(context.Background(), "Table",
				NewRecord("rec1", map[string]Value{"name": String("Jane")}), tt.mode)
			require.NoError(t, err)
			assert.Equal(t, "Jane", record.String("name"))

			calls := transport.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.method, calls[0].Method)
			assert.Equal(t, "https://api.airtable.com/v0/app123/Table/rec1", calls[0].URL)
			assert.JSONEq(t, `{"fields": {"name": "Jane"}}`, string(calls[0].Body))
		})
	}
}

func TestClient_UpdateRequiresID(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	_, err := client.Update(context.Background(), "Table", NewRecord("", nil), Merge)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = client.UpdateRecords(context.Background(), "Table", []Record{
		NewRecord("rec1", nil),
		NewRecord("", nil),
	}, Replace)
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = client.Get(context.Background(), "Table", "")
	assert.ErrorIs(t, err, ErrInvalidParameters)

	_, err = client.Get(context.Background(), "", "rec1")
	assert.ErrorIs(t, err, ErrInvalidParameters)

	assert.Empty(t, transport.calls())
}

func TestClient_UpdateRecords(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, fmt.Sprintf(`{"records": [%s, %s]}`,
			recordJSON("rec1", `{"done": true}`), recordJSON("rec2", `{"done": true}`))), nil
	})

	records, err := client.UpdateRecords(context.Background(), "Table", []Record{
		NewRecord("rec1", map[string]Value{"done": Bool(true)}),
		NewRecord("rec2", map[string]Value{"done": Bool(true)}),
	}, Merge)
	require.NoError(t, err)
	require.Len(t, records, 2)

	calls := transport.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].Method)
	assert.JSONEq(t, `{"records": [
		{"id": "rec1", "fields": {"done": true}},
		{"id": "rec2", "fields": {"done": true}}
	]}`, string(calls[0].Body))
}

func TestClient_Delete(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/v0/app123/Table/rec1", r.URL.Path)
		_, _ = io.WriteString(w, `{"id": "rec1", "deleted": true}`)
	})

	record, err := client.Delete(context.Background(), "Table", "rec1")
	require.NoError(t, err)
	assert.Equal(t, "rec1", record.ID)
	assert.True(t, record.Bool("deleted"))
}

func TestClient_DeleteRecords(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		ids := r.URL.Query()["records[]"]
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = fmt.Sprintf(`{"id": %q, "deleted": true}`, id)
		}
		_, _ = io.WriteString(w, `{"records": [`+strings.Join(out, ",")+`]}`)
	})

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = fmt.Sprintf("rec%02d", i)
	}

	records, err := client.DeleteRecords(context.Background(), "Table", ids)
	require.NoError(t, err)
	require.Len(t, records, 12)
	for i, r := range records {
		assert.Equal(t, ids[i], r.ID)
		assert.True(t, r.Bool("deleted"))
	}
}

func TestClient_DeleteRecordsNotDeleted(t *testing.T) {
	client, _ := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, `{"records": [{"id": "rec1", "deleted": false}]}`), nil
	})

	_, err := client.DeleteRecords(context.Background(), "Table", []string{"rec1"})
	assert.ErrorIs(t, err, &Error{Code: CodeDeleteOperationFailed, RecordID: "rec1"})
}

func TestClient_ErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, target: ErrUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, target: ErrForbidden},
		{name: "too large", status: http.StatusRequestEntityTooLarge, body: `{}`, target: ErrRequestEntityTooLarge},
		{name: "other status", status: http.StatusMethodNotAllowed, body: `nope`, target: &Error{Code: CodeHTTP, StatusCode: http.StatusMethodNotAllowed}},
		{name: "invalid body", status: http.StatusOK, body: `<html>`, target: ErrInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(req *Request) (*Response, error) {
				return jsonResponse(tt.status, tt.body), nil
			})

			_, err := client.Get(context.Background(), "Table", "rec1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestClient_HTTPErrorCarriesResponse(t *testing.T) {
	client := newServerClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "abc")
		w.WriteHeader(http.StatusMethodNotAllowed)
		_, _ = io.WriteString(w, "method not allowed")
	})

	_, err := client.Get(context.Background(), "Table", "rec1")

	var airtableErr *Error
	require.ErrorAs(t, err, &airtableErr)
	assert.Equal(t, CodeHTTP, airtableErr.Code)
	assert.Equal(t, http.StatusMethodNotAllowed, airtableErr.StatusCode)
	assert.Equal(t, "abc", airtableErr.Header.Get("X-Request-Id"))
	assert.Equal(t, "method not allowed", string(airtableErr.Body))
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewClient("app123", "key123", zerolog.Nop(), WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "Table", "rec1")
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
}

func TestClient_UnbuildableURL(t *testing.T) {
	transport := &fakeTransport{handle: func(req *Request) (*Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	}}
	client, err := NewClient("app123", "key123", zerolog.Nop(),
		WithBaseURL("http://[::1"), WithTransport(transport))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "Table", "rec1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.False(t, IsNetwork(err))

	_, err = client.CreateRecords(context.Background(), "Table", []Record{NewRecord("", nil)})
	assert.ErrorIs(t, err, ErrInvalidParameters)
	assert.Empty(t, transport.calls())
}

func TestClient_DeleteRecordsMalformedList(t *testing.T) {
	client, _ := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, `{"records": [{"id": "rec1", "deleted": true}, "junk"]}`), nil
	})

	records, err := client.DeleteRecords(context.Background(), "Table", []string{"rec1", "rec2"})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Nil(t, records)
}

func TestClient_ListRecordsNotAList(t *testing.T) {
	client, _ := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, `{"records": "oops"}`), nil
	})

	records, err := client.List(context.Background(), "Table", ListParams{})
	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Nil(t, records)
}

func TestClient_CancelledContext(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		t.Fatal("no request expected")
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "Table", "rec1")
	assert.True(t, IsNetwork(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, transport.calls())
}

func TestClient_TestConnection(t *testing.T) {
	client, transport := newTestClient(t, func(req *Request) (*Response, error) {
		return jsonResponse(http.StatusOK, `{"records": []}`), nil
	})

	require.NoError(t, client.TestConnection(context.Background(), "Table"))

	calls := transport.calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].URL, "pageSize=1")
}
