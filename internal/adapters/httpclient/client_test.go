package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
)

func newTestClient(t *testing.T, baseURL string, retries int) *Client {
	t.Helper()
	c, err := New(Options{
		Name:            "listing",
		Endpoint:        config.ServiceEndpoint{BaseURL: baseURL, Timeout: 5 * time.Second, MaxRetries: retries},
		InitialInterval: time.Millisecond,
		MaxBodyBytes:    64,
	})
	require.NoError(t, err)
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing name", Options{Endpoint: config.ServiceEndpoint{BaseURL: "http://x"}}},
		{"missing base url", Options{Name: "x"}},
		{"bad scheme", Options{Name: "x", Endpoint: config.ServiceEndpoint{BaseURL: "ftp://x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestGetJSON_ResolvesAgainstBasePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/courtlist", r.URL.Path)
		assert.Equal(t, "B01", r.URL.Query().Get("courtCentreId"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/api/", 0)
	var out struct {
		OK bool `json:"ok"`
	}
	err := c.GetJSON(context.Background(), "/courtlist", url.Values{"courtCentreId": {"B01"}}, &out)
	require.NoError(t, err)
	assert.True(t, out.OK)
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("done"))
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 3).Do(context.Background(), Request{Path: "render"})
	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 2).Do(context.Background(), Request{Path: "x"})
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadGateway))
	assert.Contains(t, err.Error(), "upstream down")
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 5).Do(context.Background(), Request{Path: "x"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.False(t, se.Temporary())
	assert.Equal(t, "http_404", se.ErrorClass())
	assert.Equal(t, int32(1), calls.Load())
}

func TestDo_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 65)))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 3).Do(context.Background(), Request{Path: "x"})
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}

func TestDo_SendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "LIST", r.Header.Get("x-type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL, 0).Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "publication",
		Header: http.Header{"X-Type": {"LIST"}},
		Body:   []byte(`{}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestDo_CanceledContextStopsRetrying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(t, srv.URL, 10).Do(ctx, Request{Path: "x"})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewHTTPClient_ClientCredentials(t *testing.T) {
	var tokenCalls atomic.Int32
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer api.Close()

	ep := config.ServiceEndpoint{
		BaseURL:      api.URL,
		Timeout:      5 * time.Second,
		TokenURL:     tokenSrv.URL,
		ClientID:     "courtlist",
		ClientSecret: "secret",
	}
	c, err := New(Options{Name: "hub", Endpoint: ep})
	require.NoError(t, err)

	for range 2 {
		_, err := c.Do(context.Background(), Request{Path: "publication"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load(), "token is cached between calls")
}
