package docgen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(httpclient.Options{
		Name:     "docgen",
		Endpoint: config.ServiceEndpoint{BaseURL: srv.URL, Timeout: time.Second},
	})
	require.NoError(t, err)
	c, err := New(hc)
	require.NoError(t, err)
	return c
}

func TestRender(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/render", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		var body struct {
			TemplateName string          `json:"templateName"`
			Data         json.RawMessage `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "CourtList", body.TemplateName)
		assert.JSONEq(t, `{"venue":{"venueName":"X"}}`, string(body.Data))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	})

	pdf, err := c.Render(context.Background(), core.RenderRequest{
		TemplateName: "CourtList",
		Data:         []byte(`{"venue":{"venueName":"X"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
}

func TestRender_Errors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := c.Render(context.Background(), core.RenderRequest{Data: []byte(`{}`)})
	assert.ErrorContains(t, err, "template name")

	_, err = c.Render(context.Background(), core.RenderRequest{TemplateName: "CourtList", Data: []byte(`{`)})
	assert.ErrorContains(t, err, "valid JSON")

	_, err = c.Render(context.Background(), core.RenderRequest{TemplateName: "CourtList", Data: []byte(`{}`)})
	assert.ErrorContains(t, err, "unexpected content type")
}
