package publicationhub

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(httpclient.Options{
		Name:            "hub",
		Endpoint:        config.ServiceEndpoint{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 1},
		InitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	c, err := New(Options{HTTP: hc})
	require.NoError(t, err)
	return c
}

func publication(t model.CourtListType) core.Publication {
	return core.Publication{
		CourtListID:   "0c7d2c44-6a0e-4f8c-8d6c-3e7f2b1a9c55",
		CourtCentreID: "f8254db1-1683-483e-afb3-b87fde5a0a26",
		CourtListType: t,
		ContentDate:   "2026-03-02",
		Body:          []byte(`{"document":{}}`),
	}
}

func TestPublish_SendsDocumentWithHeaders(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/publication", r.URL.Path)
		assert.Equal(t, "COMMON_PLATFORM", r.Header.Get(HeaderProvenance))
		assert.Equal(t, "LIST", r.Header.Get(HeaderType))
		assert.Equal(t, "MAGISTRATES_PUBLIC_LIST", r.Header.Get(HeaderListType))
		assert.Equal(t, "f8254db1-1683-483e-afb3-b87fde5a0a26", r.Header.Get(HeaderCourtID))
		assert.Equal(t, "2026-03-02T00:00:00Z", r.Header.Get(HeaderContentDate))
		assert.Equal(t, "PUBLIC", r.Header.Get(HeaderSensitivity))
		assert.Equal(t, "ENGLISH", r.Header.Get(HeaderLanguage))
		assert.Equal(t, "2026-03-02T00:00:00Z", r.Header.Get(HeaderDisplayFrom))
		assert.Equal(t, "2026-03-02T23:59:59Z", r.Header.Get(HeaderDisplayTo))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"document":{}}`, string(body))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.Publish(context.Background(), publication(model.CourtListTypePublic)))
}

func TestPublish_Non2xxIsAnError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Publish(context.Background(), publication(model.CourtListTypeStandard))
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusInternalServerError))
}

func TestHeaders(t *testing.T) {
	c := newClient(t, func(http.ResponseWriter, *http.Request) {})

	h, err := c.Headers(publication(model.CourtListTypeStandard))
	require.NoError(t, err)
	assert.Equal(t, "CLASSIFIED", h.Get(HeaderSensitivity))
	assert.Equal(t, "MAGISTRATES_STANDARD_LIST", h.Get(HeaderListType))

	h, err = c.Headers(publication(model.CourtListTypeOnlinePublic))
	require.NoError(t, err)
	assert.Equal(t, "MAGISTRATES_PUBLIC_ADULT_COURT_LIST_DAILY", h.Get(HeaderListType))

	bad := publication(model.CourtListTypePublic)
	bad.ContentDate = "02/03/2026"
	_, err = c.Headers(bad)
	assert.Error(t, err)

	_, err = c.Headers(publication("WEEKLY"))
	assert.Error(t, err)
}
