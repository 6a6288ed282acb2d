package refdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
)

const envelope = `{
	"organisationunits": [{
		"id": "f8254db1-1683-483e-afb3-b87fde5a0a26",
		"oucode": "B01LY00",
		"oucodeL3Name": "Lavender Hill Magistrates' Court",
		"address": {"address1": "176A Lavender Hill", "address2": "London", "postcode": "SW11 1JU"}
	}]
}`

func newHTTP(t *testing.T, h http.HandlerFunc) *httpclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(httpclient.Options{
		Name:     "refdata",
		Endpoint: config.ServiceEndpoint{BaseURL: srv.URL, Timeout: time.Second},
	})
	require.NoError(t, err)
	return hc
}

func TestCourtCentre(t *testing.T) {
	hc := newHTTP(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courtrooms/f8254db1-1683-483e-afb3-b87fde5a0a26", r.URL.Path)
		_, _ = w.Write([]byte(envelope))
	})
	c, err := New(Options{HTTP: hc})
	require.NoError(t, err)

	centre, err := c.CourtCentre(context.Background(), "f8254db1-1683-483e-afb3-b87fde5a0a26")
	require.NoError(t, err)
	assert.Equal(t, "Lavender Hill Magistrates' Court", centre.Name)
	assert.Equal(t, "B01LY00", centre.OUCode)
	assert.Equal(t, []string{"176A Lavender Hill", "London"}, centre.Address.Lines())
	assert.Equal(t, "SW11 1JU", centre.Address.Postcode)
}

func TestCourtCentre_CustomExpression(t *testing.T) {
	hc := newHTTP(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"centre": {"oucodeL3Name": "Westminster"}}}`))
	})
	c, err := New(Options{HTTP: hc, CourtCentreExpr: "data.centre"})
	require.NoError(t, err)

	centre, err := c.CourtCentre(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Westminster", centre.Name)
	assert.Equal(t, "abc", centre.ID)
}

func TestCourtCentre_NothingSelected(t *testing.T) {
	hc := newHTTP(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"organisationunits": []}`))
	})
	c, err := New(Options{HTTP: hc})
	require.NoError(t, err)

	_, err = c.CourtCentre(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrCourtCentreNotFound)

	_, err = c.CourtCentre(context.Background(), " ")
	assert.Error(t, err)
}

func TestNew_RejectsBadExpression(t *testing.T) {
	hc := newHTTP(t, func(http.ResponseWriter, *http.Request) {})
	_, err := New(Options{HTTP: hc, CourtCentreExpr: "organisationunits[0"})
	assert.Error(t, err)

	_, err = New(Options{})
	assert.Error(t, err)
}
