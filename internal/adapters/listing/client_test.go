package listing

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
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

func newClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(httpclient.Options{
		Name:            "listing",
		Endpoint:        config.ServiceEndpoint{BaseURL: srv.URL, Timeout: time.Second},
		InitialInterval: time.Millisecond,
	})
	require.NoError(t, err)
	c, err := New(hc)
	require.NoError(t, err)
	return c
}

func TestFetchCourtList(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courtlist", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "centre-1", q.Get("courtCentreId"))
		assert.Equal(t, "PUBLIC", q.Get("listId"))
		assert.Equal(t, "2026-03-02", q.Get("startDate"))
		assert.Equal(t, "2026-03-02", q.Get("endDate"))
		_, _ = w.Write([]byte(`{
			"courtCentreName": "Lavender Hill Magistrates' Court",
			"listDate": "2026-03-02",
			"hearingDates": [{"hearingDate": "2026-03-02", "courtRooms": [{"courtRoomName": "Courtroom 2", "timeslots": []}]}]
		}`))
	})

	payload, err := c.FetchCourtList(context.Background(), core.CourtListQuery{
		CourtCentreID: "centre-1",
		ListType:      model.CourtListTypePublic,
		Date:          "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "centre-1", payload.CourtCentreID, "centre id defaults to the query")
	assert.Equal(t, "Lavender Hill Magistrates' Court", payload.CourtCentreName)
	require.Len(t, payload.HearingDates, 1)
	assert.Equal(t, "Courtroom 2", payload.HearingDates[0].CourtRooms[0].CourtRoomName)
}

func TestFetchCourtList_EmptyDay(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"courtCentreName": "Lavender Hill Magistrates' Court", "hearingDates": []}`))
	})

	payload, err := c.FetchCourtList(context.Background(), core.CourtListQuery{
		CourtCentreID: "centre-1",
		ListType:      model.CourtListTypeStandard,
		Date:          "2026-03-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", payload.ListDate, "list date defaults to the queried date")
	assert.Empty(t, payload.HearingDates)
}

func TestFetchCourtList_Errors(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.FetchCourtList(context.Background(), core.CourtListQuery{CourtCentreID: "centre-1"})
	require.Error(t, err, "date is required")

	_, err = c.FetchCourtList(context.Background(), core.CourtListQuery{CourtCentreID: "centre-1", Date: "2026-03-02"})
	require.Error(t, err)
	assert.True(t, httpclient.IsStatus(err, http.StatusNotFound))
}

func TestNew_RequiresClient(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
