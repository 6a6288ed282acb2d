// Package listing fetches court list payloads from the listing service.
package listing

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

const courtListPath = "courtlist"

// Client implements core.ListingClient over HTTP.
type Client struct {
	http *httpclient.Client
}

var _ core.ListingClient = (*Client)(nil)

// New constructs a Client.
func New(hc *httpclient.Client) (*Client, error) {
	if hc == nil {
		return nil, errors.New("http client is required")
	}
	return &Client{http: hc}, nil
}

// FetchCourtList returns the listing for one centre, list type and date.
func (c *Client) FetchCourtList(ctx context.Context, q core.CourtListQuery) (*model.CourtListPayload, error) {
	centre := strings.TrimSpace(q.CourtCentreID)
	date := strings.TrimSpace(q.Date)
	if centre == "" || date == "" {
		return nil, errors.New("court centre and date are required")
	}

	query := url.Values{
		"courtCentreId": {centre},
		"listId":        {q.ListType.String()},
		"startDate":     {date},
		"endDate":       {date},
	}
	var payload model.CourtListPayload
	if err := c.http.GetJSON(ctx, courtListPath, query, &payload); err != nil {
		return nil, fmt.Errorf("fetch court list for %s on %s: %w", centre, date, err)
	}
	if payload.CourtCentreID == "" {
		payload.CourtCentreID = centre
	}
	// A day with no sittings comes back without a list date.
	if payload.ListDate == "" {
		payload.ListDate = date
	}
	return &payload, nil
}
