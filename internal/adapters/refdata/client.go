// Package refdata resolves court centre details from the reference data service.
package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// DefaultCourtCentreExpr selects the first organisation unit from the response envelope.
const DefaultCourtCentreExpr = "organisationunits[0]"

// ErrCourtCentreNotFound is returned when the expression selects nothing.
var ErrCourtCentreNotFound = errors.New("court centre not found in reference data")

// Options groups dependencies for Client.
type Options struct {
	HTTP            *httpclient.Client // Required
	CourtCentreExpr string             // Optional: JMESPath applied to the response
	Logger          *slog.Logger       // Optional
}

// Client implements core.ReferenceDataClient.
type Client struct {
	http   *httpclient.Client
	expr   string
	logger *slog.Logger
}

var _ core.ReferenceDataClient = (*Client)(nil)

// New constructs a Client. The expression is compiled up front so a bad config fails at startup.
func New(opts Options) (*Client, error) {
	if opts.HTTP == nil {
		return nil, errors.New("http client is required")
	}
	expr := strings.TrimSpace(opts.CourtCentreExpr)
	if expr == "" {
		expr = DefaultCourtCentreExpr
	}
	if _, err := jmespath.Compile(expr); err != nil {
		return nil, fmt.Errorf("invalid court centre expression %q: %w", expr, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: opts.HTTP, expr: expr, logger: logger.With("component", "refdata_client")}, nil
}

// CourtCentre fetches the court centre with the given id.
func (c *Client) CourtCentre(ctx context.Context, courtCentreID string) (*model.CourtCentre, error) {
	id := strings.TrimSpace(courtCentreID)
	if id == "" {
		return nil, errors.New("court centre id is required")
	}

	var envelope any
	if err := c.http.GetJSON(ctx, "courtrooms/"+url.PathEscape(id), nil, &envelope); err != nil {
		return nil, fmt.Errorf("lookup court centre %s: %w", id, err)
	}

	selected, err := jmespath.Search(c.expr, envelope)
	if err != nil {
		return nil, fmt.Errorf("evaluate court centre expression: %w", err)
	}
	if selected == nil {
		return nil, fmt.Errorf("%w: %s", ErrCourtCentreNotFound, id)
	}

	raw, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("re-encode court centre: %w", err)
	}
	var centre model.CourtCentre
	if err := json.Unmarshal(raw, &centre); err != nil {
		return nil, fmt.Errorf("decode court centre: %w", err)
	}
	if centre.ID == "" {
		centre.ID = id
	}
	c.logger.DebugContext(ctx, "court centre resolved", "court_centre_id", id, "name", centre.Name)
	return &centre, nil
}
