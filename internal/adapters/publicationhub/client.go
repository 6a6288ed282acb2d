// Package publicationhub posts validated court list documents to the publication hub.
package publicationhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Header names understood by the hub.
const (
	HeaderProvenance     = "x-provenance"
	HeaderType           = "x-type"
	HeaderListType       = "x-list-type"
	HeaderCourtID        = "x-court-id"
	HeaderContentDate    = "x-content-date"
	HeaderSensitivity    = "x-sensitivity"
	HeaderLanguage       = "x-language"
	HeaderDisplayFrom    = "x-display-from"
	HeaderDisplayTo      = "x-display-to"
	HeaderSourceArtefact = "x-source-artefact-id"
)

const (
	// DefaultProvenance identifies this system to the hub.
	DefaultProvenance = "COMMON_PLATFORM"

	publicationPath = "publication"
	hubTimeLayout   = "2006-01-02T15:04:05Z"
)

var hubListTypes = map[model.CourtListType]string{
	model.CourtListTypeStandard:     "MAGISTRATES_STANDARD_LIST",
	model.CourtListTypePublic:       "MAGISTRATES_PUBLIC_LIST",
	model.CourtListTypeOnlinePublic: "MAGISTRATES_PUBLIC_ADULT_COURT_LIST_DAILY",
}

// Options groups dependencies for Client.
type Options struct {
	HTTP       *httpclient.Client // Required
	Provenance string             // Optional: defaults to DefaultProvenance
	Logger     *slog.Logger       // Optional
}

// Client implements core.PublicationClient.
type Client struct {
	http       *httpclient.Client
	provenance string
	logger     *slog.Logger
}

var _ core.PublicationClient = (*Client)(nil)

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.HTTP == nil {
		return nil, errors.New("http client is required")
	}
	provenance := strings.TrimSpace(opts.Provenance)
	if provenance == "" {
		provenance = DefaultProvenance
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: opts.HTTP, provenance: provenance, logger: logger.With("component", "publication_hub")}, nil
}

// Publish sends pub. Any non-2xx response is an error.
func (c *Client) Publish(ctx context.Context, pub core.Publication) error {
	header, err := c.Headers(pub)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   publicationPath,
		Header: header,
		Body:   pub.Body,
	})
	if err != nil {
		return fmt.Errorf("publish court list %s: %w", pub.CourtListID, err)
	}
	c.logger.InfoContext(ctx, "court list published to hub",
		"court_list_id", pub.CourtListID, "list_type", header.Get(HeaderListType), "status", resp.StatusCode)
	return nil
}

// Headers builds the hub metadata headers for pub. The display window is the content date.
func (c *Client) Headers(pub core.Publication) (http.Header, error) {
	listType, ok := hubListTypes[pub.CourtListType]
	if !ok {
		return nil, fmt.Errorf("no hub list type for %q", pub.CourtListType)
	}
	day, err := time.Parse(time.DateOnly, pub.ContentDate)
	if err != nil {
		return nil, fmt.Errorf("invalid content date %q: %w", pub.ContentDate, err)
	}

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set(HeaderProvenance, c.provenance)
	h.Set(HeaderType, "LIST")
	h.Set(HeaderListType, listType)
	h.Set(HeaderCourtID, pub.CourtCentreID)
	h.Set(HeaderContentDate, day.UTC().Format(hubTimeLayout))
	h.Set(HeaderSensitivity, sensitivity(pub.CourtListType))
	h.Set(HeaderLanguage, "ENGLISH")
	h.Set(HeaderDisplayFrom, day.UTC().Format(hubTimeLayout))
	h.Set(HeaderDisplayTo, day.Add(24*time.Hour-time.Second).UTC().Format(hubTimeLayout))
	if pub.CourtListID != "" {
		h.Set(HeaderSourceArtefact, pub.CourtListID)
	}
	return h, nil
}

func sensitivity(t model.CourtListType) string {
	if t == model.CourtListTypeStandard {
		return "CLASSIFIED"
	}
	return "PUBLIC"
}
