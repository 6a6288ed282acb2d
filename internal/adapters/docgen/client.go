// Package docgen renders court list documents to PDF through the document generator service.
package docgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/core"
)

const (
	renderPath     = "render"
	pdfContentType = "application/pdf"
)

type renderBody struct {
	TemplateName string          `json:"templateName"`
	Data         json.RawMessage `json:"data"`
}

// Client implements core.DocumentRenderer.
type Client struct {
	http *httpclient.Client
}

var _ core.DocumentRenderer = (*Client)(nil)

// New constructs a Client.
func New(hc *httpclient.Client) (*Client, error) {
	if hc == nil {
		return nil, errors.New("http client is required")
	}
	return &Client{http: hc}, nil
}

// Render returns the PDF bytes for req.
func (c *Client) Render(ctx context.Context, req core.RenderRequest) ([]byte, error) {
	if strings.TrimSpace(req.TemplateName) == "" {
		return nil, errors.New("template name is required")
	}
	if !json.Valid(req.Data) {
		return nil, errors.New("render data must be valid JSON")
	}
	body, err := json.Marshal(renderBody{TemplateName: req.TemplateName, Data: req.Data})
	if err != nil {
		return nil, fmt.Errorf("encode render request: %w", err)
	}

	resp, err := c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   renderPath,
		Header: http.Header{
			"Content-Type": {"application/json"},
			"Accept":       {pdfContentType},
		},
		Body: body,
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", req.TemplateName, err)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != pdfContentType {
			return nil, fmt.Errorf("render %s: unexpected content type %q", req.TemplateName, ct)
		}
	}
	return resp.Body, nil
}
