package config

import (
	"strings"
	"time"
)

// ServiceEndpoint configures one downstream HTTP collaborator.
// Token fields enable OAuth2 client credentials; leave TokenURL empty for unauthenticated calls.
type ServiceEndpoint struct {
	BaseURL      string        `env:"BASE_URL"`
	Timeout      time.Duration `env:"TIMEOUT"       envDefault:"10s"`
	MaxRetries   int           `env:"MAX_RETRIES"   envDefault:"3"`
	TokenURL     string        `env:"TOKEN_URL"`
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	Scopes       []string      `env:"SCOPES"        envSeparator:" "`
}

// Sanitize applies guardrails to endpoint values.
func (e *ServiceEndpoint) Sanitize() {
	e.BaseURL = strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	e.TokenURL = strings.TrimSpace(e.TokenURL)
	if e.Timeout <= 0 {
		e.Timeout = 10 * time.Second
	}
	if e.MaxRetries < 0 {
		e.MaxRetries = 0
	}
	if e.MaxRetries > 10 {
		e.MaxRetries = 10
	}
}

// UsesOAuth reports whether client credentials are configured.
func (e *ServiceEndpoint) UsesOAuth() bool {
	return e.TokenURL != "" && e.ClientID != ""
}

// DownstreamConfig holds the collaborators the publish pipeline calls.
type DownstreamConfig struct {
	Listing       ServiceEndpoint `envPrefix:"LISTING_"`
	ReferenceData ReferenceDataEndpoint
	DocGen        ServiceEndpoint `envPrefix:"DOCGEN_"`
	Hub           ServiceEndpoint `envPrefix:"HUB_"`
}

// ReferenceDataEndpoint adds the court centre selection expression to an endpoint.
type ReferenceDataEndpoint struct {
	Endpoint ServiceEndpoint `envPrefix:"REFDATA_"`

	// CourtCentreExpr is a JMESPath expression selecting the organisation unit from the response.
	CourtCentreExpr string `env:"REFDATA_COURT_CENTRE_EXPR" envDefault:"organisationunits[0]"`
}

// Sanitize applies guardrails to every endpoint.
func (d *DownstreamConfig) Sanitize() {
	d.Listing.Sanitize()
	d.ReferenceData.Endpoint.Sanitize()
	d.ReferenceData.CourtCentreExpr = strings.TrimSpace(d.ReferenceData.CourtCentreExpr)
	if d.ReferenceData.CourtCentreExpr == "" {
		d.ReferenceData.CourtCentreExpr = "organisationunits[0]"
	}
	d.DocGen.Sanitize()
	d.Hub.Sanitize()
}

// BlobStoreConfig configures the S3-compatible store that holds rendered PDFs.
type BlobStoreConfig struct {
	Endpoint  string        `env:"ENDPOINT"   envDefault:"localhost:9000"`
	AccessKey string        `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string        `env:"SECRET_KEY" envDefault:"minioadmin"`
	Bucket    string        `env:"BUCKET"     envDefault:"court-lists"`
	Region    string        `env:"REGION"     envDefault:""`
	UseSSL    bool          `env:"USE_SSL"    envDefault:"false"`
	URLExpiry time.Duration `env:"URL_EXPIRY" envDefault:"24h"`
}

// Sanitize applies guardrails to blob store values.
func (b *BlobStoreConfig) Sanitize() {
	b.Endpoint = strings.TrimSpace(b.Endpoint)
	b.Bucket = strings.TrimSpace(b.Bucket)
	if b.URLExpiry < time.Minute {
		b.URLExpiry = time.Minute
	}
	// Presigned URLs are capped at seven days by S3.
	if b.URLExpiry > 7*24*time.Hour {
		b.URLExpiry = 7 * 24 * time.Hour
	}
}
