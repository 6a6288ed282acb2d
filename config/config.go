// Package config holds the environment-driven configuration of the court list publisher.
package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - database.go: Postgres, Redis and status cache configuration
//   - http.go: HTTP server configuration
//   - services.go: Service mode, executor, runner, reaper and pipeline configuration
//   - downstream.go: Downstream collaborators and blob storage
//   - observability.go: Metrics and tracing
type AppConfig struct {
	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`
	Cache    CacheConfig

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http,publish-runner,reaper"`

	// Executor selects how publish jobs are handed off.
	Executor ExecutorConfig

	// Publish runner configuration
	PublishRunner PublishRunnerConfig

	// Reaper configuration
	Reaper ReaperConfig

	// Pipeline configuration
	Pipeline PipelineConfig

	// Downstream collaborators
	Downstream DownstreamConfig

	// Blob storage for rendered files
	BlobStore BlobStoreConfig `envPrefix:"BLOB_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Cache.Sanitize()
	c.Executor.Sanitize()
	c.PublishRunner.Sanitize()
	c.Reaper.Sanitize()
	c.Pipeline.Sanitize()
	c.Downstream.Sanitize()
	c.BlobStore.Sanitize()
	c.Observability.Sanitize()
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	return c.serviceEnabled(ServiceModeHTTP)
}

// IsPublishRunnerEnabled returns true if the publish job runner is enabled.
func (c *AppConfig) IsPublishRunnerEnabled() bool {
	return c.serviceEnabled(ServiceModePublishRunner)
}

// IsReaperEnabled returns true if the reaper service is enabled.
func (c *AppConfig) IsReaperEnabled() bool {
	return c.serviceEnabled(ServiceModeReaper)
}

func (c *AppConfig) serviceEnabled(mode ServiceMode) bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[mode]
}
