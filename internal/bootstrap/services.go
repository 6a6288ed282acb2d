package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/courtlist-publisher/config"
	"github.com/target/courtlist-publisher/internal/adapters/amqpexec"
	"github.com/target/courtlist-publisher/internal/adapters/blobstore"
	"github.com/target/courtlist-publisher/internal/adapters/docgen"
	"github.com/target/courtlist-publisher/internal/adapters/httpclient"
	"github.com/target/courtlist-publisher/internal/adapters/listing"
	"github.com/target/courtlist-publisher/internal/adapters/publicationhub"
	"github.com/target/courtlist-publisher/internal/adapters/refdata"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/data"
	httpx "github.com/target/courtlist-publisher/internal/http"
	"github.com/target/courtlist-publisher/internal/observability/statsd"
	"github.com/target/courtlist-publisher/internal/observability/tracing"
	"github.com/target/courtlist-publisher/internal/pipeline"
	"github.com/target/courtlist-publisher/internal/schema"
	"github.com/target/courtlist-publisher/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Jobs          *service.JobService // nil unless the postgres executor is selected
	Status        *service.PublishStatusService
	Trigger       *service.TaskTrigger
	Pipeline      *pipeline.Pipeline // nil unless the publish runner is enabled
	Blobs         *blobstore.Store
	Broker        *amqpexec.Broker // nil unless the amqp executor is selected
	HealthChecks  []httpx.HealthCheck
	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink     *statsd.Client
	MetricsConfig   config.ObservabilityMetricsConfig
	ShutdownTracing tracing.ShutdownFunc
}

// Sink returns the metrics sink, or nil when metrics are disabled.
//
//nolint:ireturn // callers accept the Sink interface and test for nil.
func (o ObservabilityContainer) Sink() statsd.Sink {
	if o.MetricsSink == nil {
		return nil
	}
	return o.MetricsSink
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// serviceRepositories groups data adapters backing service ports.
type serviceRepositories struct {
	DB         *sql.DB
	JobRepo    *data.JobRepo
	StatusRepo *data.PublishStatusRepo
	CacheRepo  *data.RedisCacheRepo // nil without redis
}

// buildObservability configures metrics and tracing adapters.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	obsLogger := logger
	if obsLogger == nil {
		obsLogger = slog.Default()
	}

	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  cfg.Metrics.Prefix,
			Logger:  obsLogger,
		})
		if err != nil {
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	shutdownTracing, err := tracing.Setup(cfg.Tracing, obsLogger)
	if err != nil {
		obsLogger.Error("failed to initialise tracing; spans will not be exported", "error", err)
		shutdownTracing = nil
	}

	return ObservabilityContainer{
		MetricsSink:     metricsSink,
		MetricsConfig:   cfg.Metrics,
		ShutdownTracing: shutdownTracing,
	}
}

// buildRepositories builds repositories backing service ports; no business rules here.
func buildRepositories(db *sql.DB, redisClient redis.UniversalClient, logger *slog.Logger) *serviceRepositories {
	repos := &serviceRepositories{
		DB:         db,
		JobRepo:    data.NewJobRepo(db, data.RepoConfig{Logger: logger}),
		StatusRepo: data.NewPublishStatusRepo(db),
	}
	if redisClient != nil {
		repos.CacheRepo = data.NewRedisCacheRepo(redisClient)
	}
	return repos
}

func newPublishStatusService(
	repos *serviceRepositories,
	cfg config.CacheConfig,
	logger *slog.Logger,
) *service.PublishStatusService {
	opts := service.PublishStatusServiceOptions{
		Repo:     repos.StatusRepo,
		CacheTTL: cfg.StatusTTL,
		Logger:   logger,
	}
	if repos.CacheRepo != nil {
		opts.Cache = repos.CacheRepo
	}
	return service.MustNewPublishStatusService(opts)
}

// executorBundle is the submit side of the selected executor backend.
type executorBundle struct {
	jobs      *service.JobService
	broker    *amqpexec.Broker
	submitter core.JobSubmitter
}

func newExecutor(
	ctx context.Context,
	repos *serviceRepositories,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (executorBundle, error) {
	switch cfg.Executor.Backend {
	case config.ExecutorAMQP:
		broker, err := amqpexec.Dial(ctx, amqpexec.BrokerOptions{
			URL: cfg.Executor.AMQPURL,
			Topology: amqpexec.Topology{
				Exchange: cfg.Executor.AMQPExchange,
				Queue:    cfg.Executor.AMQPQueue,
			},
			Logger: logger,
		})
		if err != nil {
			return executorBundle{}, err
		}
		ch, err := broker.Channel()
		if err != nil {
			return executorBundle{}, errors.Join(err, broker.Close())
		}
		submitter, err := amqpexec.NewSubmitter(ch, broker.Topology())
		if err != nil {
			return executorBundle{}, errors.Join(err, broker.Close())
		}
		return executorBundle{broker: broker, submitter: submitter}, nil
	default:
		jobs := service.MustNewJobService(service.JobServiceOptions{
			Repo:         repos.JobRepo,
			DefaultLease: cfg.PublishRunner.JobLease,
			Logger:       logger,
		})
		return executorBundle{
			jobs:      jobs,
			submitter: service.NewQueueSubmitter(jobs, cfg.PublishRunner.MaxRetries),
		}, nil
	}
}

// downstreamClients groups the HTTP collaborators the pipeline calls.
type downstreamClients struct {
	listing  *listing.Client
	refData  *refdata.Client // nil when no reference data endpoint is configured
	renderer *docgen.Client
	hub      *publicationhub.Client
}

func newDownstreamClients(cfg config.DownstreamConfig, logger *slog.Logger) (downstreamClients, error) {
	newHTTP := func(name string, ep config.ServiceEndpoint) (*httpclient.Client, error) {
		return httpclient.New(httpclient.Options{Name: name, Endpoint: ep, Logger: logger})
	}

	var out downstreamClients

	hc, err := newHTTP("listing", cfg.Listing)
	if err != nil {
		return out, err
	}
	if out.listing, err = listing.New(hc); err != nil {
		return out, err
	}

	if hc, err = newHTTP("docgen", cfg.DocGen); err != nil {
		return out, err
	}
	if out.renderer, err = docgen.New(hc); err != nil {
		return out, err
	}

	if hc, err = newHTTP("publication-hub", cfg.Hub); err != nil {
		return out, err
	}
	if out.hub, err = publicationhub.New(publicationhub.Options{HTTP: hc, Logger: logger}); err != nil {
		return out, err
	}

	if cfg.ReferenceData.Endpoint.BaseURL == "" {
		logger.Warn("reference data endpoint not configured; venue addresses will not be enriched")
		return out, nil
	}
	if hc, err = newHTTP("reference-data", cfg.ReferenceData.Endpoint); err != nil {
		return out, err
	}
	out.refData, err = refdata.New(refdata.Options{
		HTTP:            hc,
		CourtCentreExpr: cfg.ReferenceData.CourtCentreExpr,
		Logger:          logger,
	})
	return out, err
}

// PipelineDeps groups dependencies for the publish pipeline.
type PipelineDeps struct {
	Config  *config.AppConfig
	Status  *service.PublishStatusService
	Blobs   *blobstore.Store
	Metrics statsd.Sink
	Logger  *slog.Logger
}

func newPipeline(deps PipelineDeps) (*pipeline.Pipeline, error) {
	clients, err := newDownstreamClients(deps.Config.Downstream, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("build downstream clients: %w", err)
	}

	opts := pipeline.Options{
		Listing:   clients.listing,
		Hub:       clients.hub,
		Renderer:  clients.renderer,
		Blobs:     deps.Blobs,
		Status:    deps.Status,
		Validator: schema.New(),
		Config:    deps.Config.Pipeline,
		Metrics:   deps.Metrics,
		Logger:    deps.Logger,
	}
	if clients.refData != nil {
		opts.RefData = clients.refData
	}
	return pipeline.New(opts)
}

func newHealthChecks(
	repos *serviceRepositories,
	blobs *blobstore.Store,
	redisClient redis.UniversalClient,
) []httpx.HealthCheck {
	checks := []httpx.HealthCheck{
		{Name: "postgres", Check: repos.DB.PingContext},
		{Name: "blob_store", Check: blobs.Health},
	}
	if repos.CacheRepo != nil && redisClient != nil {
		checks = append(checks, httpx.HealthCheck{Name: "redis", Check: repos.CacheRepo.Health})
	}
	return checks
}

// NewServices wires every service the enabled modes need. The blob bucket is created when
// missing and the amqp topology is declared when that executor is selected.
func NewServices(ctx context.Context, deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service config is required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database connection is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)
	repos := buildRepositories(deps.DB, deps.RedisClient, logger)
	status := newPublishStatusService(repos, cfg.Cache, logger)

	blobs, err := blobstore.New(blobstore.Options{Config: cfg.BlobStore, Logger: logger})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create blob store: %w", err)
	}
	if err = blobs.EnsureBucket(ctx); err != nil {
		return ServiceContainer{}, err
	}

	executor, err := newExecutor(ctx, repos, cfg, logger)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("create %s executor: %w", cfg.Executor.Backend, err)
	}

	trigger, err := service.NewTaskTrigger(service.TaskTriggerOptions{
		Submitter:            executor.submitter,
		DefaultExternalCalls: cfg.Pipeline.DefaultExternalCalls,
		Logger:               logger,
	})
	if err != nil {
		return ServiceContainer{}, errors.Join(fmt.Errorf("create task trigger: %w", err), executor.broker.Close())
	}

	container := ServiceContainer{
		Jobs:          executor.jobs,
		Status:        status,
		Trigger:       trigger,
		Blobs:         blobs,
		Broker:        executor.broker,
		HealthChecks:  newHealthChecks(repos, blobs, deps.RedisClient),
		Observability: observability,
	}

	if cfg.IsPublishRunnerEnabled() {
		container.Pipeline, err = newPipeline(PipelineDeps{
			Config:  cfg,
			Status:  status,
			Blobs:   blobs,
			Metrics: observability.Sink(),
			Logger:  logger,
		})
		if err != nil {
			return ServiceContainer{}, errors.Join(fmt.Errorf("create publish pipeline: %w", err), container.Close(ctx))
		}
	}

	return container, nil
}

// Close releases the broker connection, flushes spans and closes the metrics client.
func (c ServiceContainer) Close(ctx context.Context) error {
	var errs []error
	if c.Broker != nil {
		errs = append(errs, c.Broker.Close())
	}
	if c.Observability.ShutdownTracing != nil {
		errs = append(errs, c.Observability.ShutdownTracing(ctx))
	}
	if c.Observability.MetricsSink != nil {
		errs = append(errs, c.Observability.MetricsSink.Close())
	}
	return errors.Join(errs...)
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// serviceStartupDeps groups dependencies for service startup.
type serviceStartupDeps struct {
	ctx             context.Context
	cfg             *ServiceOrchestrationConfig
	logger          *slog.Logger
	enabledServices map[config.ServiceMode]bool
	errCh           chan error
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

// backgroundServiceHandle tracks a running background service.
type backgroundServiceHandle struct {
	mode config.ServiceMode
	name string
	done <-chan struct{}
}

// startHTTPServerIfEnabled starts the HTTP server if enabled.
func startHTTPServerIfEnabled(deps *serviceStartupDeps) *http.Server {
	if deps == nil || deps.cfg == nil || !deps.enabledServices[config.ServiceModeHTTP] {
		return nil
	}
	return StartHTTPServer(&HTTPServerConfig{
		Config:   deps.cfg.Config,
		Services: deps.cfg.Services,
		Logger:   deps.logger,
	})
}

func launchBackground(ctx context.Context, deps *serviceStartupDeps, descriptor backgroundService) <-chan struct{} {
	if deps == nil || !deps.enabledServices[descriptor.mode] {
		return nil
	}
	logger := deps.logger
	if logger == nil {
		logger = slog.Default()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := descriptor.start(ctx); err != nil {
			errMsg := fmt.Errorf("%s failed: %w", descriptor.name, err)
			select {
			case deps.errCh <- errMsg:
			case <-ctx.Done():
			default:
				logger.WarnContext(ctx, "dropping background service error", "service", descriptor.name, "error", errMsg)
			}
		}
	}()

	logger.InfoContext(ctx, "background service started", "service", descriptor.name, "mode", descriptor.mode)
	return done
}

func startBackgroundServices(deps *serviceStartupDeps, services []backgroundService) []backgroundServiceHandle {
	if deps == nil {
		return nil
	}
	handles := make([]backgroundServiceHandle, 0, len(services))

	for _, svc := range services {
		done := launchBackground(deps.ctx, deps, svc)
		if done == nil {
			continue
		}

		handles = append(handles, backgroundServiceHandle{
			mode: svc.mode,
			name: svc.name,
			done: done,
		})
	}

	return handles
}

func newPublishRunnerBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModePublishRunner,
		name: "publish runner",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil || deps.cfg.Config == nil {
				return nil
			}
			appCfg := deps.cfg.Config
			svcs := deps.cfg.Services
			return RunPublishRunner(ctx, PublishRunnerConfig{
				Backend:     appCfg.Executor.Backend,
				Jobs:        svcs.Jobs,
				Broker:      svcs.Broker,
				Pipeline:    svcs.Pipeline,
				Lease:       appCfg.PublishRunner.JobLease,
				Concurrency: appCfg.PublishRunner.Concurrency,
				Logger:      deps.logger,
				Metrics:     svcs.Observability.Sink(),
			})
		},
	}
}

func newReaperBackgroundService(deps *serviceStartupDeps) backgroundService {
	return backgroundService{
		mode: config.ServiceModeReaper,
		name: "reaper",
		start: func(ctx context.Context) error {
			if deps == nil || deps.cfg == nil {
				return nil
			}
			var reaperCfg config.ReaperConfig
			if deps.cfg.Config != nil {
				reaperCfg = deps.cfg.Config.Reaper
			}
			return RunReaper(ctx, ReaperConfig{
				DB:      deps.cfg.DB,
				Logger:  deps.logger,
				Config:  reaperCfg,
				Metrics: deps.cfg.Services.Observability.Sink(),
			})
		},
	}
}

func buildBackgroundServices(deps *serviceStartupDeps) []backgroundService {
	if deps == nil {
		return nil
	}
	return []backgroundService{
		newPublishRunnerBackgroundService(deps),
		newReaperBackgroundService(deps),
	}
}

// ServiceStartupResult holds the results of starting all services.
type ServiceStartupResult struct {
	HTTPServer *http.Server
	Background []backgroundServiceHandle
}

// startServices starts all enabled services and returns their completion channels.
func startServices(deps *serviceStartupDeps) ServiceStartupResult {
	return ServiceStartupResult{
		HTTPServer: startHTTPServerIfEnabled(deps),
		Background: startBackgroundServices(deps, buildBackgroundServices(deps)),
	}
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	serviceCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	// Determine which services are enabled
	enabledServices, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}
	errCh := make(chan error, errorChannelBufferSize(enabledServices))

	// Start all enabled services
	result := startServices(&serviceStartupDeps{
		ctx:             serviceCtx,
		cfg:             cfg,
		logger:          logger,
		enabledServices: enabledServices,
		errCh:           errCh,
	})

	// Wait for shutdown signal or error
	return waitForShutdown(shutdownConfig{
		ctx:         serviceCtx,
		cancel:      cancel,
		errCh:       errCh,
		httpServer:  result.HTTPServer,
		jobService:  cfg.Services.Jobs,
		logger:      logger,
		backgrounds: result.Background,
	})
}

// errorChannelCapacity counts the enabled services that can report a fatal error.
func errorChannelCapacity(enabled map[config.ServiceMode]bool) int {
	count := 0
	for _, mode := range config.ValidServiceModes() {
		if enabled[mode] {
			count++
		}
	}
	return count
}

func errorChannelBufferSize(enabled map[config.ServiceMode]bool) int {
	return errorChannelCapacity(enabled) + 1
}

// shutdownConfig contains dependencies for graceful shutdown.
type shutdownConfig struct {
	ctx         context.Context
	cancel      context.CancelFunc
	errCh       <-chan error
	httpServer  *http.Server
	jobService  *service.JobService
	logger      *slog.Logger
	backgrounds []backgroundServiceHandle
}

// waitForShutdown waits for shutdown signal or service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel() // Cancel service context before waiting
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel() // Cancel service context before waiting
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop attempts to gracefully stop all services. The service context is already
// cancelled here, so the HTTP drain gets its own deadline.
func gracefulStop(cfg shutdownConfig) error {
	if cfg.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWaitTimeout)
		defer cancel()

		if err := ShutdownHTTPServer(ShutdownConfig{
			Context:    shutdownCtx,
			Server:     cfg.httpServer,
			JobService: cfg.jobService,
			Logger:     cfg.logger,
		}); err != nil {
			return err
		}
	} else if cfg.jobService != nil {
		cfg.jobService.StopAllListeners()
	}

	// Wait for background services to finish
	for _, svc := range cfg.backgrounds {
		waitForService(svc.done, svc.name, cfg.logger)
	}

	return nil
}

// waitForService waits for a service to finish with timeout.
func waitForService(done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info(name + " stopped")
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for " + name + " to stop")
	}
}
