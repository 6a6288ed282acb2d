package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Status       StatusService  // Required
	Trigger      JobTrigger     // Required
	Files        FileDownloader // Required
	HealthChecks []HealthCheck
	MaxBodyBytes int64
	Logger       *slog.Logger
}

// NewRouter registers the API routes and wraps them in Recover, Logging and LimitBody,
// outermost first.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	publish := &PublishHandlers{Status: services.Status, Trigger: services.Trigger, Logger: logger}
	files := &FileHandlers{Status: services.Status, Files: services.Files, Logger: logger}
	health := healthHandler(services.HealthChecks)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /publish", publish.Publish)
	mux.HandleFunc("GET /publish-status", publish.FindStatus)
	mux.HandleFunc("GET /publish-status/{courtListId}", publish.GetStatus)
	mux.HandleFunc("GET /files/download/{courtListId}", files.Download)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	var handler http.Handler = mux
	handler = LimitBody(services.MaxBodyBytes)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
