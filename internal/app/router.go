package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	authzhttp "github.com/assetflow/assetflow/internal/authz/http"
	"github.com/assetflow/assetflow/internal/observability"
	"github.com/assetflow/assetflow/internal/pipeline"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Pipeline           *pipeline.Pipeline
	PermissionsHandler *authzhttp.PermissionsHandler
	Metrics            *observability.Metrics

	// Routes are the protected endpoints supplied by the embedding service.
	Routes []pipeline.Route
}

// NewRouter constructs the chi.Router with the standard stack.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.PermissionsHandler != nil {
		r.Route("/api/permissions", func(r chi.Router) {
			r.Use(params.Pipeline.Base()...)
			params.PermissionsHandler.MountRoutes(r)
		})
	}

	params.Pipeline.Mount(r, params.Routes)

	return r
}
