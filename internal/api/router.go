package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/daap14/retrospecs/internal/api/handler"
	"github.com/daap14/retrospecs/internal/api/middleware"
	"github.com/daap14/retrospecs/internal/api/response"
	"github.com/daap14/retrospecs/internal/metrics"
	"github.com/daap14/retrospecs/internal/routes"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	DBPinger    handler.Pinger
	RedisPinger handler.Pinger
	Version     string
	Environment string
	Routes      *routes.Set
	Metrics     *metrics.Metrics
	OpenAPISpec []byte
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	exposeErrors := deps.Environment != "production"

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(exposeErrors))
	r.Use(chimiddleware.Logger)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusNotFound, "ROUTE_NOT_FOUND", "No route matches "+r.URL.Path, middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Err(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method "+r.Method+" is not allowed here", middleware.GetRequestID(r.Context()))
	})

	healthHandler := handler.NewHealthHandler(deps.DBPinger, deps.RedisPinger, deps.Version)
	r.Get("/health", healthHandler.ServeHTTP)

	if len(deps.OpenAPISpec) > 0 {
		openapiHandler, err := handler.NewOpenAPIHandler(deps.OpenAPISpec)
		if err != nil {
			slog.Error("OpenAPI document disabled", "error", err)
		} else {
			r.Get("/openapi.json", openapiHandler.ServeHTTP)
		}
	}

	var observer handler.OutcomeObserver
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
		observer = deps.Metrics
	}

	if deps.Routes != nil {
		r.Group(func(r chi.Router) {
			r.Use(middleware.SameOrigin)
			for _, rt := range deps.Routes.Pages() {
				r.Method(rt.Method, rt.Pattern, handler.NewLoaderHandler(rt, observer, exposeErrors))
			}
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.SameOrigin)
			for _, rt := range deps.Routes.Mutations() {
				r.Method(rt.Method, rt.Pattern, handler.NewLoaderHandler(rt, observer, exposeErrors))
			}
		})
	}

	return r
}
