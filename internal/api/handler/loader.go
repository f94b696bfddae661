package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5"

	"github.com/daap14/retrospecs/internal/api/middleware"
	"github.com/daap14/retrospecs/internal/api/response"
	"github.com/daap14/retrospecs/internal/loader"
	"github.com/daap14/retrospecs/internal/org"
	"github.com/daap14/retrospecs/internal/routes"
	"github.com/daap14/retrospecs/internal/sprint"
	"github.com/daap14/retrospecs/internal/team"
)

// OutcomeObserver is notified of every loader result.
type OutcomeObserver interface {
	ObserveOutcome(route, outcome string)
}

// LoaderHandler serves one route by running its pipeline and loader and
// translating the outcome to HTTP.
type LoaderHandler struct {
	route        routes.Route
	observer     OutcomeObserver
	exposeErrors bool
}

// NewLoaderHandler creates a LoaderHandler. observer may be nil.
func NewLoaderHandler(route routes.Route, observer OutcomeObserver, exposeErrors bool) *LoaderHandler {
	return &LoaderHandler{route: route, observer: observer, exposeErrors: exposeErrors}
}

// ServeHTTP runs the route pipeline and loader and writes the outcome.
func (h *LoaderHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	rc := &loader.RequestContext{
		Request: r,
		Writer:  w,
		Params:  urlParams(r),
	}
	out, err := loader.Run(r.Context(), h.route.Pipeline, rc, h.route.Load)
	if err != nil {
		h.observe("error")
		h.writeError(w, err, requestID)
		return
	}
	h.observe(out.Kind.String())

	switch out.Kind {
	case loader.KindRedirect:
		response.Redirect(w, out.Target, requestID)
	case loader.KindInvalid:
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", out.Details, requestID)
	default:
		switch {
		case r.Method == http.MethodDelete && out.Data == nil:
			response.NoContent(w)
		case r.Method == http.MethodPost && out.Data != nil:
			response.Success(w, http.StatusCreated, out.Data, requestID)
		default:
			response.Success(w, http.StatusOK, out.Data, requestID)
		}
	}
}

func (h *LoaderHandler) observe(outcome string) {
	if h.observer != nil {
		h.observer.ObserveOutcome(h.route.Name, outcome)
	}
}

var notFoundErrors = []error{org.ErrOrgNotFound, team.ErrTeamNotFound, sprint.ErrSprintNotFound}

func (h *LoaderHandler) writeError(w http.ResponseWriter, err error, requestID string) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", capitalize(target.Error()), requestID)
			return
		}
	}
	if errors.Is(err, loader.ErrForbidden) {
		response.Err(w, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions", requestID)
		return
	}

	slog.Error("loader failed", "route", h.route.Name, "error", err, "requestId", requestID)
	if h.exposeErrors {
		response.ErrWithDetails(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred",
			middleware.ErrorDetails{Error: err.Error(), Stack: string(debug.Stack())}, requestID)
		return
	}
	response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
}

func urlParams(r *http.Request) map[string]string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return nil
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, key := range rctx.URLParams.Keys {
		params[key] = rctx.URLParams.Values[i]
	}
	return params
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
