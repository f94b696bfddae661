package loader

import (
	"net/http"

	"github.com/daap14/retrospecs/internal/auth"
	"github.com/daap14/retrospecs/internal/backend"
	"github.com/daap14/retrospecs/internal/query"
)

// RequestContext is what middleware units enrich and loaders read. Units
// copy it and hand the copy to the next step.
type RequestContext struct {
	Request *http.Request
	Writer  http.ResponseWriter
	Params  map[string]string

	Backend *backend.Client
	User    *auth.User
	Query   *query.Client
}

// Param returns a route param by name.
func (rc *RequestContext) Param(name string) string {
	return rc.Params[name]
}
