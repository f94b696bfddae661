package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/daap14/retrospecs/internal/api/middleware"
	"github.com/daap14/retrospecs/internal/api/response"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db      Pinger
	redis   Pinger
	version string
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// realtime feed is disabled.
func NewHealthHandler(db Pinger, redis Pinger, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		version: version,
	}
}

type dependencyStatus struct {
	Connected bool `json:"connected"`
}

type realtimeStatus struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

type healthData struct {
	Status   string           `json:"status"`
	Version  string           `json:"version"`
	Database dependencyStatus `json:"database"`
	Realtime realtimeStatus   `json:"realtime"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	data := healthData{Status: "healthy", Version: h.version}

	data.Database.Connected = h.db != nil && h.db.Ping(ctx) == nil
	if !data.Database.Connected {
		data.Status = "degraded"
	}

	if h.redis != nil {
		data.Realtime.Enabled = true
		data.Realtime.Connected = h.redis.Ping(ctx) == nil
		if !data.Realtime.Connected {
			data.Status = "degraded"
		}
	}

	response.Success(w, http.StatusOK, data, requestID)
}
