package middleware

import (
	"net/http"
	"net/url"

	"github.com/daap14/retrospecs/internal/api/response"
)

// SameOrigin rejects state-changing requests whose Origin header names a
// different host. Sessions ride on cookies, so a foreign page must not be
// able to submit mutations. Requests without an Origin header pass.
func SameOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := url.Parse(origin)
		if err != nil || u.Host != r.Host {
			requestID := GetRequestID(r.Context())
			response.Err(w, http.StatusForbidden, "FORBIDDEN", "Cross-origin request rejected", requestID)
			return
		}

		next.ServeHTTP(w, r)
	})
}
