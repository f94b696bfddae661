package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/daap14/retrospecs/internal/api/response"
)

// Recovery returns middleware that recovers from panics and returns a 500
// error. With exposeErrors the panic value and stack are sent in details.
func Recovery(exposeErrors bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					requestID := GetRequestID(r.Context())
					stack := string(debug.Stack())
					slog.Error("panic recovered", "error", err, "requestId", requestID, "stack", stack)

					if exposeErrors {
						response.ErrWithDetails(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred",
							ErrorDetails{Error: fmt.Sprint(err), Stack: stack}, requestID)
						return
					}
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// ErrorDetails is attached to 500 responses outside production.
type ErrorDetails struct {
	Error string `json:"error"`
	Stack string `json:"stack,omitempty"`
}
