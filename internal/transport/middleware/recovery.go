package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// Recovery returns middleware that recovers from panics, logs the value
// with a stack trace and answers 500 with a JSON error body carrying the
// request ID. http.ErrAbortHandler is re-raised so net/http can abort the
// connection quietly.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := ctxutil.RequestIDFromCtx(r.Context())
				logger.ErrorContext(r.Context(), "panic recovered",
					slog.Any("error", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", requestID),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{ //nolint:errcheck
					"error":      "internal server error",
					"request_id": requestID,
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
