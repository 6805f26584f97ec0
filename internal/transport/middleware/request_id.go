package middleware

import (
	"net"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestID returns middleware that reuses the incoming X-Request-Id or
// generates a UUID, stores it in the context and echoes it in the response.
// The caller's IP address (from RemoteAddr) is stored alongside it.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}

			ctx := ctxutil.WithRequestID(r.Context(), id)
			ctx = ctxutil.WithClientIP(ctx, remoteIP(r.RemoteAddr))

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
