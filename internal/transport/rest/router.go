package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/transport/middleware"
)

// Handlers groups the HTTP handler sets mounted by NewRouter.
type Handlers struct {
	Health *HealthHandler
	Unihan *UnihanHandler
}

// NewRouter builds the chi router with the global middleware chain.
// annotateLimit guards POST /unihan/annotate and may be nil.
func NewRouter(log *slog.Logger, cors config.CORSConfig, annotateLimit middleware.Middleware, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Chain(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cors),
	))

	r.Get("/live", h.Health.Live)
	r.Get("/ready", h.Health.Ready)
	r.Get("/health", h.Health.Health)

	r.Route("/unihan", func(u chi.Router) {
		u.Get("/characters/{char}", h.Unihan.Character)
		u.Get("/lookup", h.Unihan.Lookup)
		u.Method(http.MethodPost, "/annotate", middleware.Chain(annotateLimit)(http.HandlerFunc(h.Unihan.Annotate)))
	})

	return r
}
