package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/hanzi-backend/internal/adapter/cache"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres"
	"github.com/heartmarshall/hanzi-backend/internal/adapter/postgres/unihan"
	"github.com/heartmarshall/hanzi-backend/internal/config"
	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/internal/service/annotate"
	"github.com/heartmarshall/hanzi-backend/internal/transport/middleware"
	"github.com/heartmarshall/hanzi-backend/internal/transport/rest"
)

const rateLimitCleanupInterval = 5 * time.Minute

// Run is the application entry point. It loads configuration, connects to
// PostgreSQL and the optional redis cache, and serves the HTTP API until
// ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := unihan.New(pool, postgres.NewTxManager(pool))
	health := rest.NewHealthHandler(pool, BuildVersion())

	store, closeCache, err := characterSource(ctx, logger, cfg.Cache, repo, health)
	if err != nil {
		return err
	}
	defer closeCache()

	svc := annotate.NewService(logger, store)

	limiter := middleware.NewRateLimiter(rateLimitCleanupInterval)
	defer limiter.Stop()

	router := rest.NewRouter(logger, cfg.CORS, limiter.Limit(cfg.Annotate.RateLimitPerMinute), rest.Handlers{
		Health: health,
		Unihan: rest.NewUnihanHandler(svc, cfg.Annotate, logger),
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	return serve(ctx, logger, srv, cfg.Server.ShutdownTimeout)
}

type characterStore interface {
	GetCharacterByCodepoint(ctx context.Context, cp rune) (*domain.Character, error)
}

// characterSource puts the redis cache in front of db when one is
// configured and registers it as an optional health component. Redis
// being down at startup does not fail: the cache falls through to db and
// /health reports degraded. The returned close func is never nil.
func characterSource(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.CacheConfig,
	db characterStore,
	health *rest.HealthHandler,
) (characterStore, func(), error) {
	if !cfg.Enabled() {
		logger.Info("redis cache disabled")
		return db, func() {}, nil
	}

	rdb, err := cache.NewClient(ctx, cfg.RedisURL, logger)
	if err != nil {
		return nil, nil, err
	}

	health.WithOptional("cache", rest.PingFunc(func(ctx context.Context) error {
		return cache.Ping(ctx, rdb)
	}))

	closeFn := func() {
		if cerr := rdb.Close(); cerr != nil {
			logger.Error("redis close error", slog.String("error", cerr.Error()))
		}
	}
	return cache.NewCharacterCache(logger, rdb, db, cfg.TTL), closeFn, nil
}

// serve runs srv until ctx is cancelled, then drains in-flight requests
// for at most shutdownTimeout.
func serve(ctx context.Context, logger *slog.Logger, srv *http.Server, shutdownTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped cleanly")
	return nil
}
