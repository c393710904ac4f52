package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	apihttp "github.com/nhle/taskboard/internal/http"
	"github.com/nhle/taskboard/internal/http/middleware"
	"github.com/nhle/taskboard/internal/logger"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/service"
	"github.com/nhle/taskboard/internal/store"
)

// runServe serves the API until ctx is cancelled, then drains in-flight
// requests for up to ten seconds.
func runServe(ctx context.Context, cfg *model.AppConfig, out io.Writer) error {
	log := logger.Init(out, cfg.Log.Level, cfg.Log.JSON)

	svc, st, err := openService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	rdb := connectRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	srv := newAPIServer(cfg, svc, st, rdb, log)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is listening", "addr", cfg.HTTP.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listening on %s: %w", cfg.HTTP.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Info("server exited")
	return nil
}

// connectRedis returns nil when Redis is unconfigured or unreachable, which
// leaves the API without rate limiting rather than failing to start.
func connectRedis(ctx context.Context, cfg model.RedisConfig, log *slog.Logger) *redis.Client {
	rdb, err := middleware.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("rate limiting disabled", "error", err)
		return nil
	}
	if rdb == nil {
		log.Info("rate limiting disabled: no redis address configured")
	}
	return rdb
}

func newAPIServer(cfg *model.AppConfig, svc *service.TaskService, st store.Store, rdb *redis.Client, log *slog.Logger) *http.Server {
	if logger.ParseLevel(cfg.Log.Level) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(
		rdb,
		cfg.HTTP.RateLimit,
		time.Duration(cfg.HTTP.RateWindowSec)*time.Second,
		log,
	)

	router := apihttp.NewRouter(apihttp.Deps{
		Service: svc,
		Store:   st,
		Limiter: limiter,
		Log:     log,
		Version: Version,
	})

	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
