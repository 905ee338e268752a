package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/acompanha/acompanha/handlers"
	"github.com/acompanha/acompanha/internal/config"
	"github.com/acompanha/acompanha/internal/document"
	"github.com/acompanha/acompanha/internal/records/repository"
	"github.com/acompanha/acompanha/internal/records/service"
	"github.com/acompanha/acompanha/internal/sessions"
	"github.com/acompanha/acompanha/internal/users"
	"github.com/acompanha/acompanha/pkg/logger"
	"github.com/acompanha/acompanha/pkg/metrics"
	"github.com/acompanha/acompanha/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	if cfg.Session.InsecureSecret {
		logger.Warnf("JWT_SECRET is the development default; set a private value before exposing this server")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	store, err := document.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatalf("failed to open document store: %v", err)
	}
	repo := repository.New(store)
	userSvc := users.NewService(repo)

	ctx := context.Background()
	if _, err := userSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatalf("failed to seed admin user: %v", err)
	}

	gate, err := sessions.NewGate(sessions.Config{
		Secret: cfg.Session.Secret,
		TTL:    cfg.Session.TTL,
		Secure: cfg.Session.SecureCookies,
	})
	if err != nil {
		logger.Fatalf("failed to create session gate: %v", err)
	}

	var loginLimiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		loginLimiter = newLoginLimiter(ctx, cfg)
	}

	r := handlers.NewRouter(handlers.Deps{
		Gate:         gate,
		Users:        userSvc,
		Cards:        service.NewService(repo),
		Store:        store,
		LoginLimiter: loginLimiter,
		StaticDir:    cfg.Server.StaticDir,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("listening on http://%s (env=%s, db=%s)", cfg.Addr(), cfg.Server.Environment, store.Path())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Infof("server exited gracefully")
}

// newLoginLimiter prefers the Redis limiter when configured and reachable,
// falling back to the in-process one.
func newLoginLimiter(ctx context.Context, cfg *config.Config) gin.HandlerFunc {
	if !cfg.RateLimit.UseRedis {
		return middleware.RateLimitMiddleware(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warnf("redis %s unreachable (%v); using in-memory login limiter", cfg.RedisAddr(), err)
		_ = client.Close()
		return middleware.RateLimitMiddleware(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	logger.Infof("login limiter backed by redis at %s", cfg.RedisAddr())
	return middleware.RedisRateLimitMiddleware(client, "login", cfg.RateLimit.Max, cfg.RateLimit.Window)
}
