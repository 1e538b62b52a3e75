package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vedran77/receptionist/internal/auth"
	"github.com/vedran77/receptionist/internal/database"
	"github.com/vedran77/receptionist/internal/service"
	"github.com/vedran77/receptionist/internal/storage"
	"github.com/vedran77/receptionist/internal/transport/http/handlers"
	"github.com/vedran77/receptionist/internal/transport/http/middleware"
	"github.com/vedran77/receptionist/internal/transport/ws"
	"golang.org/x/sync/errgroup"
)

const (
	lockTTL  = 30 * time.Second
	lockWait = 10 * time.Second
)

var (
	inMemory    bool
	autoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, websocket hub and reconciler",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&inMemory, "in-memory", false, "keep all data in memory instead of PostgreSQL")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "apply pending migrations before serving")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, inMemory)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	if autoMigrate && a.pool != nil {
		if err := database.Migrate(ctx, a.pool, "up"); err != nil {
			return err
		}
		log.Info(ctx, "database migrations completed")
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	hasher := auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	var (
		locker  service.Locker
		counter middleware.Counter
	)
	if a.redis != nil {
		locker = service.NewRedisLocker(a.redis, lockTTL, lockWait).WithLogger(log)
		counter = middleware.NewRedisCounter(a.redis)
	} else {
		locker = service.NewLocalLocker(lockWait)
		counter = middleware.NewLocalCounter()
	}

	var logos handlers.LogoPresigner
	if cfg.S3.Enabled() {
		store, err := storage.NewLogoStore(ctx, cfg.S3)
		if err != nil {
			return err
		}
		logos = store
	}

	hub := ws.NewHub(log)

	authService := service.NewAuthService(a.users, tokens, hasher, log)
	assistantService := service.NewAssistantService(a.assistants, a.tasks, a.provider, locker, ws.NewHubNotifier(hub), log).
		WithCompensationTimeout(cfg.Vapi.Timeout)
	reconciler := service.NewReconciler(a.tasks, a.provider, log, cfg.Reconcile.BatchSize)

	router := handlers.NewRouter(handlers.RouterConfig{
		Auth:       handlers.NewAuthHandler(authService, logos, log),
		Assistants: handlers.NewAssistantHandler(assistantService, log),
		Events:     ws.ServeWS(hub, tokens, cfg.Server.CORSOrigins, log),
		Tokens:     tokens,
		Counter:    counter,
		RateLimit: middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		Log:         log,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })
	g.Go(func() error { return reconciler.Run(gctx, cfg.Reconcile.Interval) })
	g.Go(func() error {
		log.Info(gctx, "server listening", "addr", srv.Addr, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info(context.Background(), "server stopped gracefully", "pid", os.Getpid())
	return nil
}
