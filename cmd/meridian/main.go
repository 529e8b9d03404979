package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-bms/meridian/internal/app"
	"github.com/meridian-bms/meridian/internal/authz"
	"github.com/meridian-bms/meridian/internal/catalog"
	"github.com/meridian-bms/meridian/internal/platform/cache"
	"github.com/meridian-bms/meridian/internal/roles"
	"github.com/meridian-bms/meridian/internal/shared"
	"github.com/meridian-bms/meridian/internal/upstream"
	"github.com/meridian-bms/meridian/internal/users"
	"github.com/meridian-bms/meridian/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	apiClient := upstream.NewHTTPClient(cfg.UpstreamBaseURL, cfg.UpstreamToken, cfg.UpstreamTimeout)
	store := authz.NewStore()
	refresher := authz.NewRefresher(apiClient, store, logger)
	snapCache := authz.NewSnapshotCache(redisClient, cfg.SnapshotCacheTTL)

	// Seed the snapshot before serving; fall back to the cached last-known
	// state when upstream is unreachable. An empty snapshot denies
	// everything until the scheduled reconcile succeeds.
	if snap, err := refresher.Refresh(ctx); err != nil {
		logger.Warn("initial snapshot fetch failed", slog.Any("error", err))
		if cachedRoles, cachedUsers, cerr := snapCache.Load(ctx); cerr == nil {
			store.Swap(cachedRoles, cachedUsers)
			logger.Info("serving cached snapshot until reconcile")
		}
	} else {
		if err := snapCache.Save(ctx, snap); err != nil {
			logger.Warn("cache snapshot", slog.Any("error", err))
		}
	}

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookie, cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	idemStore := shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	guards := authz.Middleware{Store: store, Logger: logger}

	rolesService := roles.NewService(apiClient, store, refresher, logger)
	usersService := users.NewService(apiClient, store, refresher, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		Guards:         guards,
		CatalogHandler: catalog.NewHandler(),
		RolesHandler:   roles.NewHandler(logger, rolesService, guards, idemStore),
		UsersHandler:   users.NewHandler(logger, usersService, guards, idemStore),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	// The reconcile worker runs in-process: the snapshot store is process
	// memory, so the consumer must live next to it.
	refreshJob := jobs.NewSnapshotRefreshJob(refresher, snapCache, logger)
	refreshTask, err := jobs.NewSnapshotRefreshTask("scheduled reconcile")
	if err != nil {
		logger.Error("build refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskSnapshotRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if app.InTestMode() {
			<-gctx.Done()
			return nil
		}
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("run", slog.Any("error", err))
		os.Exit(1)
	}
}
