package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bmp-tn/project-admin/config"
	httpapi "github.com/bmp-tn/project-admin/internal/api/http"
	"github.com/bmp-tn/project-admin/internal/audit"
	"github.com/bmp-tn/project-admin/internal/bootstrap"
	"github.com/bmp-tn/project-admin/internal/logger"
	"github.com/bmp-tn/project-admin/internal/projects/client"
	"github.com/bmp-tn/project-admin/internal/projects/console"
	projectshttp "github.com/bmp-tn/project-admin/internal/projects/http"
	"github.com/bmp-tn/project-admin/internal/projects/service"
)

const serviceName = "bmp-project-admin"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error("load config", "error", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: cfg.App.LogFormat,
	})
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	projects := client.New(cfg.ProjectService.BaseURL, client.Options{
		Timeout: cfg.ProjectService.Timeout,
		RPS:     cfg.ProjectService.RPS,
		Burst:   cfg.ProjectService.Burst,
	})
	health := httpapi.HealthDeps{
		ServiceName:    serviceName,
		Version:        cfg.App.Version,
		ProjectService: projects,
	}

	var store console.Store = console.NewMemoryStore(cfg.Session.TTL, cfg.App.DefaultArtisanID)
	if cfg.Session.RedisURL != "" {
		rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{URL: cfg.Session.RedisURL})
		if err != nil {
			log.Error("open redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = console.NewRedisStore(rdb, cfg.Session.TTL, cfg.App.DefaultArtisanID)
		health.Redis = httpapi.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		log.Info("console sessions stored in redis")
	} else {
		log.Info("console sessions stored in memory")
	}

	svcCfg := service.Config{DefaultArtisanID: cfg.App.DefaultArtisanID}
	if cfg.Audit.Enabled() {
		pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Audit.DSN})
		if err != nil {
			log.Error("open audit db", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		repo := audit.NewRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Error("audit schema", "error", err)
			os.Exit(1)
		}
		svcCfg.Recorder = repo
		health.DB = pool

		sched := audit.NewScheduler(repo, cfg.Audit.Retention(), log)
		if err := sched.Start(audit.NightlySpec); err != nil {
			log.Error("audit scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	consoleService := service.NewConsoleService(projects, store, svcCfg)
	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Health: health,
		Console: projectshttp.New(consoleService, projectshttp.Options{
			SecureCookie: cfg.IsProduction(),
			SessionTTL:   cfg.Session.TTL,
		}),
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("project admin console listening",
			"addr", srv.Addr,
			"project_service", projects.BaseURL(),
			"env", cfg.App.Environment,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
	log.Info("server stopped")
}
