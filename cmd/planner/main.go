package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/MrTune/Sem-Planner/api/swagger"
	"github.com/MrTune/Sem-Planner/internal/handler"
	"github.com/MrTune/Sem-Planner/internal/middleware"
	"github.com/MrTune/Sem-Planner/internal/repository"
	"github.com/MrTune/Sem-Planner/internal/service"
	"github.com/MrTune/Sem-Planner/pkg/clock"
	"github.com/MrTune/Sem-Planner/pkg/config"
	"github.com/MrTune/Sem-Planner/pkg/export"
	"github.com/MrTune/Sem-Planner/pkg/logger"
	corsmiddleware "github.com/MrTune/Sem-Planner/pkg/middleware/cors"
	reqidmiddleware "github.com/MrTune/Sem-Planner/pkg/middleware/requestid"
	"github.com/MrTune/Sem-Planner/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Semester Planner API
// @version 1.0.0
// @description Courses, evaluative components, marks and due dates for one semester.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	origin := uuid.NewString()
	logr = logr.With(zap.String("origin", origin))

	store, err := repository.OpenBlobStore(ctx, cfg, origin, logr)
	if err != nil {
		logr.Fatal("failed to open blob store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer store.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	quarantineStore, err := storage.NewLocalStorage(cfg.Quarantine.Dir)
	if err != nil {
		logr.Fatal("failed to prepare quarantine dir", zap.String("dir", cfg.Quarantine.Dir), zap.Error(err))
	}
	quarantine := service.NewQuarantineService(quarantineStore, service.QuarantineConfig{
		Retention:  cfg.Quarantine.Retention,
		MaxRetries: cfg.Quarantine.WorkerRetries,
	}, metrics, logr)
	quarantine.Start(ctx)
	defer quarantine.Stop()

	gateway := service.NewCollectionGateway(store, service.GatewayConfig{
		Key:         cfg.Store.Key,
		SeedCourses: cfg.Planner.SeedCourses,
	}, quarantine, metrics, logr)

	planner := service.NewPlanner(gateway, clock.System{}, service.PlannerConfig{
		Location:      cfg.Planner.Location(),
		UpcomingLimit: cfg.Planner.UpcomingLimit,
		Origin:        origin,
		StoreDriver:   cfg.Store.Driver,
		StoreKey:      cfg.Store.Key,
	}, validator.New(), metrics, logr)

	// subscribe before the initial load so a foreign write in between is not missed
	if cfg.Store.WatchEnable {
		watcher := service.NewChangeWatcher(store, planner, cfg.Store.Key, logr)
		if err := watcher.Subscribe(ctx); err != nil {
			logr.Error("failed to subscribe to store changes", zap.Error(err))
		} else {
			go func() {
				if err := watcher.Run(ctx); err != nil {
					logr.Error("change watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	if _, err := planner.Load(ctx); err != nil {
		// the store may come up later; requests retry the load lazily
		logr.Warn("initial load failed", zap.Error(err))
	}

	exporter := service.NewExportService(planner, export.NewCSVExporter(), export.NewPDFExporter(), logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.PlannerHeaders(origin, cfg.Store.Driver))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Audit(logr))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Courses: handler.NewCourseHandler(planner, exporter),
		Agenda:  handler.NewAgendaHandler(planner),
		System:  handler.NewSystemHandler(planner, metrics),
		Metrics: handler.NewMetricsHandler(metrics, func() bool { return planner.Status().Loaded }),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
