package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sis-portal/internal/handler"
	"github.com/noah-isme/sis-portal/internal/repository"
	"github.com/noah-isme/sis-portal/internal/seed"
	"github.com/noah-isme/sis-portal/internal/service"
	"github.com/noah-isme/sis-portal/internal/store"
	"github.com/noah-isme/sis-portal/pkg/config"
	"github.com/noah-isme/sis-portal/pkg/jobs"
	"github.com/noah-isme/sis-portal/pkg/logger"
	"github.com/noah-isme/sis-portal/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	deps, closeDeps, err := store.Dial(cfg, cfg.Dashboard.CacheEnabled)
	if err != nil {
		return fmt.Errorf("connect store dependencies: %w", err)
	}
	defer closeDeps() //nolint:errcheck

	backend, closeBackend, err := store.OpenBackend(ctx, cfg.Store, deps)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer closeBackend() //nolint:errcheck

	metrics := service.NewMetricsService()
	opts := store.Options{
		Prefix:   cfg.Store.KeyPrefix,
		Logger:   logr,
		Observer: metrics,
	}
	if cfg.Store.Seed {
		opts.Seed = seed.Func(time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
	}
	records := store.New(backend, opts)
	if err := records.Init(ctx); err != nil {
		return fmt.Errorf("initialise record store: %w", err)
	}

	validate := validator.New()

	students := repository.NewStudentRepository(records, logr)
	courses := repository.NewCourseRepository(records, logr)
	teachers := repository.NewTeacherRepository(records, logr)
	users := repository.NewUserRepository(records, logr)
	attendanceRepo := repository.NewAttendanceRepository(records, logr)
	resultRepo := repository.NewResultRepository(records, logr)
	reportRepo := repository.NewReportJobRepository(records, logr)
	sessions := repository.NewSessionRepository(records, logr)
	cacheRepo := repository.NewCacheRepository(deps.Redis, logr)

	authService := service.NewAuthService(users, sessions, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "sis-portal",
	})
	attendanceService := service.NewAttendanceService(attendanceRepo, students, courses, sessions, logr)
	resultService := service.NewResultService(resultRepo, students, courses, logr)
	studentService := service.NewStudentService(students, users, validate, logr)
	courseService := service.NewCourseService(courses, teachers, students, logr)
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled && deps.Redis != nil)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Attendance: attendanceService,
		Results:    resultService,
		Students:   students,
		Teachers:   teachers,
		Courses:    courses,
		Cache:      cacheService,
		Logger:     logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:      cfg.Dashboard.CacheTTL,
			RiskThreshold: cfg.Attendance.RiskThreshold,
		},
	})
	exportService := service.NewExportService(attendanceService, resultService, courses, logr)

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("prepare export storage: %w", err)
	}

	var worker *service.ReportWorker
	queue := jobs.NewQueue("reports", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	reportService := service.NewReportService(reportRepo, courses, queue, files, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Exports.ResultTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	})
	worker = service.NewReportWorker(reportService, exportService, files, metrics, cfg.Exports.WorkerRetries, logr)

	queue.Start(ctx)
	defer queue.Stop()
	reportService.RecoverPendingJobs(ctx)
	reportService.StartCleanup(ctx)

	router := handler.NewRouter(handler.RouterDeps{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Tokens:         authService,
		Cache:          cacheService,
		Metrics:        metrics,
		Auth:           handler.NewAuthHandler(authService),
		Students:       handler.NewStudentHandler(studentService),
		Courses:        handler.NewCourseHandler(courseService),
		Attendance:     handler.NewAttendanceHandler(attendanceService, validate, cfg.Attendance.RiskThreshold, cfg.Attendance.RecentLimit),
		Results:        handler.NewResultHandler(resultService, validate),
		Dashboard:      handler.NewDashboardHandler(dashboardService),
		Reports:        handler.NewReportHandler(reportService, exportService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store_driver", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
