package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	_ "github.com/schoolstack/sms-api/api/swagger"
	"github.com/schoolstack/sms-api/internal/handler"
	"github.com/schoolstack/sms-api/internal/repository"
	"github.com/schoolstack/sms-api/internal/router"
	"github.com/schoolstack/sms-api/internal/service"
	"github.com/schoolstack/sms-api/pkg/cache"
	"github.com/schoolstack/sms-api/pkg/config"
	"github.com/schoolstack/sms-api/pkg/database"
	"github.com/schoolstack/sms-api/pkg/jobs"
	"github.com/schoolstack/sms-api/pkg/logger"
	"github.com/schoolstack/sms-api/pkg/storage"
)

// @title School Management API
// @version 1.0.0
// @description REST backend for school administration
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	parentRepo := repository.NewParentRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	examRepo := repository.NewExamRepository(db)
	markRepo := repository.NewMarkRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	peopleSvc := service.NewPeopleService(db, userRepo, studentRepo, teacherRepo, parentRepo, validate, logr)
	academicSvc := service.NewAcademicService(academicRepo, assignmentRepo, validate, logr)
	scopeSvc := service.NewScopeService(assignmentRepo, cfg.Scope.StrictSectionMatch, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, validate, logr)
	examSvc := service.NewExamService(examRepo, validate, logr)
	markSvc := service.NewMarkService(db, markRepo, scopeSvc, examSvc, studentRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(db, attendanceRepo, scopeSvc, studentRepo, validate, logr)
	feeSvc := service.NewFeeService(feeRepo, validate, logr)
	materialSvc := service.NewMaterialService(db, materialRepo, scopeSvc, scopeSvc, studentRepo, notificationRepo, validate, logr)
	notificationSvc := service.NewNotificationService(db, notificationRepo, scopeSvc, studentRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(studentRepo, teacherRepo, parentRepo, academicRepo, feeRepo, cacheRepo, cfg.Dashboard.CacheTTL, logr)
	metricsSvc := service.NewMetricsService()

	var reportQueue *jobs.Queue
	var reportSvc *service.ReportService
	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		reportSvc = service.NewReportService(reportRepo, markRepo, attendanceRepo, examSvc, scopeSvc, store, signer, logr)
		reportQueue = jobs.NewQueue("reports", reportSvc.Execute, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		reportSvc.BindQueue(reportQueue)
	}

	handlers := router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		People:        handler.NewPeopleHandler(peopleSvc),
		Academic:      handler.NewAcademicHandler(academicSvc),
		Timetable:     handler.NewTimetableHandler(timetableSvc),
		Exam:          handler.NewExamHandler(examSvc),
		Fee:           handler.NewFeeHandler(feeSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Notification:  handler.NewNotificationHandler(notificationSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		TeacherPortal: handler.NewTeacherPortalHandler(peopleSvc, academicSvc, timetableSvc, markSvc, attendanceSvc, materialSvc, notificationSvc, scopeSvc),
		StudentPortal: handler.NewStudentPortalHandler(peopleSvc, timetableSvc, markSvc, attendanceSvc, materialSvc, feeSvc, notificationSvc),
		ParentPortal:  handler.NewParentPortalHandler(peopleSvc, markSvc, attendanceSvc, feeSvc),
	}
	if reportSvc != nil {
		handlers.Report = handler.NewReportHandler(reportSvc, peopleSvc)
	}

	engine := router.New(cfg, logr, authSvc, metricsSvc, handlers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if reportQueue != nil {
		reportQueue.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: engine,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if reportQueue != nil {
		reportQueue.Stop()
	}
}
