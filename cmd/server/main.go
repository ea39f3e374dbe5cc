package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/smpn3pacet/cbt-backend/internal/config"
	"github.com/smpn3pacet/cbt-backend/internal/database"
	"github.com/smpn3pacet/cbt-backend/internal/handler"
	"github.com/smpn3pacet/cbt-backend/internal/logger"
	"github.com/smpn3pacet/cbt-backend/internal/repository"
	"github.com/smpn3pacet/cbt-backend/internal/router"
	"github.com/smpn3pacet/cbt-backend/internal/service"
	"github.com/smpn3pacet/cbt-backend/internal/session"
	"github.com/smpn3pacet/cbt-backend/internal/validator"
	"github.com/smpn3pacet/cbt-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting CBT Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	studentRepo := repository.NewStudentRepository(pool)
	packetRepo := repository.NewPacketRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	resultRepo := repository.NewResultRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, studentRepo, settingRepo)
	studentService := service.NewStudentService(studentRepo, authService)
	packetService := service.NewPacketService(packetRepo)
	questionService := service.NewQuestionService(questionRepo, packetRepo, packetService)
	examService := service.NewExamService(examRepo, packetRepo)
	sessionBuilder := session.NewBuilder(questionRepo)
	sessionService := service.NewExamSessionService(cfg, rdb, sessionBuilder, examRepo, resultRepo, log)
	monitorService := service.NewMonitorService(monitorRepo, sessionService)
	analysisService := service.NewAnalysisService(resultRepo)
	settingService := service.NewSettingService(settingRepo, authService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(authService, studentService, settingService),
		StudentPortal: handler.NewStudentPortalHandler(studentService, sessionService),
		StudentMgmt:   handler.NewStudentManagementHandler(studentService, authService),
		Packet:        handler.NewPacketHandler(packetService),
		Question:      handler.NewQuestionHandler(questionService),
		Exam:          handler.NewExamHandler(examService),
		Analysis:      handler.NewAnalysisHandler(analysisService),
		Monitor:       handler.NewMonitorHandler(rdb, examService, monitorService, log),
		Setting:       handler.NewSettingHandler(settingService),
		WS:            handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	autosaveWorker := worker.NewAutosaveWorker(pool, rdb, log)
	violationWorker := worker.NewViolationWorker(pool, rdb, log)
	resultWorker := worker.NewResultWorker(resultRepo, rdb, log)

	go autosaveWorker.Start(workerCtx)
	go violationWorker.Start(workerCtx)
	go resultWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Force-submit every running attempt so no result is lost.
	sessionService.Shutdown(context.Background())

	// 3. Stop background workers and wait for queues to drain.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
