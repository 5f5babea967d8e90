package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/database"
	"github.com/stemsi/exam-portal-backend/internal/handler"
	"github.com/stemsi/exam-portal-backend/internal/logger"
	"github.com/stemsi/exam-portal-backend/internal/repository"
	"github.com/stemsi/exam-portal-backend/internal/router"
	"github.com/stemsi/exam-portal-backend/internal/service"
	"github.com/stemsi/exam-portal-backend/internal/validator"
	"github.com/stemsi/exam-portal-backend/internal/worker"
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
		Int("violation_threshold", cfg.ViolationThreshold).
		Dur("expiry_grace", cfg.ExpiryGrace).
		Msg("Starting exam portal backend")

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
	userRepo := repository.NewUserRepository(pool)
	subjectRepo := repository.NewSubjectRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	attemptRepo := repository.NewAttemptRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)
	analyticsRepo := repository.NewAnalyticsRepository(pool)
	monitorRepo := repository.NewMonitorRepository(pool, rdb)
	draftRepo := repository.NewDraftRepository(rdb)
	sessionRepo := repository.NewSessionRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, sessionRepo)
	mediaService := service.NewMediaService(cfg)
	userService := service.NewUserService(userRepo, authService, mediaService, log)
	subjectService := service.NewSubjectService(subjectRepo, log)
	questionService := service.NewQuestionService(questionRepo)
	examService := service.NewExamService(examRepo, questionRepo, attemptRepo, log)
	proctorService := service.NewProctorService(violationRepo, cfg.ViolationThreshold, log)
	attemptService := service.NewAttemptService(
		examRepo, questionRepo, attemptRepo, draftRepo,
		proctorService, monitorRepo, cfg.ExpiryGrace, log,
	)
	analyticsService := service.NewAnalyticsService(analyticsRepo, examService, log)
	monitorService := service.NewMonitorService(monitorRepo, examService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, userService, log),
		Profile:   handler.NewProfileHandler(userService, log),
		Subject:   handler.NewSubjectHandler(subjectService, log),
		Question:  handler.NewQuestionHandler(questionService, log),
		Exam:      handler.NewExamHandler(examService, log),
		Attempt:   handler.NewAttemptHandler(attemptService, log),
		Analytics: handler.NewAnalyticsHandler(analyticsService, log),
		Admin:     handler.NewAdminHandler(userService, log),
		Monitor:   handler.NewMonitorHandler(monitorService, log),
		WS:        handler.NewWSHandler(attemptService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(pool, rdb, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	autosaveWorker := worker.NewAutosaveWorker(draftRepo, attemptRepo, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		autosaveWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop background workers and wait for the draft queue to drain.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
