package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/database"
	"github.com/stemsi/survey-backend/internal/handler"
	"github.com/stemsi/survey-backend/internal/logger"
	"github.com/stemsi/survey-backend/internal/repository"
	"github.com/stemsi/survey-backend/internal/router"
	"github.com/stemsi/survey-backend/internal/service"
	"github.com/stemsi/survey-backend/internal/validator"
	"github.com/stemsi/survey-backend/internal/worker"
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
		Dur("survey_state_ttl", cfg.SurveyStateTTL).
		Msg("Starting Survey Backend")

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
	respondentRepo := repository.NewRespondentRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	responseRepo := repository.NewResponseRepository(pool)
	reportRepo := repository.NewReportRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)
	answerBuffer := repository.NewAnswerBufferRepository(rdb, cfg.SurveyStateTTL)
	reportCache := repository.NewReportCacheRepository(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	publisher := service.NewRedisEventPublisher(rdb)
	authService := service.NewAuthService(cfg, adminRepo, log)
	respondentService := service.NewRespondentService(respondentRepo, answerBuffer, publisher, log)
	catalogService := service.NewCatalogService(categoryRepo, questionRepo, publisher, log)
	surveyService := service.NewSurveyService(respondentRepo, catalogService, answerBuffer, responseRepo, publisher, log)
	reportService := service.NewReportService(
		reportRepo, catalogService, respondentRepo, responseRepo, answerBuffer, reportCache, publisher,
		service.ReportOptions{TrendDays: cfg.TrendDays, PurgeConfirmCode: cfg.PurgeConfirmCode},
		log,
	)
	exportService := service.NewExportService(reportRepo, catalogService)

	if _, err := authService.EnsureDefaultAdmin(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to seed default admin")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService, log),
		Respondent: handler.NewRespondentHandler(respondentService, surveyService, authService, cfg.SurveyStateTTL, log),
		Survey:     handler.NewSurveyHandler(surveyService, catalogService, log),
		Question:   handler.NewQuestionHandler(catalogService, log),
		Report:     handler.NewReportHandler(reportService, respondentService, log),
		Export:     handler.NewExportHandler(exportService, log),
		WS:         handler.NewWSHandler(rdb, log, cfg.AllowedOrigins),
		Health:     handler.NewHealthHandler(pool, rdb),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	reportWorker := worker.NewReportWorker(rdb, reportService, log)
	go func() {
		reportWorker.Start(workerCtx)
		close(workerDone)
	}()

	// ─── Prewarm Redis Caches ─────────────────────────────────────────
	if _, err := reportService.RefreshChartData(ctx); err != nil {
		log.Warn().Err(err).Msg("Chart cache prewarm failed")
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, rdb, cfg, log)

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

	// 2. Stop the report worker and wait for its queue to drain.
	workerCancel()
	select {
	case <-workerDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("Report worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
