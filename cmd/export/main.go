package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/database"
	"github.com/stemsi/survey-backend/internal/logger"
	"github.com/stemsi/survey-backend/internal/model"
	"github.com/stemsi/survey-backend/internal/repository"
	"github.com/stemsi/survey-backend/internal/service"
)

func main() {
	var (
		format  string
		outDir  string
		program string
		stats   bool
	)
	flag.StringVar(&format, "format", "both", "Export format: csv, xlsx or both")
	flag.StringVar(&outDir, "out", "", "Output directory (defaults to EXPORT_DIR)")
	flag.StringVar(&program, "program", "", "Only export respondents of this study program")
	flag.BoolVar(&stats, "stats", false, "Print data set statistics and exit")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	if outDir == "" {
		outDir = cfg.ExportDir
	}

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Services ──────────────────────────────────────────
	catalogService := service.NewCatalogService(
		repository.NewCategoryRepository(pool),
		repository.NewQuestionRepository(pool),
		nil, log,
	)
	exportService := service.NewExportService(repository.NewReportRepository(pool), catalogService)

	if stats {
		s, err := exportService.Stats(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read statistics")
		}
		fmt.Println("==================================================")
		fmt.Println("SURVEY DATA STATISTICS")
		fmt.Println("==================================================")
		fmt.Printf("Total respondents : %d\n", s.TotalRespondents)
		fmt.Printf("Total surveys     : %d\n", s.TotalSurveys)
		fmt.Printf("Average score     : %.2f/%d\n", s.AverageTotalScore, s.MaxTotalScore)
		fmt.Println("==================================================")
		return
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", outDir).Msg("Failed to create export directory")
	}

	filter := model.SearchFilter{Program: program}
	now := time.Now()

	write := func(ext string, render func(context.Context, model.SearchFilter) ([]byte, error)) {
		body, err := render(ctx, filter)
		if err != nil {
			log.Fatal().Err(err).Str("format", ext).Msg("Export failed")
		}
		path := filepath.Join(outDir, service.ExportFilename(ext, now))
		if err := os.WriteFile(path, body, 0o644); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to write export")
		}
		fmt.Printf("Exported %s (%d bytes)\n", path, len(body))
	}

	switch format {
	case "csv":
		write("csv", exportService.CSV)
	case "xlsx":
		write("xlsx", exportService.XLSX)
	case "both":
		write("csv", exportService.CSV)
		write("xlsx", exportService.XLSX)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", format)
		flag.Usage()
		os.Exit(2)
	}
}
