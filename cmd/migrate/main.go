package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/survey-backend/internal/config"
	"github.com/stemsi/survey-backend/internal/database"
	"github.com/stemsi/survey-backend/internal/logger"
	"github.com/stemsi/survey-backend/internal/repository"
	"github.com/stemsi/survey-backend/internal/service"
)

func main() {
	var (
		migrationDir string
		seedAdmin    bool
	)
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.BoolVar(&seedAdmin, "seed-admin", true, "Create the default admin after up/reset when no admin exists")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", migrationDir), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Migration failed to initialize")
	}
	defer m.Close()

	switch command := args[0]; command {
	case "up":
		apply(log, "up", m.Up)
		if seedAdmin {
			ensureAdmin(cfg, log)
		}
	case "down":
		apply(log, "down", m.Down)
	case "reset":
		// Drops every table, including all responses, then rebuilds the
		// schema and the seeded catalog.
		apply(log, "reset down", m.Down)
		apply(log, "reset up", m.Up)
		if seedAdmin {
			ensureAdmin(cfg, log)
		}
	case "steps":
		n := intArg(log, args, "steps")
		apply(log, "steps", func() error { return m.Steps(n) })
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			log.Info().Msg("No migration applied yet")
			return
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Version failed")
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("Current schema version")
	case "force":
		v := intArg(log, args, "force")
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Int("version", v).Msg("Force failed")
		}
		log.Info().Int("version", v).Msg("Forced schema version")
	default:
		printUsage()
		os.Exit(2)
	}
}

func apply(log zerolog.Logger, name string, fn func() error) {
	start := time.Now()
	err := fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info().Str("command", name).Msg("No change")
	case err != nil:
		log.Fatal().Err(err).Str("command", name).Msg("Migration failed")
	default:
		log.Info().Str("command", name).Dur("took", time.Since(start)).Msg("Migration applied")
	}
}

func intArg(log zerolog.Logger, args []string, command string) int {
	if len(args) < 2 {
		log.Fatal().Str("command", command).Msg("Missing numeric argument")
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Invalid numeric argument")
	}
	return n
}

// ensureAdmin creates the configured default admin on an empty admins table.
func ensureAdmin(cfg *config.Config, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("Skipping admin seed: cannot connect")
		return
	}
	defer pool.Close()

	auth := service.NewAuthService(cfg, repository.NewAdminRepository(pool), log)
	created, err := auth.EnsureDefaultAdmin(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to seed default admin")
		return
	}
	if created {
		log.Info().Str("username", cfg.DefaultAdminUsername).Msg("Default admin seeded")
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: migrate [flags] <command>")
	fmt.Fprintln(os.Stderr, "Commands: up, down, reset, steps <n>, version, force <version>")
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
}
