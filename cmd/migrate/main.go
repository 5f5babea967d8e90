package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/stemsi/exam-portal-backend/internal/config"
	"github.com/stemsi/exam-portal-backend/internal/logger"
)

// migrateLogger routes golang-migrate's own output through zerolog.
type migrateLogger struct {
	log     zerolog.Logger
	verbose bool
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Info().Msg(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

func (l migrateLogger) Verbose() bool {
	return l.verbose
}

func main() {
	var (
		migrationDir string
		verbose      bool
	)
	flag.StringVar(&migrationDir, "path", "migrations", "Path to migration files")
	flag.BoolVar(&verbose, "v", false, "Log every applied migration")
	flag.Usage = printUsage
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Component(logger.Setup(cfg.LogLevel, cfg.LogFormat), "migrate")

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+migrationDir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", migrationDir).Msg("Failed to initialize migrations")
	}
	m.Log = migrateLogger{log: log, verbose: verbose}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn().AnErr("source", srcErr).AnErr("database", dbErr).Msg("Failed to close migrator")
		}
	}()

	switch cmd := args[0]; cmd {
	case "up", "down":
		apply := m.Up
		if cmd == "down" {
			apply = m.Down
		}
		if err := apply(); err != nil {
			if errors.Is(err, migrate.ErrNoChange) {
				log.Info().Str("command", cmd).Msg("Schema already up to date")
				return
			}
			log.Fatal().Err(err).Str("command", cmd).Msg("Migration failed")
		}
		logVersion(log, m, "Migrated "+cmd)
	case "steps":
		n, err := intArg(args, "steps")
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid arguments")
		}
		if err := m.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal().Err(err).Int("steps", n).Msg("Migration failed")
		}
		logVersion(log, m, "Migrated steps")
	case "version":
		logVersion(log, m, "Current schema version")
	case "force":
		v, err := intArg(args, "force")
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid arguments")
		}
		if err := m.Force(v); err != nil {
			log.Fatal().Err(err).Int("version", v).Msg("Force failed")
		}
		log.Info().Int("version", v).Msg("Forced schema version")
	default:
		log.Error().Str("command", cmd).Msg("Unknown command")
		printUsage()
		os.Exit(2)
	}
}

func logVersion(log zerolog.Logger, m *migrate.Migrate, msg string) {
	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info().Msg(msg + ": no migrations applied")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to read schema version")
	default:
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg(msg)
	}
}

func intArg(args []string, cmd string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s requires a number", cmd)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: %w", cmd, err)
	}
	return n, nil
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Usage: exam-portal-migrate [flags] <command>")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  up              apply all pending migrations")
	fmt.Fprintln(out, "  down            roll back every migration")
	fmt.Fprintln(out, "  steps <n>       apply n migrations, negative n rolls back")
	fmt.Fprintln(out, "  version         print the current schema version")
	fmt.Fprintln(out, "  force <version> mark a version as applied after a failed run")
	fmt.Fprintln(out, "Flags:")
	flag.PrintDefaults()
}
