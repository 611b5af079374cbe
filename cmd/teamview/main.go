package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"zwift-team-view/infrastructure/watch"
	"zwift-team-view/infrastructure/zwiftpower"
	"zwift-team-view/internal"
	"zwift-team-view/observability"
	"zwift-team-view/repositories"
	"zwift-team-view/runtime"
	"zwift-team-view/runtime/workers"
	"zwift-team-view/services"
	"zwift-team-view/storage"
	"zwift-team-view/ui"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Team view terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and blocks until SIGINT or SIGTERM.
// Returning instead of exiting lets the deferred cleanups (badger, log file) run.
func run() (int, error) {
	// 1. Configuration & Logger
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return exitConfig, fmt.Errorf("reading .env: %w", err)
	}
	config, err := internal.LoadConfig()
	if err != nil {
		return exitConfig, err
	}

	logger, logCloser := internal.NewLogger(config.LogLevel, config.LogFile)
	defer func() { _ = logCloser.Close() }()

	ids, err := runtime.LoadRosterIDs(config.RosterFile)
	if err != nil {
		return exitConfig, err
	}

	// 2. Profile cache and remote collaborators
	cache := storage.NewFileProfileCache(config.CacheDir, logger)
	if err := cache.EnsureDir(); err != nil {
		return exitRuntime, fmt.Errorf("profile cache: %w", err)
	}

	httpClient := &http.Client{Timeout: config.HTTPTimeout}
	source := zwiftpower.NewSource(httpClient, config.ProfileURL, config.UserAgent, logger)
	watchClient := watch.NewClient(httpClient, config.WatchURL, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	profileStore := services.NewProfileStore(logger, cache, source, metrics)
	roster := runtime.NewRoster(logger, profileStore, watchClient, metrics, config.ResetTimeout)

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := workers.NewSupervisor(logger, config.RestartInterval)
	session := uuid.New()

	// 4. Optional sample recording (BadgerDB)
	var sampleRepository repositories.ISampleRepository
	if config.RecordSamples {
		db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			logger.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		repository := repositories.NewSampleRepository(db, logger, config.LimitSamples)
		recorder := workers.NewRecorderWorker(logger, session, repository, config.RecordBufferSize, metrics)
		roster.AddSinks(recorder)
		sup.Add(recorder)
		sampleRepository = repository
		logger.Info("Recording accepted samples", "session", session, "path", config.BadgerFilepath)
	}

	// 5. Roster: cached profiles, background resolutions, watch registrations
	if err := roster.Load(ctx, ids); err != nil {
		return exitRuntime, fmt.Errorf("loading roster: %w", err)
	}

	sup.Add(runtime.NewPollLoop(logger, roster, watchClient, metrics, config.PollInterval, config.StaleCheckInterval))
	if config.Console {
		sup.Add(ui.NewConsoleWorker(logger, roster, os.Stdout, config.ConsoleInterval))
	}
	if config.ReportInterval > 0 {
		sup.Add(workers.NewReporterWorker(logger, roster, config.ReportInterval))
	}
	if config.DebugPort > 0 {
		sup.Add(internal.NewDebugServer(logger, config.DebugPort, roster, registry, sampleRepository, session))
	}

	// 6. Run until a signal is received
	logger.Info("Team view started", "participants", len(ids), "watch_url", config.WatchURL)
	sup.Run(ctx)

	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}
