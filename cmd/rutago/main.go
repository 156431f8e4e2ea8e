package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"rutago/internal/api"
	"rutago/pkg/config"
	"rutago/pkg/db"
	"rutago/pkg/db/maintenance"
	"rutago/pkg/gpx"
	"rutago/pkg/location"
	"rutago/pkg/location/mockloc"
	"rutago/pkg/location/replay"
	"rutago/pkg/logging"
	"rutago/pkg/recorder"
	"rutago/pkg/store"
	"rutago/pkg/tracker"
	"rutago/pkg/version"
	"rutago/pkg/watcher"
)

var initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

func main() {
	flag.Parse()

	// Handle --init-config flag
	if *initConfig {
		if err := config.GenerateDefault("configs/rutago.yaml"); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated: configs/rutago.yaml")
		return
	}

	if err := run(context.Background(), "configs/rutago.yaml"); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Optional .env for the RUTAGO_* fallbacks; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Rutago started", "version", version.Version)

	dbConn, err := db.Init(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	st := store.NewSQLiteStore(dbConn)
	defer st.Close()

	// Drafts from a previous run never survive a restart.
	if n, err := maintenance.SweepDrafts(ctx, st); err != nil {
		slog.Error("Draft sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("Swept abandoned drafts", "count", n)
	}
	if _, err := maintenance.PurgeExports(cfg.Export.Dir, cfg.Export.MaxAge.Duration()); err != nil {
		slog.Error("Export purge failed", "error", err)
	}

	tr := tracker.New()

	src, err := newLocationSource(&cfg.Location)
	if err != nil {
		return fmt.Errorf("failed to initialize location source: %w", err)
	}
	defer src.Close()
	sampler := location.NewSampler(src, tr)

	writer := store.NewWriter(ctx, 1024, func(err error) {
		tr.TrackWriteFailure()
		slog.Error("Store write failed", "error", err)
	})
	defer writer.Close()

	rec := recorder.New(st, sampler, writer, tr, &cfg.Recorder)
	defer rec.Close()

	settings := api.NewSettingsHandler(st, rec, cfg.Recorder.IntervalSetting)
	rec.SetInterval(location.IntervalFromSetting(settings.Current(ctx)))

	var photos *watcher.Service
	if cfg.Photos.Enabled {
		photos, err = watcher.NewService(cfg.Photos.Paths)
		if err != nil {
			slog.Warn("Photo watcher disabled", "error", err)
		}
	}

	importer := gpx.NewImporter(st, tr)
	exporter := gpx.NewExporter(st, cfg.Export.Dir, tr)

	// Periodic export purge.
	cronRunner := cron.New()
	if _, err := cronRunner.AddFunc(cfg.Export.PurgeSchedule, func() {
		if n, err := maintenance.PurgeExports(cfg.Export.Dir, cfg.Export.MaxAge.Duration()); err != nil {
			slog.Error("Export purge failed", "error", err)
		} else if n > 0 {
			slog.Info("Purged stale exports", "count", n)
		}
	}); err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", cfg.Export.PurgeSchedule, err)
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewSessionHandler(rec, photos),
		api.NewLiveHandler(rec),
		api.NewRoutesHandler(st, importer, exporter),
		api.NewMarkerHandler(st),
		settings,
		api.NewStatsHandler(tr, time.Now()),
		shutdownFunc,
	)
	srv.Handler = loggingMiddleware(srv.Handler)

	return runServerLifecycle(ctx, srv, quit)
}

// newLocationSource selects the configured location provider.
func newLocationSource(cfg *config.LocationConfig) (location.Source, error) {
	switch cfg.Provider {
	case "mock", "":
		return mockloc.NewWalker(cfg.Mock), nil
	case "replay":
		return replay.New(cfg.Replay.Path, cfg.Replay.Speed)
	default:
		return nil, fmt.Errorf("unknown location provider %q", cfg.Provider)
	}
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
