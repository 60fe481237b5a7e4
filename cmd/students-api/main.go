// main is the entry point of the Students API application.
//
// STARTUP SEQUENCE:
//  1. Load configuration (YAML file + environment, optional .env)
//  2. Initialise the logger
//  3. Connect the configured storage backend (mongo, sqlite or memory)
//  4. Build the router
//  5. Start the HTTP server in a separate goroutine
//  6. Block until an OS signal (Ctrl+C / kill) arrives
//  7. Gracefully shut down: finish in-flight requests, close storage, exit
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-api --config=config/local.yaml
//
// or (with the environment variable):
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/students-api
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

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/router"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/storage/mongodb"
	"github.com/aanand-mishra/student-records/internal/storage/sqlite"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting students-api",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.Storage.Driver),
	)

	// The rest of the code only knows the storage.Storage interface;
	// newStorage is the one place that picks a concrete backend.
	store, err := newStorage(context.Background(), cfg)
	if err != nil {
		log.Error("failed to initialise storage",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("storage initialised", slog.String("driver", cfg.Storage.Driver))

	server := &http.Server{
		Addr: cfg.HTTPServer.Addr,
		Handler: router.New(store, router.Options{
			Logger:         log,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		}),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	// ListenAndServe blocks, so it runs in its own goroutine and main
	// waits for a signal below.
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// http.ErrServerClosed is the expected result of Shutdown().
		if err := server.ListenAndServe(); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()

	// Shutdown stops accepting connections and waits for active requests
	// up to the ctx deadline.
	exitCode := 0
	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if err := store.Close(ctx); err != nil {
		log.Error("failed to close storage",
			slog.String("error", err.Error()))
		exitCode = 1
	}

	if exitCode != 0 {
		cancel()
		os.Exit(exitCode)
	}

	log.Info("server stopped gracefully")
}

// newStorage connects the backend named by cfg.Storage.Driver.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMongo:
		return mongodb.New(ctx, cfg)
	case config.DriverSQLite:
		return sqlite.New(cfg)
	case config.DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Staging/production: JSON output, DEBUG in staging and INFO in prod.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	case "staging":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default: // "dev" and anything unrecognised
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	}
}
