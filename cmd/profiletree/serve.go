package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	pt "github.com/gofhir/profiletree"
	"github.com/gofhir/profiletree/engine"
	"github.com/gofhir/profiletree/internal/config"
	"github.com/gofhir/profiletree/internal/server"
	"github.com/gofhir/profiletree/loader"
	"github.com/gofhir/profiletree/persist"
	"github.com/gofhir/profiletree/pkg/logger"
	"github.com/gofhir/profiletree/service"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the editing session API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logger
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.NewWithFormat(os.Stdout, level, logger.FormatForEnv(cfg.Env))
	logger.SetDefault(log)

	version := pt.ParseFHIRVersion(cfg.FHIRVersion)
	if version == "" {
		return fmt.Errorf("unsupported FHIR_VERSION %q", cfg.FHIRVersion)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Profile source
	var next service.ProfileSource
	switch {
	case cfg.ProfileDir != "":
		next = loader.NewDirSource(cfg.ProfileDir)
	case cfg.ProfilePackage != "":
		pkg, err := loader.OpenPackage(cfg.ProfilePackage)
		if err != nil {
			return err
		}
		log.Info().Str("package", pkg.Manifest.String()).Int("profiles", len(pkg.Keys())).Msg("profile package loaded")
		next = pkg
	default:
		next = loader.NewHTTPSource(cfg.ProfileBaseURL, loader.WithTimeout(cfg.HTTPTimeout))
	}
	source := loader.NewCachedSource(next, cfg.CacheSize)

	// Expanded-state store
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.Info().Str("backend", cfg.StateBackend).Msg("expanded state store ready")

	metrics := pt.NewMetrics()
	compiler := service.NewFHIRPathAdapter(0)
	factory := func(ctx context.Context) (*engine.Editor, error) {
		return engine.New(ctx, source,
			pt.WithExpansionStore(store),
			pt.WithStorageKey(cfg.StorageKey),
			pt.WithLogger(log),
			pt.WithMetrics(metrics),
			pt.WithExpressionCompiler(compiler),
			pt.WithFHIRVersion(version),
		)
	}
	srv := server.New(factory, metrics, log)

	if cfg.Watch {
		w := loader.NewWatcher(cfg.ProfileDir,
			func(key string) { srv.ReloadKey(ctx, key) },
			loader.WithInvalidate(source.Invalidate),
			loader.WithOnError(func(err error) {
				log.Warn().Err(err).Msg("profile watcher error")
			}),
		)
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Error().Err(err).Msg("profile watcher stopped")
			}
		}()
		log.Info().Str("dir", cfg.ProfileDir).Msg("watching profiles")
	}

	e := srv.Echo()
	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore opens the configured expanded-state backend. The returned
// function releases it.
func openStore(ctx context.Context, cfg *config.Config) (service.ExpansionStore, func(), error) {
	switch cfg.StateBackend {
	case config.BackendFile:
		s, err := persist.NewFileStore(cfg.StateDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case config.BackendSQLite:
		s, err := persist.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case config.BackendPostgres:
		s, pool, err := persist.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, pool.Close, nil
	default:
		return persist.NewMemoryStore(), func() {}, nil
	}
}
