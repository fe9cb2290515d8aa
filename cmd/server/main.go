package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskhive/internal/api"
	"taskhive/internal/config"
	"taskhive/internal/db"
	"taskhive/internal/logging"
	"taskhive/internal/store"
	"taskhive/pkg/analytics"
	"taskhive/pkg/auth"
)

func main() {
	os.Exit(serve(os.Args[1:]))
}

// serve runs the server and returns the exit code. The logger is synced
// before it returns.
func serve(args []string) int {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("TASKHIVE_CONFIG"), "path to YAML config")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := db.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer backend.Close()

	// Ensure tables exist
	if err := backend.Migrate(ctx); err != nil {
		return err
	}

	events := analytics.Init(cfg.AnalyticsCap)
	client := auth.NewClient(backend.Auth, auth.WithSessionTTL(cfg.SessionTTL))
	st := store.New(backend.Remote,
		store.WithLogger(log),
		store.WithActivityLimit(cfg.ActivityLimit),
		store.WithRefreshInterval(cfg.RefreshInterval),
		store.WithWriteTimeout(cfg.WriteTimeout),
		store.WithAnalytics(events),
	)
	defer st.Close()

	g, gctx := errgroup.WithContext(ctx)
	server := &http.Server{
		Addr: cfg.HTTP.Address,
		// Streams end when shutdown starts.
		BaseContext: func(net.Listener) context.Context { return gctx },
		Handler: api.New(st, client,
			api.WithLogger(log),
			api.WithPing(backend.Ping),
			api.WithAnalytics(events),
		),
	}

	g.Go(func() error {
		st.WatchSession(gctx, client)
		return nil
	})
	g.Go(func() error {
		log.Info("taskhive listening", zap.String("addr", cfg.HTTP.Address), zap.String("backend", cfg.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
