// Package db opens the configured backend and hands out the record stores the
// sync store and auth client run against.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"taskhive/internal/config"
	"taskhive/internal/localdb"
	"taskhive/internal/store"
	"taskhive/pkg/activity"
	"taskhive/pkg/auth"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

// Backend is an open database with its stores.
type Backend struct {
	Remote store.Remote
	Auth   auth.Store

	ping  func(context.Context) error
	close func()
}

// Connect opens a pgx pool and verifies it answers.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// Open connects to the backend named by cfg.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Backend, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		pool, err := Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("connected", zap.String("backend", cfg.Backend))
		return &Backend{
			Remote: store.Remote{
				Projects:   project.NewPgStore(pool),
				Tasks:      task.NewPgStore(pool),
				SubTasks:   subtask.NewPgStore(pool),
				Activities: activity.NewPgStore(pool),
				Profiles:   profile.NewPgStore(pool),
			},
			Auth:  auth.NewPgStore(pool),
			ping:  pool.Ping,
			close: pool.Close,
		}, nil

	case config.BackendSQLite:
		ldb, err := localdb.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info("connected", zap.String("backend", cfg.Backend), zap.String("path", cfg.SQLitePath))
		return &Backend{
			Remote: store.Remote{
				Projects:   ldb.Projects(),
				Tasks:      ldb.Tasks(),
				SubTasks:   ldb.SubTasks(),
				Activities: ldb.Activities(),
				Profiles:   ldb.Profiles(),
			},
			Auth:  ldb.Auth(),
			ping:  ldb.Ping,
			close: func() { ldb.Close() },
		}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// Migrate creates every table. Parents go before the tables referencing them.
func (b *Backend) Migrate(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"projects", b.Remote.Projects.EnsureTable},
		{"tasks", b.Remote.Tasks.EnsureTable},
		{"sub_tasks", b.Remote.SubTasks.EnsureTable},
		{"activities", b.Remote.Activities.EnsureTable},
		{"user_profiles", b.Remote.Profiles.EnsureTable},
		{"auth", b.Auth.EnsureTable},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("ensure %s table: %w", step.name, err)
		}
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error { return b.ping(ctx) }

func (b *Backend) Close() { b.close() }
