package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"taskhive/internal/config"
	"taskhive/internal/db"
	"taskhive/internal/logging"
	"taskhive/internal/store"
)

var Version = "dev"

var (
	configPath string
	jsonOutput bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hive",
		Short:         "TaskHive administration and terminal views",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("TASKHIVE_CONFIG"), "path to YAML config")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of rendered output")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(boardCmd())
	rootCmd.AddCommand(activityCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// env is what every data command needs.
type env struct {
	cfg     config.Config
	log     *zap.Logger
	backend *db.Backend
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	backend, err := db.Open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if err := backend.Migrate(ctx); err != nil {
		backend.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, backend: backend}, nil
}

func (e *env) Close() {
	e.backend.Close()
	_ = e.log.Sync()
}

// loadStore reads every collection into a store with the refresher off.
func (e *env) loadStore(ctx context.Context) *store.Store {
	st := store.New(e.backend.Remote,
		store.WithLogger(e.log),
		store.WithRefreshInterval(0),
		store.WithActivityLimit(e.cfg.ActivityLimit),
	)
	st.LoadAll(ctx)
	return st
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
