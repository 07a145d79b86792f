// nutrisched is a meal-plan scheduling tool for dietitian practices: it
// tracks purchased day allowances and manages plan phases with pause,
// freeze, and extend support.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/config"
	"github.com/nutrisched/nutrisched/internal/scheduler"
	"github.com/nutrisched/nutrisched/internal/storage"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "nutrisched",
	Short: "Meal-plan scheduling for dietitian practices",
	Long: `nutrisched manages client meal-plan schedules.

Clients purchase day allowances, and plan phases are scheduled against
those allowances as contiguous date ranges. Phases can be paused, frozen
day by day, extended to new start dates (re-dating the rest of the chain),
and cancelled.

Run 'nutrisched init' in a practice directory to get started.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
}

func defaultConfigPath() string {
	if p := os.Getenv("NUTRISCHED_CONFIG"); p != "" {
		return p
	}
	return ".nutrisched/config.yaml"
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}
	return cfg, nil
}

// openScheduler opens storage per the config and wraps it in a scheduler.
// The caller must close the returned storage.
func openScheduler(ctx context.Context) (*scheduler.Scheduler, storage.Storage, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.Database.Path})
	if err != nil {
		return nil, nil, err
	}
	return scheduler.New(store), store, nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
