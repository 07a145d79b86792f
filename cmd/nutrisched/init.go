package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/config"
	"github.com/nutrisched/nutrisched/internal/storage"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a practice directory",
	Long: `Initialize the current directory for nutrisched.

This creates:
  - .nutrisched/ directory
  - .nutrisched/config.yaml (default configuration)
  - .nutrisched/nutrisched.db (SQLite database)

Example:
  cd ~/my-practice
  nutrisched init`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(configPath); err == nil {
			fatal(fmt.Errorf("config already exists at %s", configPath))
		}
		if err := config.SaveDefault(configPath); err != nil {
			fatal(err)
		}

		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}

		// Open and close once to create the schema
		store, err := storage.NewStorage(context.Background(), &storage.Config{Path: cfg.Database.Path})
		if err != nil {
			fatal(fmt.Errorf("failed to initialize database: %w", err))
		}
		_ = store.Close()

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("\n%s Initialized nutrisched\n\n", green("✓"))
		fmt.Printf("  Config:   %s\n", cyan(configPath))
		fmt.Printf("  Database: %s\n", cyan(cfg.Database.Path))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
