package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/nutrisched/nutrisched/internal/api"
	"github.com/nutrisched/nutrisched/internal/logging"
	"github.com/nutrisched/nutrisched/internal/scheduler"
	"github.com/nutrisched/nutrisched/internal/storage"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduling HTTP API",
	Long: `Run the scheduling HTTP API.

The server exposes purchases, phases, and chain views under /v1 and stops
gracefully on SIGINT or SIGTERM.

Example:
  nutrisched serve
  nutrisched serve --addr 0.0.0.0:9090`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fatal(err)
		}
		if serveAddr != "" {
			cfg.Server.ListenAddr = serveAddr
		}

		logger := logging.New(cfg.Logging)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.Database.Path})
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		server := api.NewServer(scheduler.New(store), cfg.Server, logger)

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Serving on http://%s\n", green("✓"), cfg.Server.ListenAddr)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(server.ListenAndServe)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		})

		if err := g.Wait(); err != nil {
			fatal(err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
