// Package app holds the cobra commands behind the tasksync binary.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tasksync/internal/api"
	"tasksync/internal/calendar"
	"tasksync/internal/config"
	"tasksync/internal/planner"
	"tasksync/internal/seed"
	"tasksync/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "tasksync",
	Short: "TaskSync API server",
	Long:  "Task and calendar productivity backend with AI daily-plan generation",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		plan := planner.NewService(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		sync := calendar.NewSyncService(store,
			calendar.NewGoogleProvider(cfg.Google),
			calendar.NewOutlookProvider(cfg.Outlook),
		)

		server := &http.Server{
			Addr:    cfg.ServerAddr(),
			Handler: api.NewRouter(cfg, store, plan, sync),
		}

		errChan := make(chan error, 1)
		go func() {
			log.Printf("Server starting on %s (storage: %s)", cfg.ServerAddr(), cfg.Storage.Driver)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigChan:
			log.Println("Shutting down gracefully...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		case err := <-errChan:
			return err
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Opening a gorm store runs the migration.
		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		defer store.Close()

		log.Printf("Schema up to date (storage: %s)", cfg.Storage.Driver)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo dataset",
	Long:  "Creates a demo user with sample tasks, events, preferences and an AI plan for local showcase",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		store, err := storage.Open(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		if err := seed.Load(context.Background(), store); err != nil {
			return fmt.Errorf("seed failed: %w", err)
		}
		log.Println("Demo data loaded")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
