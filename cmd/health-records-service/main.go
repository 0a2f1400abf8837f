package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"health-records-service/internal/adapters"
	"health-records-service/internal/api/handlers"
	"health-records-service/internal/config"
	"health-records-service/internal/persistence"
	"health-records-service/internal/services"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	ConfigFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "health-records-service",
		Short:         "Offline-first health record versioning service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}
}

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts)
		},
	}
}

func runMigrate(opts *rootOptions) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	db, err := persistence.OpenPostgres(cfg.DatabaseDSN, cfg.Verbose)
	if err != nil {
		return err
	}
	if err := persistence.Migrate(db); err != nil {
		return err
	}

	log.Println("schema migration complete")
	return nil
}

func runServe(opts *rootOptions) error {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return err
	}

	logger := log.New(os.Stdout, "health-records: ", log.LstdFlags)

	db, err := persistence.OpenPostgres(cfg.DatabaseDSN, cfg.Verbose)
	if err != nil {
		return err
	}

	recordRepo := persistence.NewGormHealthRecordRepository(db)
	auditRepo := persistence.NewGormAuditEntryRepository(db)

	var publisher adapters.SyncEventPublisher
	if cfg.PublishesEvents() {
		publisher = adapters.NewKafkaSyncEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		logger.Printf("publishing sync events to kafka topic %q", cfg.KafkaTopic)
	} else {
		publisher = adapters.NewLogSyncEventPublisher(logger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Printf("failed to close sync event publisher: %v", err)
		}
	}()

	recordService := services.NewRecordService(recordRepo, auditRepo, publisher, logger)

	app := fiber.New()
	handler := handlers.NewRecordHandler(recordService, logger)
	handlers.RegisterRecordRoutes(app, handler)

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.ListenAddr)
	}()
	logger.Printf("listening on %s", cfg.ListenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Printf("received %s, shutting down", sig)
		return app.Shutdown()
	}
}
