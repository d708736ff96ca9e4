package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/laala-payout-service/internal/api"
	apiservice "github.com/laala-payout-service/internal/api/service"
	"github.com/laala-payout-service/internal/config"
	"github.com/laala-payout-service/internal/data/mongo"
	"github.com/laala-payout-service/internal/data/postgres"
	"github.com/laala-payout-service/internal/logger"
	"github.com/laala-payout-service/internal/payout_processor/outbox_poller"
	processorservice "github.com/laala-payout-service/internal/payout_processor/service"
	"github.com/laala-payout-service/internal/payout_processor/sweeper"
	"github.com/laala-payout-service/internal/platform/messaging/producers"
	"github.com/laala-payout-service/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("payout_service")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Payout Service",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for payout lifecycle events
	eventProducer, err := producers.NewPayoutEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payout event producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(log, postgresDB)
	balanceRepo := postgres.NewBalanceRepository(log, postgresDB)
	withdrawalRepo := postgres.NewWithdrawalRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	ledgerRepo := mongo.NewLedgerRepository(log, mongoDB.Database())

	// Initialize the processing service behind a bounded worker pool
	baseProcessing := processorservice.NewProcessingService(log, postgresDB, withdrawalRepo, balanceRepo, outboxRepo)
	processingService, err := processorservice.NewWorkerPoolProcessingService(
		baseProcessing,
		processorservice.WorkerPoolConfig{Size: cfg.WorkerPool.Size},
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize the withdrawal sweeper
	withdrawalSweeper := sweeper.NewSweeper(&cfg.Withdrawal, withdrawalRepo, processingService, log)

	// Initialize the outbox poller
	ledgerPublisher := outbox_poller.NewLedgerPublisher(outboxRepo, ledgerRepo, eventProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, ledgerPublisher, log)

	// Initialize API services
	authService := apiservice.NewAuthService(log, postgresDB, userRepo, balanceRepo, &cfg.JWT)
	balanceService := apiservice.NewBalanceService(log, postgresDB, balanceRepo, outboxRepo)
	withdrawalService := apiservice.NewWithdrawalService(log, postgresDB, withdrawalRepo, balanceRepo, &cfg.Withdrawal)
	ledgerService := apiservice.NewLedgerService(log, ledgerRepo)

	// Initialize REST server
	server := api.NewServer(log, cfg, authService, balanceService, withdrawalService, ledgerService, withdrawalSweeper)
	log.Info("REST server initialized")

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for the background loops
	var wg sync.WaitGroup

	// Start the withdrawal sweeper in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		withdrawalSweeper.Start(appCtx)
	}()

	// Start the outbox poller in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context to stop the background loops
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new work arrives
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Wait for the background loops to finish
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("Background loops stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Drain the worker pool
	processingService.Shutdown()

	// Close Kafka producer
	if err = eventProducer.Close(); err != nil {
		log.Error("Error closing payout event producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Payout Service shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Payout Service shutdown completed with errors")
	} else {
		log.Info("Payout Service shutdown completed successfully")
	}
}
