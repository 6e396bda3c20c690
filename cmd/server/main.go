package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"member-hub/identity"
	"member-hub/infrastructure/rest"
	"member-hub/internal"
	"member-hub/repositories"
	"member-hub/runtime"
	"member-hub/services"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/shirou/gopsutil/process"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting so every defer executes before the process
// exits.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Stores (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	searchWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = searchWriter.Close()
	}()

	// 3. Repositories & Services
	hub := runtime.NewHub()
	conversationRepo := repositories.NewConversationRepository(db, log, hub)
	messageRepo := repositories.NewMessageRepository(db, searchWriter, log, hub, config.LimitMessages, config.SearchBatchSize)
	notificationRepo := repositories.NewNotificationRepository(db, log, hub)
	profileRepo := repositories.NewProfileRepository(db)

	directory := identity.NewHTTPDirectoryClient(config.DirectoryBaseURL, config.DirectoryTimeout)
	chain := identity.NewChain(log,
		identity.NewProfileStoreResolver(profileRepo),
		identity.NewDirectoryResolver(directory),
	)

	conversations := services.NewConversationService(log, conversationRepo, hub)
	messages := services.NewMessageService(log, messageRepo, hub)
	feed := services.NewFeedService(log, conversations, chain)
	notifications := services.NewNotificationService(log, notificationRepo, hub)
	badges := services.NewBadgeService(conversationRepo, notificationRepo)

	server := rest.NewServer(log, conversations, messages, feed, notifications, badges)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reportSelfStats(ctx, log, config.MetricInterval)

	// 5. HTTP Server
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: server.Router(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 6. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 7. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "err", err)
	}
	if err := messageRepo.Flush(); err != nil {
		log.Warn("Search index flush failed", "err", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}

// reportSelfStats periodically logs the process's own resource usage.
func reportSelfStats(ctx context.Context, log *slog.Logger, interval time.Duration) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Warn("Self stats unavailable", "err", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			memInfo, err := p.MemoryInfo()
			if err != nil {
				log.Warn("Failed to collect self stats", "err", err)
				continue
			}
			cpuPercent, _ := p.CPUPercent()
			log.Info("Self stats", "ram_bytes", memInfo.RSS, "cpu_percent", cpuPercent)
		}
	}
}
