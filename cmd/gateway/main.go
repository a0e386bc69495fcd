package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"room-relay/gateway"
	"room-relay/moderation"
	"room-relay/observability"
	"room-relay/relay"
	"room-relay/runtime"
	"room-relay/runtime/workers"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("config validation error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Core components
	registry := runtime.NewRegistry()
	metrics := observability.NewMetrics(log)

	var moderator *moderation.Moderator
	if config.ModerationEnabled {
		words, err := moderation.LoadWords()
		if err != nil {
			return fmt.Errorf("moderation wordlist error: %w", err)
		}
		moderator, err = moderation.NewModerator(words, config.CharacterRune())
		if err != nil {
			return fmt.Errorf("moderation setup error: %w", err)
		}
	}

	server := gateway.NewServer(log, registry, metrics, moderator, gateway.Options{
		StrictJoin:           config.StrictJoin,
		ConnectionBufferSize: config.ConnectionBufferSize,
		DeliveryTimeout:      config.DeliveryTimeout,
	})

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	if config.RelayAddr != "" {
		bridge := relay.NewBridge(log, config.RelayAddr, config.RelayBufferSize, server.HandleRelayEnvelope)
		server.SetForwarder(bridge)
		sup.Add(bridge)
	} else {
		log.Info("No relay address configured, running as a single node")
	}
	sup.Add(workers.NewStatsReporter(log, config.StatsInterval, server.Stats))

	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()

	// 5. HTTP Server Setup
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.HandleWS)
	mux.HandleFunc("/health", server.HandleHealth)
	mux.HandleFunc("/stats", server.HandleStats)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: mux}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting gateway", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("gateway server error: %w", err)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}
