package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/mcdev12/planningpoker/go/internal/config"
	"github.com/mcdev12/planningpoker/go/internal/dbconfig"
	"github.com/mcdev12/planningpoker/go/internal/eventbus"
	"github.com/mcdev12/planningpoker/go/internal/gateway"
	"github.com/mcdev12/planningpoker/go/internal/history"
	"github.com/mcdev12/planningpoker/go/internal/roomapi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	cardSets, err := cfg.CardSets()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid card sets")
	}

	// Background workers outlive the gateway so they see its final events
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var workers sync.WaitGroup
	runWorker := func(start func(context.Context)) {
		workers.Add(1)
		go func() {
			defer workers.Done()
			start(ctx)
		}()
	}

	opts := []gateway.Option{gateway.WithCardSets(cardSets)}
	var sources gateway.HealthSources

	// Optional NATS mirror of room events
	if cfg.NATSURL != "" {
		busConfig := eventbus.DefaultConfig()
		busConfig.URL = cfg.NATSURL
		busConfig.SubjectPrefix = cfg.NATSSubjectPrefix

		mirror, err := eventbus.Connect(busConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to NATS")
		}
		runWorker(mirror.Start)

		opts = append(opts, gateway.WithMirror(mirror))
		sources.Mirror = mirror
	}

	// Round history
	if cfg.HistoryEnabled {
		repo, db := setupHistory(ctx, cfg)
		if db != nil {
			defer db.Close()
			sources.DB = db
		}

		recorder := history.NewRecorder(repo, history.DefaultRecorderConfig())
		runWorker(recorder.Start)

		opts = append(opts, gateway.WithRoundHistory(recorder, repo))
		sources.Recorder = recorder
	}

	log.Info().
		Str("port", cfg.Port).
		Bool("nats_mirror", cfg.NATSURL != "").
		Bool("history", cfg.HistoryEnabled).
		Str("history_store", cfg.HistoryStore).
		Dur("room_idle_timeout", cfg.RoomIdleTimeout).
		Msg("starting planning poker gateway")

	// Create gateway service
	gatewayService := gateway.NewService(gateway.Config{
		ConnectionConfig: cfg.ConnectionConfig(),
		PublicURL:        cfg.PublicURL,
		IdleTimeout:      cfg.RoomIdleTimeout,
		RoomListing:      cfg.RoomListing,
	}, opts...)

	// Setup HTTP server
	mux := http.NewServeMux()

	// Register gateway routes (WebSocket and REST)
	gatewayService.RegisterRoutes(mux)

	// Connect API over the same rooms
	roomapi.RegisterRoutes(mux, roomapi.NewService(gatewayService.Manager(), roomapi.WithListing(cfg.RoomListing)))

	// Health and metrics
	gateway.NewHealthChecker(gatewayService, sources).RegisterRoutes(mux)

	// Add service info
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		stats := gatewayService.GetStats()
		stats["version"] = "1.0.0"
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			log.Error().Err(err).Msg("failed to encode service info")
		}
	})

	handler := gateway.CORSMiddleware(cfg.AllowedOrigins, mux)

	server := &http.Server{
		Addr: fmt.Sprintf(":%s", cfg.Port),
		// h2c serves the Connect API's gRPC clients without TLS
		Handler:      h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start gateway service (connection manager and idle reaper)
	gatewayCtx, gatewayCancel := context.WithCancel(context.Background())
	defer gatewayCancel()
	gatewayDone := make(chan struct{})
	go func() {
		defer close(gatewayDone)
		if err := gatewayService.Start(gatewayCtx); err != nil {
			log.Error().Err(err).Msg("gateway service failed")
		}
	}()

	// Start HTTP server
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Close every connection first; Start returns once their disconnects are published
	gatewayCancel()
	select {
	case <-gatewayDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("gateway did not stop before the shutdown deadline")
	}

	// Then let the recorder and mirror drain what the gateway left behind
	cancel()
	workersDone := make(chan struct{})
	go func() {
		workers.Wait()
		close(workersDone)
	}()
	select {
	case <-workersDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("background workers did not drain before the shutdown deadline")
	}

	log.Info().Msg("planning poker gateway shutdown complete")
}

// setupHistory opens the configured round store. The database is nil for the memory store.
func setupHistory(ctx context.Context, cfg *config.Config) (history.Repository, *sql.DB) {
	if cfg.HistoryStore != config.HistoryStorePostgres {
		return history.NewMemoryRepository(0), nil
	}

	dbCfg := dbconfig.NewConfigFromEnv()

	// Connect to database
	db, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Str("database", dbCfg.Redacted()).Msg("failed to ping database")
	}

	repo := history.NewPostgresRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create round history schema")
	}

	log.Info().Str("database", dbCfg.Redacted()).Msg("round history stored in postgres")
	return repo, db
}
