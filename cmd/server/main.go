package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/riftforge/rift-server-go/internal/catalog"
	"github.com/riftforge/rift-server-go/internal/config"
	"github.com/riftforge/rift-server-go/internal/game"
	"github.com/riftforge/rift-server-go/internal/repository"
	"github.com/riftforge/rift-server-go/internal/server"
)

var (
	configPath = flag.String("config", "", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting rift server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Load the card catalog
	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Fatal("failed to load card catalog",
			zap.String("path", cfg.Catalog.Path),
			zap.Error(err))
	}
	report := cat.Report()
	logger.Info("card catalog loaded",
		zap.Int("cards", report.Loaded),
		zap.Int("rejected", len(report.Rejected)),
		zap.Int("unsupported_clauses", report.UnsupportedCount()),
	)
	if cfg.Catalog.StrictClauses && report.UnsupportedCount() > 0 {
		for _, d := range report.Diagnostics {
			logger.Error("unsupported clause",
				zap.String("card", d.CardName),
				zap.Int("clause", d.ClauseIndex),
				zap.String("text", d.Text))
		}
		logger.Fatal("catalog has unsupported clauses and strict_clauses is set")
	}

	// Initialize the game engine
	engine := game.NewEngine(logger, cat)
	logger.Info("game engine initialized")

	// Attach the replay recorder when a replay directory is configured
	var recorder *game.ReplayRecorder
	if cfg.Replay.Dir != "" {
		recorder = game.NewReplayRecorder(logger, cfg.Replay.Dir)
		engine.SetReplayRecorder(recorder)
		logger.Info("replay recorder initialized",
			zap.String("dir", cfg.Replay.Dir))
	}

	// Connect the optional match store
	var store *repository.Store
	if cfg.Database.DSN != "" {
		store, err = repository.NewStore(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer store.Close()
	} else {
		logger.Info("no database DSN configured; match persistence disabled")
	}

	srv := server.NewServer(cfg, logger, engine, recorder, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	logger.Info("rift server initialized",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.Int("victory_score", cfg.Match.VictoryScore),
		zap.Int("best_of", cfg.Match.BestOf),
	)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	logger.Info("rift server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
