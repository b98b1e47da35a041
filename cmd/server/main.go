// Package main is the entry point for the portfolio ledger and valuation
// service. It wires the transaction ledger, holdings cache, valuation engine,
// rebalancing advisor, and performance recorder behind one HTTP API, with
// scheduled snapshot and backup jobs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/DavaStrava/AIStockPredictions-sub002/internal/clients/fmp"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/config"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/database"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings"
	holdingshandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/holdings/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/ledger"
	ledgerhandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/ledger/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/performance"
	performancehandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/performance/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/portfolio"
	portfoliohandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/portfolio/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/rebalancing"
	rebalancinghandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/rebalancing/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation"
	valuationhandlers "github.com/DavaStrava/AIStockPredictions-sub002/internal/modules/valuation/handlers"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/reliability"
	"github.com/DavaStrava/AIStockPredictions-sub002/internal/server"
	"github.com/DavaStrava/AIStockPredictions-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting portfolio service")

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	// The ledger profile syncs every write; the transactions table is the
	// source of truth and cannot afford a torn commit.
	db, err := database.New(database.Config{
		Path:    cfg.DatabasePath(),
		Profile: database.ProfileLedger,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	marketData := fmp.New(cfg.FMPBaseURL, cfg.FMPAPIKey, log)

	// Repositories
	portfolioRepo := portfolio.NewRepository(db.Conn(), log)
	ledgerRepo := ledger.NewRepository(db.Conn(), log)
	holdingsRepo := holdings.NewRepository(db.Conn(), log)
	performanceRepo := performance.NewRepository(db.Conn(), log)

	// Services
	portfolioService := portfolio.NewService(db.Conn(), portfolioRepo, log)
	recalculator := holdings.NewRecalculator(holdingsRepo, marketData, log)
	processor := ledger.NewProcessor(db.Conn(), ledgerRepo, recalculator, log)
	holdingsService := holdings.NewService(db.Conn(), holdingsRepo, recalculator, ledgerRepo, log)
	valuationService := valuation.NewService(holdingsService, ledgerRepo, marketData, cfg.SP500Symbol, log)
	advisor := rebalancing.NewAdvisor(valuationService, log)
	recorder := performance.NewRecorder(performanceRepo, valuationService, portfolioRepo, marketData,
		cfg.SP500Symbol, cfg.NasdaqSymbol, log)

	srv := server.New(server.Config{
		Log:                log,
		DB:                 db,
		Port:               cfg.Port,
		DevMode:            cfg.DevMode,
		PortfolioHandler:   portfoliohandlers.NewHandler(portfolioService, log),
		LedgerHandler:      ledgerhandlers.NewHandler(processor, ledgerRepo, log),
		HoldingsHandler:    holdingshandlers.NewHandler(holdingsService, log),
		ValuationHandler:   valuationhandlers.NewHandler(valuationService, log),
		RebalancingHandler: rebalancinghandlers.NewHandler(advisor, log),
		PerformanceHandler: performancehandlers.NewHandler(recorder, log),
	})

	// Scheduled jobs
	scheduler := cron.New()

	if _, err := scheduler.AddFunc(cfg.SnapshotSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := recorder.RecordAll(ctx); err != nil {
			log.Error().Err(err).Msg("Scheduled snapshot run failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SnapshotSchedule).Msg("Invalid snapshot schedule")
	}

	if cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), reliability.S3Config{
			Bucket:    cfg.Backup.Bucket,
			Region:    cfg.Backup.Region,
			Endpoint:  cfg.Backup.Endpoint,
			AccessKey: cfg.Backup.AccessKey,
			SecretKey: cfg.Backup.SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create backup client")
		}

		backupService := reliability.NewBackupService(db, s3Client, cfg.DataDir, log)

		if _, err := scheduler.AddFunc(cfg.Backup.Schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			if err := backupService.CreateAndUploadBackup(ctx); err != nil {
				log.Error().Err(err).Msg("Scheduled backup failed")
				return
			}
			if err := backupService.RotateOldBackups(ctx, 30); err != nil {
				log.Error().Err(err).Msg("Backup rotation failed")
			}
		}); err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Backup.Schedule).Msg("Invalid backup schedule")
		}

		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backups enabled")
	}

	scheduler.Start()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	cronCtx := scheduler.Stop()
	<-cronCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	if err := db.WALCheckpoint("TRUNCATE"); err != nil {
		log.Warn().Err(err).Msg("Final WAL checkpoint failed")
	}

	log.Info().Msg("Shutdown complete")
}
