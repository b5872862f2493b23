package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/pverdier/patrimoine-backend/internal/adapter/ledger"
	"github.com/pverdier/patrimoine-backend/internal/adapter/marketdata"
	"github.com/pverdier/patrimoine-backend/internal/adapter/repository/sqldb"
	"github.com/pverdier/patrimoine-backend/internal/adapter/rest"
	"github.com/pverdier/patrimoine-backend/internal/adapter/snapshot"
	"github.com/pverdier/patrimoine-backend/internal/config"
	"github.com/pverdier/patrimoine-backend/internal/domain"
	"github.com/pverdier/patrimoine-backend/internal/logger"
	"github.com/pverdier/patrimoine-backend/internal/scheduler"
	"github.com/pverdier/patrimoine-backend/internal/usecase/backfill"
	"github.com/pverdier/patrimoine-backend/internal/usecase/pipeline"
	"github.com/pverdier/patrimoine-backend/internal/usecase/valuation"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	_ = godotenv.Load()

	// 1. Load configuration (file, then environment overrides)
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	applyEnvOverrides(cfg)

	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 2. Setup database and repositories
	db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatalw("failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close()

	priceRepo := sqldb.NewPriceRepository(db)
	snapshots := snapshot.NewStore(cfg.Output.Dir, cfg.Output.DetailFile, cfg.Output.TotalsFile)

	// 3. Initialize services (use cases)
	priceSource := marketdata.NewClient(cfg.Prices.BaseURL, time.Duration(cfg.Prices.TimeoutSeconds)*time.Second)
	ledgerLoader := ledger.NewLoader(cfg.Ledger.Sheet)
	pipelineService := pipeline.NewPipelineService(
		ledgerLoader,
		backfill.NewBackfillService(priceRepo, priceSource),
		valuation.NewValuationService(priceRepo),
		snapshots,
	)

	// 4. Schedule the daily pipeline run
	runPipeline := func() {
		if err := pipelineService.Run(context.Background(), cfg.Ledger.Path); err != nil {
			if errors.Is(err, domain.ErrRunInProgress) {
				logger.Warnw("scheduled run skipped, previous run still executing")
				return
			}
			logger.Errorw("pipeline run failed", "error", err)
		}
	}

	sched, err := scheduler.New(cfg.Schedule.Cron, runPipeline)
	if err != nil {
		logger.Fatalw("failed to create scheduler", "cron", cfg.Schedule.Cron, "error", err)
	}
	sched.Start()
	defer sched.Stop()
	logger.Infow("pipeline scheduled", "cron", cfg.Schedule.Cron, "ledger", cfg.Ledger.Path)

	if cfg.Schedule.RunOnStart {
		go runPipeline()
	}

	// 5. Start the read API
	router := rest.NewRouter(rest.NewHandler(snapshots))

	var handler http.Handler
	if len(cfg.Server.CORSOrigins) == 0 {
		handler = cors.AllowAll().Handler(router)
	} else {
		handler = cors.New(cors.Options{AllowedOrigins: cfg.Server.CORSOrigins}).Handler(router)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: handler,
	}

	go func() {
		logger.Infow("read API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalw("failed to serve read API", "error", err)
		}
	}()

	waitForShutdown(server)
}

// applyEnvOverrides lets deployment environments override file settings
// without editing the config (Docker friendly).
func applyEnvOverrides(cfg *config.Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if path := os.Getenv("LEDGER_PATH"); path != "" {
		cfg.Ledger.Path = path
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Infow("shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorw("failed to shut down server cleanly", "error", err)
	}
}
