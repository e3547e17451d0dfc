package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tributa/internal/config"
	"tributa/internal/handler"
	"tributa/internal/logging"
	"tributa/internal/port"
	"tributa/internal/reform"
	"tributa/internal/repository/postgres"
	"tributa/internal/router"
	"tributa/internal/service"
	"tributa/internal/sped"
	"tributa/internal/tax"
	"tributa/internal/validator"
)

const shutdownTimeout = 20 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log, cfg.Server.Environment)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	matrixRepo := postgres.NewTaxMatrixRepo(db)
	spedReader := postgres.NewSpedDataReader(db)
	var reformRates port.ReformRateReader = reform.DefaultTable()
	if cfg.Reform.RateSource == "database" {
		reformRates = postgres.NewReformRateRepo(db)
	}

	// Initialize calculators
	rates, err := cfg.Tax.ContributionRates()
	if err != nil {
		return fmt.Errorf("invalid contribution rates: %w", err)
	}
	taxCalc, err := tax.NewCalculator(rates)
	if err != nil {
		return fmt.Errorf("failed to build tax calculator: %w", err)
	}
	reformCalc := reform.NewCalculator(reformRates, taxCalc)
	engine := validator.NewEngine(validator.NewBuiltinRegistry(), logger)
	generator := sped.NewGenerator(spedReader,
		sped.WithVersion(sped.VariantICMSIPI, cfg.Sped.ICMSIPIVersion),
		sped.WithVersion(sped.VariantContributions, cfg.Sped.ContributionsVersion),
		sped.WithVersion(sped.VariantCorporate, cfg.Sped.CorporateVersion),
		sped.WithLogger(logger),
	)

	// Initialize services
	taxSvc := service.NewTaxService(taxCalc, matrixRepo, logger)
	reformSvc := service.NewReformService(reformCalc, logger)
	documentSvc := service.NewDocumentService(taxCalc, engine, logger)
	spedSvc := service.NewSpedService(generator, cfg.Sped.Timeout)

	// Initialize handlers
	taxH := handler.NewTaxHandler(taxSvc)
	reformH := handler.NewReformHandler(reformSvc)
	documentH := handler.NewDocumentHandler(documentSvc)
	spedH := handler.NewSpedHandler(spedSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(logger, cfg.CORS.AllowedOrigins, taxH, reformH, documentH, spedH, healthH)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Port),
			zap.String("reform_rate_source", cfg.Reform.RateSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
