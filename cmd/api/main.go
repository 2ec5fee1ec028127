package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/frontdesk/cmd/mainconfig"
	"github.com/wolfman30/frontdesk/internal/api/router"
	"github.com/wolfman30/frontdesk/internal/app/bootstrap"
	appconfig "github.com/wolfman30/frontdesk/internal/config"
	"github.com/wolfman30/frontdesk/internal/conversation"
	"github.com/wolfman30/frontdesk/internal/leads"
	"github.com/wolfman30/frontdesk/internal/observability/metrics"
	"github.com/wolfman30/frontdesk/pkg/logging"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting frontdesk API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"lead_store", cfg.LeadStore,
		"llm_provider", cfg.LLMProvider,
	)

	ctx := context.Background()
	handler, cleanup, err := buildHandler(ctx, cfg, loadAWS(ctx, cfg, logger), logger)
	if err != nil {
		logger.Error("failed to initialize API", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create HTTP server. Model calls can take a while, so writes get more
	// room than reads.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// loadAWS returns nil when the SDK config cannot be built; bedrock, SES and
// the archive then report themselves unconfigured.
func loadAWS(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *aws.Config {
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Warn("failed to load AWS config", "error", err)
		return nil
	}
	return &awsCfg
}

func setupMetrics() (http.Handler, *metrics.BridgeMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewBridgeMetrics(reg)
}

// buildHandler wires store, bridge and notifications behind the router.
// The returned cleanup releases store connections.
func buildHandler(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (http.Handler, func(), error) {
	metricsHandler, bridgeMetrics := setupMetrics()

	repo, closeRepo, err := bootstrap.BuildLeadRepository(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	conductor, err := bootstrap.BuildConductor(ctx, cfg, awsCfg, bridgeMetrics, logger)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	sender := bootstrap.BuildEmailSender(cfg, awsCfg, logger)
	archive := bootstrap.BuildArchiveStore(cfg, awsCfg, logger)
	confirmer, err := bootstrap.BuildConfirmer(cfg, sender, archive, bridgeMetrics, logger)
	if err != nil {
		closeRepo()
		return nil, nil, err
	}

	desk := conversation.NewFrontDesk(repo, conductor, confirmer, logger)
	return router.New(&router.Config{
		Logger:              logger,
		LeadsHandler:        leads.NewHandler(repo, logger),
		ConversationHandler: conversation.NewHandler(desk, logger),
		MetricsHandler:      metricsHandler,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		AdminAuthSecret:     cfg.AdminJWTSecret,
		RateLimitRPS:        cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}), closeRepo, nil
}
