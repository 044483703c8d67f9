package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mselser95/polymarket-arb/internal/coordinator"
	"github.com/mselser95/polymarket-arb/internal/markets"
	"github.com/mselser95/polymarket-arb/internal/persistence"
	"github.com/mselser95/polymarket-arb/internal/streamclient"
	"github.com/mselser95/polymarket-arb/pkg/cache"
	"github.com/mselser95/polymarket-arb/pkg/config"
	"github.com/mselser95/polymarket-arb/pkg/healthprobe"
	"github.com/mselser95/polymarket-arb/pkg/httpserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch the configured market basket for arbitrage",
	Long: `Starts the basket watcher, which will:
1. Resolve each configured market id's YES/NO asset ids from the Gamma API
2. Subscribe to their order books over the CLOB WebSocket feed
3. Evaluate the basket's combined YES ask against the configured threshold
4. Paper-trade the open/close transitions and persist signals and PnL`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	marketCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     1 << 20,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("create market cache: %w", err)
	}
	defer marketCache.Close()

	resolver := markets.New(markets.Config{
		BaseURL: cfg.GammaAPIURL,
		Cache:   marketCache,
		Logger:  logger,
	})

	resolveCtx, resolveCancel := context.WithTimeout(ctx, 30*time.Second)
	descriptors, err := resolver.ResolveAll(resolveCtx, cfg.MarketIDs)
	resolveCancel()
	if err != nil {
		return fmt.Errorf("resolve market metadata: %w", err)
	}

	projector, err := newProjector(cfg, logger)
	if err != nil {
		return fmt.Errorf("create persistence projector: %w", err)
	}
	defer func() {
		if err := projector.Close(); err != nil {
			logger.Warn("projector-close-failed", zap.Error(err))
		}
	}()

	var auth *streamclient.Auth
	if cfg.PolymarketAPIKey != "" || cfg.PolymarketSecret != "" || cfg.PolymarketPass != "" {
		auth = &streamclient.Auth{
			APIKey:     cfg.PolymarketAPIKey,
			Secret:     cfg.PolymarketSecret,
			Passphrase: cfg.PolymarketPass,
		}
	}

	coord := coordinator.New(coordinator.Config{
		EventID:        cfg.EventID,
		Markets:        descriptors,
		Threshold:      cfg.Threshold,
		Qty:            cfg.Qty,
		FeeRate:        cfg.FeeRate,
		FixedFeePerLeg: cfg.FixedFeePerLeg,
		StreamURL:      cfg.WSURL,
		PingInterval:   cfg.PingIntervalS,
		RecvTimeout:    cfg.RecvTimeoutS,
		Auth:           auth,
		PrintInterval:  cfg.PrintIntervalS,
		ReconnectDelay: cfg.ReconnectDelayS,
		DBInterval:     cfg.DBIntervalS,
		WriteTicks:     cfg.WriteTicks,
		Projector:      projector,
		Logger:         logger,
	})

	healthChecker := healthprobe.New()
	server := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Coordinator:   coord,
	})

	serverErrc := make(chan error, 1)
	go func() {
		serverErrc <- server.Start()
	}()

	coordErrc := make(chan error, 1)
	go func() {
		coordErrc <- coord.Run(ctx)
	}()

	healthChecker.SetReady(true)
	logger.Info("basket-watcher-ready",
		zap.Int64("event-id", cfg.EventID),
		zap.Int("market-count", len(descriptors)),
		zap.String("http-addr", ":"+cfg.HTTPPort))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	coordinatorExited := false
	select {
	case sig := <-sigChan:
		logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case err := <-serverErrc:
		if err != nil {
			logger.Error("http-server-error", zap.Error(err))
		}
	case err := <-coordErrc:
		coordinatorExited = true
		if err != nil {
			logger.Error("coordinator-error", zap.Error(err))
		}
	}

	healthChecker.SetReady(false)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http-server-shutdown-error", zap.Error(err))
	}

	if !coordinatorExited {
		<-coordErrc
	}
	logger.Info("basket-watcher-shutdown-complete")

	return nil
}

func newProjector(cfg *config.Config, logger *zap.Logger) (persistence.Projector, error) {
	if !cfg.WriteDB {
		return persistence.NewConsole(logger), nil
	}

	return persistence.NewPostgres(persistence.PostgresConfig{
		DatabaseURL: cfg.DatabaseURL,
		Logger:      logger,
	})
}
