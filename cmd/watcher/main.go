package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Catorpilor/fresh-market-watcher/internal/cache"
	"github.com/Catorpilor/fresh-market-watcher/internal/chain"
	"github.com/Catorpilor/fresh-market-watcher/internal/config"
	"github.com/Catorpilor/fresh-market-watcher/internal/scan"
	"github.com/Catorpilor/fresh-market-watcher/internal/server"
	"github.com/Catorpilor/fresh-market-watcher/internal/storage"
	"github.com/Catorpilor/fresh-market-watcher/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "watcher",
		Short:        "Fresh AMM pool watcher",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a chain once for freshly created pools",
		RunE:  runScan,
	}
	addPipelineFlags(scanCmd)
	scanCmd.Flags().String("out", "", "optional JSONL output path for enriched pools")
	scanCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for snapshot export")
	root.AddCommand(scanCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan pipeline over HTTP",
		RunE:  runServe,
	}
	addPipelineFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("cache-ttl", 60*time.Second, "result cache TTL")
	serveCmd.Flags().Duration("cache-sweep", 30*time.Second, "result cache sweep interval")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().String("chain", "ethereum", "chain identifier")
	cmd.Flags().String("rpc", "", "RPC URL override (default comes from the chain registry)")
	cmd.Flags().StringSlice("factory", nil, "factory contract addresses (comma-separated)")
	cmd.Flags().Int("window", 60, "scan window in minutes (1-1440)")
	cmd.Flags().Int("top-holders", 5, "holder ranking limit")
	cmd.Flags().Uint64("log-batch-size", 5000, "blocks per getLogs call")
	cmd.Flags().Uint64("liquidity-window", 10, "blocks past creation to look for the first mint")
	cmd.Flags().Uint64("holder-max-blocks", 1000, "transfer replay window in blocks")
	cmd.Flags().Duration("pool-delay", 100*time.Millisecond, "delay between per-pool enrichments")
	cmd.Flags().Duration("token-delay", 50*time.Millisecond, "delay between token metadata fetches")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := newPipeline(cfg, nil, logger, nil)

	result := pipeline.Run(ctx, scan.Request{
		Chain:         cfg.Chain,
		Factories:     cfg.Factories,
		WindowMinutes: cfg.WindowMinutes,
		RPCURL:        cfg.RPCURL,
	})

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	fmt.Println(string(encoded))

	if !result.Success {
		return fmt.Errorf("scan failed: %s", result.Error)
	}

	if cfg.Out != "" {
		var sink storage.ReportSink = storage.NewJsonlSink(cfg.Out)
		if err := sink.PutPools(result.Pools); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("report written", zap.String("out", cfg.Out), zap.Int("pools", len(result.Pools)))
	}

	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.UpsertDiscoveries(ctx, cfg.Chain, result.Pools); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		logger.Info("snapshot exported", zap.Int("pools", len(result.Pools)))
	}

	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics := scan.NewMetrics(registry)
	results := cache.New(cfg.CacheTTL, cfg.CacheSweep)
	pipeline := newPipeline(cfg, results, logger, metrics)

	router := server.NewRouter(server.NewHandler(pipeline, logger), registry)
	srv := &http.Server{Addr: cfg.Listen, Handler: router}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server start", zap.String("listen", cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newPipeline(cfg config.Config, results *cache.ResultCache, logger *zap.Logger, metrics *scan.Metrics) *scan.Pipeline {
	return scan.NewPipeline(scan.Config{
		LogBatchSize:    cfg.LogBatchSize,
		LiquidityWindow: cfg.LiquidityWindow,
		HolderMaxBlocks: cfg.HolderMaxBlocks,
		TopHolders:      cfg.TopHolders,
		PoolDelay:       cfg.PoolDelay,
		TokenDelay:      cfg.TokenDelay,
	}, chain.NewRegistry(), results, logger, metrics, nil)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
