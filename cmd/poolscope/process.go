package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/pipeline"
	"poolScope/internal/pricing"
	"poolScope/internal/stats"
	"poolScope/internal/storage"
	"poolScope/internal/storage/postgres"
	"poolScope/internal/tokenmeta"
)

func runProcess(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadProcess(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.StateFile != "" && cfg.PGDSN == "" {
		return fmt.Errorf("state-file requires pg-dsn")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store      storage.Store
		checkpoint pipeline.Checkpoint
	)
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return err
		}
		store = pg
		if cfg.StateFile != "" {
			checkpoint = &pipeline.FileCheckpoint{Path: cfg.StateFile}
		} else {
			checkpoint = &pipeline.StoreCheckpoint{Store: pg, Name: "process"}
		}
	} else {
		store = storage.NewMemory()
	}

	meta := tokenmeta.NewFetcher(tokenmeta.RetryPolicy{
		MaxRetries: cfg.Engine.MetadataRetries,
		BaseDelay:  cfg.Engine.MetadataRetryBackoff,
	}, logger)

	runnerCfg := pipeline.RunnerConfig{ReprocessFrom: cfg.ReprocessFrom, Checkpoint: checkpoint}
	if cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()

		chainID, err := chainClient.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("fetch chain id: %w", err)
		}
		meta.Register(chainID, tokenmeta.NewERC20Source(chainClient, logger))
		runnerCfg.Clock = chainClient
	} else {
		logger.Warn("no rpc configured, token metadata is limited to native assets")
	}

	pricingEngine := pricing.NewEngine(pricing.Thresholds{
		OutlierPercent:         cfg.Engine.OutlierThresholdPercent,
		MaxTVLImbalancePercent: cfg.Engine.MaxTVLImbalancePercent,
	}, logger)
	statsEngine := stats.NewEngine(store, statsConfig(cfg.Engine), logger)

	runner := pipeline.NewRunner(runnerCfg,
		cfg.Networks,
		pipeline.NewProcessor(store, meta, pricingEngine, statsEngine, logger),
		pipeline.NewSweeper(store, statsEngine, logger),
		logger,
	)

	logger.Info("process start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("state_file", cfg.StateFile),
		zap.Uint64("reprocess_from", cfg.ReprocessFrom),
	)

	_, err = runner.Run(ctx, cfg.Input)
	return err
}

func statsConfig(engine config.EngineConfig) stats.Config {
	return stats.Config{
		MaxEventAge:     engine.StatsMaxEventAge,
		RefreshInterval: engine.StatsRefreshInterval,
	}
}
