package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"poolScope/internal/chain"
	"poolScope/internal/config"
	"poolScope/internal/pipeline"
	"poolScope/internal/stats"
	"poolScope/internal/storage/postgres"
)

func runSweep(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSweep(cfgFile, cmd.Flags())
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

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("fetch chain id: %w", err)
	}
	n, err := cfg.Networks.Get(chainID)
	if err != nil {
		return err
	}

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	sweeper := pipeline.NewSweeper(store, stats.NewEngine(store, statsConfig(cfg.Engine), logger), logger)
	sweepHead := func(ctx context.Context) error {
		block, ts, err := chainClient.Head(ctx)
		if err != nil {
			return err
		}
		res, err := sweeper.Sweep(ctx, n, block, int64(ts))
		if err != nil {
			return err
		}
		logger.Info("sweep complete",
			zap.Uint64("chain_id", n.ChainID),
			zap.Uint64("block", block),
			zap.Int("visited", res.Visited),
			zap.Int("retired", res.Retired),
			zap.Int("refreshed", res.Refreshed),
		)
		return nil
	}

	logger.Info("sweep start",
		zap.Uint64("chain_id", n.ChainID),
		zap.String("network", n.Name),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("schedule", cfg.Schedule),
	)

	if cfg.Schedule == "" {
		return sweepHead(ctx)
	}

	c := cron.New(cron.WithSeconds(), cron.WithChain(
		cron.SkipIfStillRunning(cronLogger{logger.Sugar()}),
		cron.Recover(cronLogger{logger.Sugar()}),
	))
	if _, err := c.AddFunc(cfg.Schedule, func() {
		if err := sweepHead(ctx); err != nil {
			logger.Error("sweep failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", cfg.Schedule, err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// cronLogger routes scheduler logs through zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
