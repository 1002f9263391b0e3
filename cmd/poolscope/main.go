package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "poolscope",
		Short:        "DEX pool price discovery and windowed stats",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	processCmd := &cobra.Command{
		Use:   "process",
		Short: "Apply typed pool events to the entity store",
		RunE:  runProcess,
	}

	processCmd.Flags().String("rpc", "", "RPC URL for token metadata and block timestamps")
	processCmd.Flags().String("in", "", "input typed events JSONL")
	processCmd.Flags().String("pg-dsn", "", "Postgres DSN (in-memory store when empty)")
	processCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	processCmd.Flags().Uint64("reprocess-from", 0, "reprocess from block (inclusive), ignoring saved progress")
	addEngineFlags(processCmd)

	root.AddCommand(processCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retire idle pools and refresh quiet ones at the chain head",
		RunE:  runSweep,
	}

	sweepCmd.Flags().String("rpc", "", "RPC URL")
	sweepCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	sweepCmd.Flags().String("schedule", "", "cron spec with seconds field; runs once when empty")
	addEngineFlags(sweepCmd)

	root.AddCommand(sweepCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().String("outlier-threshold-percent", "10", "max deviation of a tracked price from the swap-implied price")
	cmd.Flags().String("max-tvl-imbalance-percent", "50", "max imbalance between the two sides' USD reserves")
	cmd.Flags().Duration("stats-max-event-age", 100*24*time.Hour, "skip window refreshes for events older than this")
	cmd.Flags().Duration("stats-refresh-interval", time.Hour, "minimum spacing between window refreshes of a pool")
	cmd.Flags().Int("metadata-retries", 3, "token metadata retry attempts")
	cmd.Flags().Duration("metadata-retry-backoff", 500*time.Millisecond, "initial token metadata retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
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

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
