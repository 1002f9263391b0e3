package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"poolScope/internal/network"
)

// EngineConfig holds the pricing and stats thresholds shared by every subcommand.
type EngineConfig struct {
	OutlierThresholdPercent decimal.Decimal
	MaxTVLImbalancePercent  decimal.Decimal
	StatsMaxEventAge        time.Duration
	StatsRefreshInterval    time.Duration
	MetadataRetries         int
	MetadataRetryBackoff    time.Duration
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("POOLSCOPE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("outlier-threshold-percent", "10")
	v.SetDefault("max-tvl-imbalance-percent", "50")
	v.SetDefault("stats-max-event-age", 100*24*time.Hour)
	v.SetDefault("stats-refresh-interval", time.Hour)
	v.SetDefault("metadata-retries", 3)
	v.SetDefault("metadata-retry-backoff", 500*time.Millisecond)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadEngine(v *viper.Viper) (EngineConfig, error) {
	outlier, err := percent(v, "outlier-threshold-percent")
	if err != nil {
		return EngineConfig{}, err
	}
	imbalance, err := percent(v, "max-tvl-imbalance-percent")
	if err != nil {
		return EngineConfig{}, err
	}

	cfg := EngineConfig{
		OutlierThresholdPercent: outlier,
		MaxTVLImbalancePercent:  imbalance,
		StatsMaxEventAge:        v.GetDuration("stats-max-event-age"),
		StatsRefreshInterval:    v.GetDuration("stats-refresh-interval"),
		MetadataRetries:         v.GetInt("metadata-retries"),
		MetadataRetryBackoff:    v.GetDuration("metadata-retry-backoff"),
	}
	if cfg.StatsMaxEventAge <= 0 {
		return EngineConfig{}, fmt.Errorf("stats-max-event-age must be > 0")
	}
	if cfg.StatsRefreshInterval < 0 {
		return EngineConfig{}, fmt.Errorf("stats-refresh-interval must be >= 0")
	}
	return cfg, nil
}

func percent(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0", key)
	}
	return d, nil
}

// loadNetworks reads the network tables that override or extend the built-ins.
func loadNetworks(v *viper.Viper) (*network.Registry, error) {
	var overrides []network.Config
	if v.IsSet("networks") {
		if err := v.UnmarshalKey("networks", &overrides); err != nil {
			return nil, fmt.Errorf("decode networks: %w", err)
		}
	}
	return network.NewRegistry(overrides)
}
